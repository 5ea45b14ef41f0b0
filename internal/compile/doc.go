// Package compile turns batches of finished expression functions into one
// loadable native module.
//
// The driver owns everything up to and including the generated C source and
// the layout-aware calling metadata; the actual native toolchain is an
// external collaborator behind the Toolchain interface. A compile call moves
// through validate → lower → delegate → publish, and publication is
// all-or-nothing: the module is built in a temporary directory and renamed
// into place only after the toolchain succeeds, so a failed call never
// leaves a loadable module at the target path.
//
// Independent Compile calls on distinct output paths are safe to run
// concurrently; concurrent calls on the same path are the caller's problem
// to serialize.
package compile
