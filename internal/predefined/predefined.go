// Package predefined is the compiled-in factor library: a small set of
// arithmetic OHLCV factors available without writing any factor file.
package predefined

import (
	"fmt"

	"github.com/quantfold/factorc/internal/compile"
	"github.com/quantfold/factorc/internal/expr"
)

// Factor couples a symbol name with the builder routine that constructs it.
type Factor struct {
	Name  string
	Build func(g *expr.Graph) error
}

// All returns the definitive list of built-in factors, in a stable order.
func All() []Factor {
	return []Factor{
		{Name: "range_ratio", Build: rangeRatio},
		{Name: "typical_price", Build: typicalPrice},
		{Name: "vwap_proxy", Build: vwapProxy},
		{Name: "money_flow_ratio", Build: moneyFlowRatio},
		{Name: "triple_input", Build: tripleInput},
	}
}

// Entries builds every built-in factor into compile entries under the given
// config.
func Entries(cfg compile.Config) ([]compile.Entry, error) {
	factors := All()
	entries := make([]compile.Entry, 0, len(factors))
	for _, f := range factors {
		fn, err := expr.Build(f.Build)
		if err != nil {
			return nil, fmt.Errorf("predefined: factor %q: %w", f.Name, err)
		}
		entries = append(entries, compile.Entry{Symbol: f.Name, Fn: fn, Config: cfg})
	}
	return entries, nil
}

func ohlc(g *expr.Graph) (closeP, openP, high, low *expr.Node, err error) {
	if closeP, err = g.Input("close"); err != nil {
		return
	}
	if openP, err = g.Input("open"); err != nil {
		return
	}
	if high, err = g.Input("high"); err != nil {
		return
	}
	low, err = g.Input("low")
	return
}

// rangeRatio is (close - open) / ((high - low) + 0.001): where in the day's
// range the close landed relative to the open.
func rangeRatio(g *expr.Graph) error {
	closeP, openP, high, low, err := ohlc(g)
	if err != nil {
		return err
	}
	num := g.Sub(closeP, openP)
	den := g.AddScalar(g.Sub(high, low), 0.001)
	return g.Output(g.Div(num, den), "range_ratio")
}

// typicalPrice is (high + low + close) / 3.
func typicalPrice(g *expr.Graph) error {
	closeP, err := g.Input("close")
	if err != nil {
		return err
	}
	high, err := g.Input("high")
	if err != nil {
		return err
	}
	low, err := g.Input("low")
	if err != nil {
		return err
	}
	sum := g.Add(g.Add(high, low), closeP)
	return g.Output(g.DivScalar(sum, 3), "typical_price")
}

// vwapProxy is amount / volume, the average traded price of the bar.
func vwapProxy(g *expr.Graph) error {
	amount, err := g.Input("amount")
	if err != nil {
		return err
	}
	volume, err := g.Input("volume")
	if err != nil {
		return err
	}
	return g.Output(g.Div(amount, volume), "vwap_proxy")
}

// moneyFlowRatio is the close-location value scaled by volume:
// ((close - low) - (high - close)) / ((high - low) + 0.001) * volume.
func moneyFlowRatio(g *expr.Graph) error {
	closeP, err := g.Input("close")
	if err != nil {
		return err
	}
	high, err := g.Input("high")
	if err != nil {
		return err
	}
	low, err := g.Input("low")
	if err != nil {
		return err
	}
	volume, err := g.Input("volume")
	if err != nil {
		return err
	}
	clv := g.Sub(g.Sub(closeP, low), g.Sub(high, closeP))
	den := g.AddScalar(g.Sub(high, low), 0.001)
	return g.Output(g.Mul(g.Div(clv, den), volume), "money_flow_ratio")
}

// tripleInput is input + input * 2, the classic smoke-test factor.
func tripleInput(g *expr.Graph) error {
	in, err := g.Input("input")
	if err != nil {
		return err
	}
	return g.Output(g.Add(in, g.MulScalar(in, 2)), "output")
}
