package factorfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/quantfold/factorc/internal/expr"
)

// translator lowers HCL syntax trees into builder calls on one graph. Each
// distinct column name becomes exactly one Input node, created on first use,
// so input order is first-use order and deterministic per definition.
type translator struct {
	g      *expr.Graph
	inputs map[string]*expr.Node
}

func newTranslator(g *expr.Graph) *translator {
	return &translator{g: g, inputs: make(map[string]*expr.Node)}
}

func (tr *translator) lower(e hcl.Expression) (*expr.Node, error) {
	syn, ok := e.(hclsyntax.Expression)
	if !ok {
		return nil, fmt.Errorf("factorfile: expressions must use HCL native syntax")
	}
	return tr.lowerSyntax(syn)
}

func (tr *translator) lowerSyntax(e hclsyntax.Expression) (*expr.Node, error) {
	switch e := e.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			return nil, fmt.Errorf("factorfile: %s: column references must be bare identifiers", e.Range())
		}
		return tr.input(e.Traversal.RootName())

	case *hclsyntax.LiteralValueExpr:
		if e.Val.Type() != cty.Number {
			return nil, fmt.Errorf("factorfile: %s: only numeric literals are allowed", e.Range())
		}
		f, _ := e.Val.AsBigFloat().Float64()
		return tr.g.Const(f), nil

	case *hclsyntax.ParenthesesExpr:
		return tr.lowerSyntax(e.Expression)

	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpNegate {
			return nil, fmt.Errorf("factorfile: %s: unsupported unary operator", e.Range())
		}
		operand, err := tr.lowerSyntax(e.Val)
		if err != nil {
			return nil, err
		}
		return tr.g.ScalarSub(0, operand), nil

	case *hclsyntax.BinaryOpExpr:
		lhs, err := tr.lowerSyntax(e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := tr.lowerSyntax(e.RHS)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case hclsyntax.OpAdd:
			return tr.g.Add(lhs, rhs), nil
		case hclsyntax.OpSubtract:
			return tr.g.Sub(lhs, rhs), nil
		case hclsyntax.OpMultiply:
			return tr.g.Mul(lhs, rhs), nil
		case hclsyntax.OpDivide:
			return tr.g.Div(lhs, rhs), nil
		default:
			return nil, fmt.Errorf("factorfile: %s: unsupported binary operator", e.Range())
		}

	default:
		return nil, fmt.Errorf("factorfile: %s: unsupported expression; factors are arithmetic over columns and numbers", e.Range())
	}
}

// input returns the Input node for a column, creating it on first use.
func (tr *translator) input(name string) (*expr.Node, error) {
	if n, ok := tr.inputs[name]; ok {
		return n, nil
	}
	n, err := tr.g.Input(name)
	if err != nil {
		return nil, err
	}
	tr.inputs[name] = n
	return n, nil
}
