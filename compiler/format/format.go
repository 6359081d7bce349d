package format

import (
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/calc/compiler/ast"
)

// Prog renders every statement on its own line with all subexpressions parenthesized.
func Prog(b []byte, p *ast.Prog) (_ []byte, err error) {
	for i, id := range p.Stmts {
		b, err = Expr(b, p, id)
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}

		b = append(b, '\n')
	}

	return b, nil
}

func Expr(b []byte, p *ast.Prog, id ast.Expr) (_ []byte, err error) {
	if id < 0 || int(id) >= len(p.Exprs) {
		return nil, errors.New("bad expr id: %d", id)
	}

	switch x := p.Exprs[id].(type) {
	case ast.ExprStmt:
		b, err = Expr(b, p, x.X)
		if err != nil {
			return nil, err
		}

		b = append(b, ';')
	case ast.Num:
		b = hfmt.Appendf(b, "%d", x.Value)
	case ast.VarRef:
		b = append(b, p.Vars[x.Var].Name...)
	case ast.Neg:
		b = append(b, '-')

		b, err = Expr(b, p, x.X)
		if err != nil {
			return nil, errors.Wrap(err, "neg")
		}
	case ast.Assign:
		b, err = binary(b, p, "=", x.Target, x.Value)
	case ast.BinOp:
		b, err = binary(b, p, x.Op.String(), x.Left, x.Right)
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, err
}

func binary(b []byte, p *ast.Prog, op string, l, r ast.Expr) (_ []byte, err error) {
	b = append(b, '(')

	b, err = Expr(b, p, l)
	if err != nil {
		return nil, errors.Wrap(err, "left")
	}

	b = append(b, op...)

	b, err = Expr(b, p, r)
	if err != nil {
		return nil, errors.Wrap(err, "right")
	}

	b = append(b, ')')

	return b, nil
}
