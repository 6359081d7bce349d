package analyze

import (
	"context"
	"fmt"
	"reflect"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/calc/compiler/ast"
	"github.com/slowlang/calc/compiler/set"
)

type (
	UnsupportedNodeError struct {
		ID ast.Expr
		T  any
	}

	checker struct {
		*ast.Prog

		seen set.Bits[ast.Expr]
		used set.Bits[ast.Var]
	}
)

// Check verifies the program invariants code generation relies on:
// every node is referenced once, every variable is referenced, owns a distinct slot
// within the frame, and assignment targets are variable references.
func Check(ctx context.Context, p *ast.Prog) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "analyze", "exprs", len(p.Exprs), "vars", len(p.Vars))
	defer tr.Finish("err", &err)

	err = checkVars(p)
	if err != nil {
		return errors.Wrap(err, "vars")
	}

	c := &checker{
		Prog: p,
		seen: set.MakeBits[ast.Expr](len(p.Exprs)),
		used: set.MakeBits[ast.Var](len(p.Vars)),
	}

	for i, id := range p.Stmts {
		err = c.stmt(id)
		if err != nil {
			return errors.Wrap(err, "stmt %d", i)
		}
	}

	for i, v := range p.Vars {
		if !c.used.IsSet(ast.Var(i)) {
			return errors.New("var %q (%d) is never referenced", v.Name, i)
		}
	}

	if tr.If("analyze") {
		tr.Printw("reachable", "exprs", c.seen.Size(), "of", len(p.Exprs), "used_vars", c.used)
	}

	return nil
}

func checkVars(p *ast.Prog) error {
	slots := set.MakeBits[int](len(p.Vars))

	for i, v := range p.Vars {
		if v.Offset >= 0 || v.Offset%ast.SlotSize != 0 || -v.Offset > p.StackSize {
			return errors.New("var %q: bad offset %d (stack size %d)", v.Name, v.Offset, p.StackSize)
		}

		if !slots.TrySet(-v.Offset / ast.SlotSize) {
			return errors.New("var %q (%d): slot %d is shared", v.Name, i, v.Offset)
		}
	}

	if p.StackSize%16 != 0 {
		return errors.New("stack size is not aligned: %d", p.StackSize)
	}

	return nil
}

func (c *checker) stmt(id ast.Expr) error {
	x, err := c.visit(id)
	if err != nil {
		return err
	}

	s, ok := x.(ast.ExprStmt)
	if !ok {
		return NewUnsupportedNode(id, x)
	}

	return c.expr(s.X)
}

func (c *checker) expr(id ast.Expr) (err error) {
	x, err := c.visit(id)
	if err != nil {
		return err
	}

	switch x := x.(type) {
	case ast.Num:
	case ast.VarRef:
		return c.varRef(x)
	case ast.Neg:
		return c.expr(x.X)
	case ast.Assign:
		if int(x.Target) >= 0 && int(x.Target) < len(c.Exprs) {
			if _, ok := c.Exprs[x.Target].(ast.VarRef); !ok {
				return errors.New("expr %d: assign target is %T", id, c.Exprs[x.Target])
			}
		}

		err = c.expr(x.Target)
		if err != nil {
			return errors.Wrap(err, "target")
		}

		return c.expr(x.Value)
	case ast.BinOp:
		if x.Op < ast.Add || x.Op > ast.Le {
			return errors.New("expr %d: bad op %d", id, int(x.Op))
		}

		err = c.expr(x.Left)
		if err != nil {
			return errors.Wrap(err, "left")
		}

		err = c.expr(x.Right)
		if err != nil {
			return errors.Wrap(err, "right")
		}
	default:
		return NewUnsupportedNode(id, x)
	}

	return nil
}

func (c *checker) varRef(r ast.VarRef) error {
	if r.Var < 0 || int(r.Var) >= len(c.Vars) {
		return errors.New("var %d out of range", r.Var)
	}

	c.used.Set(r.Var)

	return nil
}

func (c *checker) visit(id ast.Expr) (any, error) {
	if id < 0 || int(id) >= len(c.Exprs) {
		return nil, errors.New("expr %d out of range", id)
	}

	if !c.seen.TrySet(id) {
		return nil, errors.New("expr %d is referenced twice", id)
	}

	return c.Exprs[id], nil
}

func NewUnsupportedNode(id ast.Expr, x any) UnsupportedNodeError {
	return UnsupportedNodeError{
		ID: id,
		T:  x,
	}
}

func (e UnsupportedNodeError) Error() string {
	return fmt.Sprintf("expr %d: unsupported node: %v", e.ID, reflect.TypeOf(e.T))
}
