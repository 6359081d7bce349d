package parse

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/calc/compiler/ast"
	"github.com/slowlang/calc/compiler/diag"
	"github.com/slowlang/calc/compiler/lex"
)

type (
	State struct {
		b    []byte
		toks []lex.Token

		prog *ast.Prog
		vars map[string]ast.Var
	}

	binLevel []binOp

	binOp struct {
		punct string
		op    ast.Op
		swap  bool
	}
)

// Binary operator levels from the lowest binding power to the highest.
// ">" and ">=" reuse Lt and Le with swapped operands.
var levels = []binLevel{
	{{punct: "==", op: ast.Eq}, {punct: "!=", op: ast.Ne}},
	{{punct: "<", op: ast.Lt}, {punct: "<=", op: ast.Le}, {punct: ">", op: ast.Lt, swap: true}, {punct: ">=", op: ast.Le, swap: true}},
	{{punct: "+", op: ast.Add}, {punct: "-", op: ast.Sub}},
	{{punct: "*", op: ast.Mul}, {punct: "/", op: ast.Div}},
}

func Parse(ctx context.Context, b []byte, toks []lex.Token) (prog *ast.Prog, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "tokens", len(toks))
	defer tr.Finish("err", &err)

	s, err := New(b, toks)
	if err != nil {
		return nil, err
	}

	prog, err = s.Parse(ctx)
	if err != nil {
		return nil, err
	}

	if tr.If("ast") {
		for i, x := range prog.Exprs {
			tr.Printw("node", "id", i, "type", tlog.NextAsType, x, "val", x)
		}

		for i, v := range prog.Vars {
			tr.Printw("var", "id", i, "name", v.Name, "offset", v.Offset)
		}
	}

	return prog, nil
}

func New(b []byte, toks []lex.Token) (*State, error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != lex.EOF {
		return nil, errors.New("token sequence is not terminated with eof")
	}

	return &State{
		b:    b,
		toks: toks,
		prog: &ast.Prog{},
		vars: make(map[string]ast.Var),
	}, nil
}

// program = stmt*
func (s *State) Parse(ctx context.Context) (*ast.Prog, error) {
	for i := 0; s.toks[i].Kind != lex.EOF; {
		var x ast.Expr
		var err error

		x, i, err = s.stmt(ctx, i)
		if err != nil {
			return nil, err
		}

		s.prog.Stmts = append(s.prog.Stmts, x)
	}

	return s.prog, nil
}

// stmt = expr ";"
func (s *State) stmt(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	x, i, err = s.expr(ctx, st)
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, ";")
	if err != nil {
		return
	}

	return s.prog.Alloc(ast.ExprStmt{X: x}), i, nil
}

func (s *State) expr(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	return s.assign(ctx, st)
}

// assign = equality ("=" assign)?
func (s *State) assign(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	x, i, err = s.binary(ctx, st, 0)
	if err != nil {
		return
	}

	tk, e := s.next(ctx, i)
	if !tk.Is(s.b, "=") {
		return x, i, nil
	}

	if _, ok := s.prog.Exprs[x].(ast.VarRef); !ok {
		return x, st, diag.At(diag.Syntax, s.toks[st].Pos, "not an lvalue")
	}

	r, i, err := s.assign(ctx, e)
	if err != nil {
		return
	}

	return s.prog.Alloc(ast.Assign{Target: x, Value: r}), i, nil
}

// binary = next (op next)*
// where next is the following level or unary for the last one.
func (s *State) binary(ctx context.Context, st, lvl int) (x ast.Expr, i int, err error) {
	if lvl == len(levels) {
		return s.unary(ctx, st)
	}

	x, i, err = s.binary(ctx, st, lvl+1)
	if err != nil {
		return
	}

	for {
		op, e, ok := s.binOp(ctx, i, levels[lvl])
		if !ok {
			break
		}

		var r ast.Expr
		r, i, err = s.binary(ctx, e, lvl+1)
		if err != nil {
			return
		}

		l := x
		if op.swap {
			l, r = r, l
		}

		x = s.prog.Alloc(ast.BinOp{
			Op:    op.op,
			Left:  l,
			Right: r,
		})
	}

	return x, i, nil
}

func (s *State) binOp(ctx context.Context, st int, lvl binLevel) (op binOp, i int, ok bool) {
	tk, i := s.next(ctx, st)

	for _, op := range lvl {
		if tk.Is(s.b, op.punct) {
			return op, i, true
		}
	}

	return op, st, false
}

// unary = ("+" | "-") unary | primary
func (s *State) unary(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	tk, e := s.next(ctx, st)

	switch {
	case tk.Is(s.b, "+"):
		return s.unary(ctx, e)
	case tk.Is(s.b, "-"):
		x, i, err = s.unary(ctx, e)
		if err != nil {
			return
		}

		return s.prog.Alloc(ast.Neg{X: x}), i, nil
	}

	return s.primary(ctx, st)
}

// primary = "(" expr ")" | num | ident
func (s *State) primary(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	tk, i := s.next(ctx, st)

	switch tk.Kind {
	case lex.Num:
		return s.prog.Alloc(ast.Num{Value: tk.Val}), i, nil
	case lex.Ident:
		v := s.variable(ctx, string(tk.Text(s.b)))

		return s.prog.Alloc(ast.VarRef{Var: v}), i, nil
	case lex.Punct:
		if !tk.Is(s.b, "(") {
			break
		}

		x, i, err = s.expr(ctx, i)
		if err != nil {
			return
		}

		i, err = s.expect(ctx, i, ")")
		if err != nil {
			return
		}

		return x, i, nil
	}

	return x, st, diag.At(diag.Syntax, tk.Pos, "expected an expression")
}

func (s *State) variable(ctx context.Context, name string) ast.Var {
	if v, ok := s.vars[name]; ok {
		return v
	}

	v := s.prog.AddVar(name)
	s.vars[name] = v

	if tr := tlog.SpanFromContext(ctx); tr.If("vars") {
		tr.Printw("define var", "name", name, "id", v, "offset", s.prog.Vars[v].Offset)
	}

	return v
}

func (s *State) expect(ctx context.Context, st int, p string) (i int, err error) {
	tk, i := s.next(ctx, st)
	if !tk.Is(s.b, p) {
		return st, diag.At(diag.Syntax, tk.Pos, "expected '%s'", p)
	}

	return i, nil
}

// next returns the token at st and the index after it.
// The cursor never moves past eof.
func (s *State) next(ctx context.Context, st int) (tk lex.Token, i int) {
	if tr := tlog.SpanFromContext(ctx); tr.If("next_token") {
		defer func(st int) {
			tr.Printw("next token", "st", st, "tk", tk, "i", i, "from", loc.Callers(1, 3))
		}(st)
	}

	last := len(s.toks) - 1
	if st >= last {
		return s.toks[last], last
	}

	return s.toks[st], st + 1
}
