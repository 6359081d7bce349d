package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/calc/compiler/asm"
	"github.com/slowlang/calc/compiler/ast"
)

type (
	Compiler struct{}

	state struct {
		*ast.Prog

		body  []asm.Instr
		depth int
	}
)

const EntryName = "main"

func New() *Compiler { return &Compiler{} }

// Compile generates code for p and appends its text to b.
func (c *Compiler) Compile(ctx context.Context, b []byte, p *ast.Prog) (_ []byte, err error) {
	f, err := c.Generate(ctx, p)
	if err != nil {
		return nil, err
	}

	return asm.Append(b, f)
}

// Generate translates p into a single function.
// The value of the last statement is left in RAX.
func (c *Compiler) Generate(ctx context.Context, p *ast.Prog) (f *asm.Func, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: generate", "stmts", len(p.Stmts), "vars", len(p.Vars), "stack_size", p.StackSize)
	defer tr.Finish("err", &err)

	s := &state{Prog: p}

	s.emit(
		asm.Push{In: asm.RBP},
		asm.Mov{Out: asm.RBP, In: asm.RSP},
		asm.SubImm{Out: asm.RSP, Value: int64(p.StackSize)},
	)

	for i, id := range p.Stmts {
		s.emit(asm.Mark{Stmt: i})

		s.stmt(id)

		if s.depth != 0 {
			panic(errors.New("stack depth %d after stmt %d", s.depth, i))
		}
	}

	s.emit(
		asm.Mov{Out: asm.RSP, In: asm.RBP},
		asm.Pop{Out: asm.RBP},
		asm.Ret{},
	)

	f = &asm.Func{
		Name: EntryName,
		Body: s.body,
	}

	if tr.If("dump_asm") {
		for i, x := range f.Body {
			tr.Printw("instr", "i", i, "type", tlog.NextAsType, x, "val", x)
		}
	}

	return f, nil
}

func (s *state) stmt(id ast.Expr) {
	switch x := s.Exprs[id].(type) {
	case ast.ExprStmt:
		s.expr(x.X)
	default:
		panic(errors.New("unsupported stmt: %T", x))
	}
}

func (s *state) expr(id ast.Expr) {
	switch x := s.Exprs[id].(type) {
	case ast.Num:
		s.emit(asm.Imm{Out: asm.RAX, Value: x.Value})
		return
	case ast.Neg:
		s.expr(x.X)
		s.emit(asm.Neg{Out: asm.RAX})
		return
	case ast.VarRef:
		s.addr(id)
		s.emit(asm.Load{Out: asm.RAX, Addr: asm.RAX})
		return
	case ast.Assign:
		s.addr(x.Target)
		s.push()
		s.expr(x.Value)
		s.pop(asm.RDI)
		s.emit(asm.Store{Addr: asm.RDI, In: asm.RAX})
		return
	case ast.BinOp:
		s.binOp(x)
		return
	default:
		panic(errors.New("unsupported expr: %T", x))
	}
}

func (s *state) binOp(x ast.BinOp) {
	s.expr(x.Right)
	s.push()
	s.expr(x.Left)
	s.pop(asm.RDI)

	switch x.Op {
	case ast.Add:
		s.emit(asm.Add{Out: asm.RAX, In: asm.RDI})
	case ast.Sub:
		s.emit(asm.Sub{Out: asm.RAX, In: asm.RDI})
	case ast.Mul:
		s.emit(asm.Imul{Out: asm.RAX, In: asm.RDI})
	case ast.Div:
		s.emit(asm.Cqo{}, asm.Idiv{In: asm.RDI})
	case ast.Eq:
		s.cmp(asm.E)
	case ast.Ne:
		s.cmp(asm.NE)
	case ast.Lt:
		s.cmp(asm.L)
	case ast.Le:
		s.cmp(asm.LE)
	default:
		panic(errors.New("unsupported op: %v", x.Op))
	}
}

func (s *state) cmp(c asm.Cond) {
	s.emit(
		asm.Cmp{Left: asm.RAX, Right: asm.RDI},
		asm.Set{Cond: c, Out: asm.RAX},
		asm.Movzb{Out: asm.RAX, In: asm.RAX},
	)
}

// addr computes the address of the variable referenced by id into RAX.
func (s *state) addr(id ast.Expr) {
	r, ok := s.Exprs[id].(ast.VarRef)
	if !ok {
		panic(errors.New("not an lvalue: %T", s.Exprs[id]))
	}

	s.emit(asm.Lea{Out: asm.RAX, Base: asm.RBP, Off: s.Vars[r.Var].Offset})
}

func (s *state) push() {
	s.emit(asm.Push{In: asm.RAX})
	s.depth++
}

func (s *state) pop(r asm.Reg) {
	s.emit(asm.Pop{Out: r})
	s.depth--
}

func (s *state) emit(x ...asm.Instr) {
	s.body = append(s.body, x...)
}
