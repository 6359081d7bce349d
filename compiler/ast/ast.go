package ast

type (
	// Expr is an index into Prog.Exprs.
	Expr int

	// Var is an index into Prog.Vars.
	Var int

	Op int

	Prog struct {
		Exprs []any
		Stmts []Expr

		Vars      []Variable
		StackSize int
	}

	Variable struct {
		Name   string
		Offset int // from frame base
	}

	BinOp struct {
		Op    Op
		Left  Expr
		Right Expr
	}

	Neg struct {
		X Expr
	}

	Num struct {
		Value int64
	}

	VarRef struct {
		Var Var
	}

	// Assign stores Value into the variable referenced by Target.
	// Target is always a VarRef.
	Assign struct {
		Target Expr
		Value  Expr
	}

	ExprStmt struct {
		X Expr
	}
)

const (
	Add Op = iota
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Le
)

const SlotSize = 8

func (p *Prog) Alloc(x any) Expr {
	id := Expr(len(p.Exprs))
	p.Exprs = append(p.Exprs, x)

	return id
}

// AddVar appends a variable in the next free slot.
func (p *Prog) AddVar(name string) Var {
	id := Var(len(p.Vars))

	p.Vars = append(p.Vars, Variable{
		Name:   name,
		Offset: -SlotSize * (int(id) + 1),
	})

	p.StackSize = alignTo(len(p.Vars)*SlotSize, 16)

	return id
}

func (op Op) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	default:
		return "?"
	}
}

func alignTo(n, align int) int {
	return (n + align - 1) / align * align
}
