package asm

import (
	"fmt"
)

type (
	Reg  int
	Cond string

	Func struct {
		Name string
		Body []Instr
	}

	Instr any

	// Mark separates statements. It emits no machine code.
	Mark struct {
		Stmt int
	}

	// Imm loads a constant: mov $Value, Out.
	Imm struct {
		Out   Reg
		Value int64
	}

	Mov struct {
		Out Reg
		In  Reg
	}

	// Lea computes Base+Off into Out.
	Lea struct {
		Out  Reg
		Base Reg
		Off  int
	}

	// Load reads the word at address Addr into Out.
	Load struct {
		Out  Reg
		Addr Reg
	}

	// Store writes In to the word at address Addr.
	Store struct {
		Addr Reg
		In   Reg
	}

	Push struct {
		In Reg
	}

	Pop struct {
		Out Reg
	}

	Add struct {
		Out Reg
		In  Reg
	}

	Sub struct {
		Out Reg
		In  Reg
	}

	// SubImm subtracts a constant: sub $Value, Out.
	SubImm struct {
		Out   Reg
		Value int64
	}

	Imul struct {
		Out Reg
		In  Reg
	}

	Neg struct {
		Out Reg
	}

	// Cqo sign extends RAX into RDX:RAX.
	Cqo struct{}

	// Idiv divides RDX:RAX by In, quotient in RAX.
	Idiv struct {
		In Reg
	}

	// Cmp compares Left to Right and sets the flags.
	Cmp struct {
		Left  Reg
		Right Reg
	}

	// Set stores the Cond flag into the low byte of Out.
	Set struct {
		Cond Cond
		Out  Reg
	}

	// Movzb zero extends the low byte of In into Out.
	Movzb struct {
		Out Reg
		In  Reg
	}

	Ret struct{}
)

const (
	RAX Reg = iota
	RDI
	RDX
	RBP
	RSP

	NumRegs
)

const (
	E  Cond = "e"
	NE Cond = "ne"
	L  Cond = "l"
	LE Cond = "le"
)

func (r Reg) String() string {
	switch r {
	case RAX:
		return "%rax"
	case RDI:
		return "%rdi"
	case RDX:
		return "%rdx"
	case RBP:
		return "%rbp"
	case RSP:
		return "%rsp"
	default:
		return fmt.Sprintf("%%r?%d", int(r))
	}
}

// Low8 is the name of the low byte of the register.
func (r Reg) Low8() string {
	switch r {
	case RAX:
		return "%al"
	case RDI:
		return "%dil"
	case RDX:
		return "%dl"
	case RBP:
		return "%bpl"
	case RSP:
		return "%spl"
	default:
		return fmt.Sprintf("%%r?%db", int(r))
	}
}
