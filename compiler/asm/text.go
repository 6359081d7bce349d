package asm

import (
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

// Append renders f in AT&T syntax.
func Append(b []byte, f *Func) (_ []byte, err error) {
	b = hfmt.Appendf(b, "  .globl %s\n%[1]s:\n", f.Name)

	for i, x := range f.Body {
		b, err = AppendInstr(b, x)
		if err != nil {
			return nil, errors.Wrap(err, "instr %d", i)
		}
	}

	return b, nil
}

func AppendInstr(b []byte, x Instr) ([]byte, error) {
	switch x := x.(type) {
	case Mark:
		b = hfmt.Appendf(b, "  # stmt %d\n", x.Stmt)
	case Imm:
		b = hfmt.Appendf(b, "  mov $%d, %v\n", x.Value, x.Out)
	case Mov:
		b = hfmt.Appendf(b, "  mov %v, %v\n", x.In, x.Out)
	case Lea:
		b = hfmt.Appendf(b, "  lea %d(%v), %v\n", x.Off, x.Base, x.Out)
	case Load:
		b = hfmt.Appendf(b, "  mov (%v), %v\n", x.Addr, x.Out)
	case Store:
		b = hfmt.Appendf(b, "  mov %v, (%v)\n", x.In, x.Addr)
	case Push:
		b = hfmt.Appendf(b, "  push %v\n", x.In)
	case Pop:
		b = hfmt.Appendf(b, "  pop %v\n", x.Out)
	case Add:
		b = hfmt.Appendf(b, "  add %v, %v\n", x.In, x.Out)
	case Sub:
		b = hfmt.Appendf(b, "  sub %v, %v\n", x.In, x.Out)
	case SubImm:
		b = hfmt.Appendf(b, "  sub $%d, %v\n", x.Value, x.Out)
	case Imul:
		b = hfmt.Appendf(b, "  imul %v, %v\n", x.In, x.Out)
	case Neg:
		b = hfmt.Appendf(b, "  neg %v\n", x.Out)
	case Cqo:
		b = append(b, "  cqo\n"...)
	case Idiv:
		b = hfmt.Appendf(b, "  idiv %v\n", x.In)
	case Cmp:
		// AT&T operand order: cmp src, dst computes dst - src.
		b = hfmt.Appendf(b, "  cmp %v, %v\n", x.Right, x.Left)
	case Set:
		b = hfmt.Appendf(b, "  set%s %s\n", x.Cond, x.Out.Low8())
	case Movzb:
		b = hfmt.Appendf(b, "  movzb %s, %v\n", x.In.Low8(), x.Out)
	case Ret:
		b = append(b, "  ret\n"...)
	default:
		return nil, errors.New("unsupported instruction: %T", x)
	}

	return b, nil
}
