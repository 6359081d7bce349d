package emu

import (
	"context"
	"encoding/binary"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/calc/compiler/asm"
)

type (
	Machine struct {
		Regs [asm.NumRegs]int64
		Mem  []byte

		StepLimit int

		cmpl, cmpr int64

		marks []int64
	}

	Result struct {
		Value int64 // RAX at return
		Steps int

		// Marks is RSP at each statement start.
		Marks []int64
		// SP is RSP after return.
		SP int64
	}
)

const (
	DefaultStackSize = 64 << 10
	DefaultStepLimit = 1 << 20

	sentinel = -1
)

var (
	ErrDivByZero      = errors.New("division by zero")
	ErrDivOverflow    = errors.New("division overflow")
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStepLimit      = errors.New("step limit exceeded")
)

func Run(ctx context.Context, f *asm.Func) (Result, error) {
	return New(DefaultStackSize).Run(ctx, f)
}

func New(stack int) *Machine {
	return &Machine{
		Mem:       make([]byte, stack),
		StepLimit: DefaultStepLimit,
	}
}

// Run executes f from its first instruction until it returns to the caller.
func (m *Machine) Run(ctx context.Context, f *asm.Func) (res Result, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "emu: run", "func", f.Name, "instrs", len(f.Body))
	defer tr.Finish("err", &err)

	m.Regs = [asm.NumRegs]int64{}
	m.Regs[asm.RSP] = int64(len(m.Mem))
	m.marks = m.marks[:0]

	err = m.push(sentinel)
	if err != nil {
		return res, err
	}

	for pc := 0; ; pc++ {
		if pc == len(f.Body) {
			return res, errors.New("%v: no ret at the end of body", f.Name)
		}

		if res.Steps == m.StepLimit {
			return res, ErrStepLimit
		}

		res.Steps++

		x := f.Body[pc]

		if tr.If("emu_step") {
			tr.Printw("step", "pc", pc, "type", tlog.NextAsType, x, "val", x, "rax", m.Regs[asm.RAX], "rsp", m.Regs[asm.RSP])
		}

		var done bool

		done, err = m.step(x)
		if err != nil {
			return res, errors.Wrap(err, "pc %d (%T)", pc, x)
		}

		if done {
			break
		}
	}

	res.Value = m.Regs[asm.RAX]
	res.SP = m.Regs[asm.RSP]
	res.Marks = append([]int64{}, m.marks...)

	return res, nil
}

func (m *Machine) step(x asm.Instr) (done bool, err error) {
	r := &m.Regs

	switch x := x.(type) {
	case asm.Mark:
		m.marks = append(m.marks, r[asm.RSP])
	case asm.Imm:
		r[x.Out] = x.Value
	case asm.Mov:
		r[x.Out] = r[x.In]
	case asm.Lea:
		r[x.Out] = r[x.Base] + int64(x.Off)
	case asm.Load:
		r[x.Out], err = m.Load(r[x.Addr])
	case asm.Store:
		err = m.Store(r[x.Addr], r[x.In])
	case asm.Push:
		err = m.push(r[x.In])
	case asm.Pop:
		r[x.Out], err = m.pop()
	case asm.Add:
		r[x.Out] += r[x.In]
	case asm.Sub:
		r[x.Out] -= r[x.In]
	case asm.SubImm:
		r[x.Out] -= x.Value
	case asm.Imul:
		r[x.Out] *= r[x.In]
	case asm.Neg:
		r[x.Out] = -r[x.Out]
	case asm.Cqo:
		r[asm.RDX] = r[asm.RAX] >> 63
	case asm.Idiv:
		err = m.idiv(r[x.In])
	case asm.Cmp:
		m.cmpl, m.cmpr = r[x.Left], r[x.Right]
	case asm.Set:
		var v int64
		if m.cond(x.Cond) {
			v = 1
		}

		r[x.Out] = r[x.Out]&^0xff | v
	case asm.Movzb:
		r[x.Out] = r[x.In] & 0xff
	case asm.Ret:
		ret, err := m.pop()
		if err != nil {
			return false, err
		}

		if ret != sentinel {
			return false, errors.New("bad return address: %#x", ret)
		}

		return true, nil
	default:
		return false, errors.New("unsupported instruction: %T", x)
	}

	return false, err
}

func (m *Machine) idiv(d int64) error {
	rax, rdx := m.Regs[asm.RAX], m.Regs[asm.RDX]

	if rdx != rax>>63 {
		return errors.New("dividend does not fit 64 bits")
	}

	if d == 0 {
		return ErrDivByZero
	}

	if rax == math.MinInt64 && d == -1 {
		return ErrDivOverflow
	}

	m.Regs[asm.RAX], m.Regs[asm.RDX] = rax/d, rax%d

	return nil
}

func (m *Machine) cond(c asm.Cond) bool {
	l, r := m.cmpl, m.cmpr

	switch c {
	case asm.E:
		return l == r
	case asm.NE:
		return l != r
	case asm.L:
		return l < r
	case asm.LE:
		return l <= r
	default:
		panic(c)
	}
}

func (m *Machine) push(v int64) error {
	sp := m.Regs[asm.RSP] - 8
	if sp < 0 {
		return ErrStackOverflow
	}

	m.Regs[asm.RSP] = sp

	return m.Store(sp, v)
}

func (m *Machine) pop() (int64, error) {
	sp := m.Regs[asm.RSP]
	if sp+8 > int64(len(m.Mem)) {
		return 0, ErrStackUnderflow
	}

	v, err := m.Load(sp)
	if err != nil {
		return 0, err
	}

	m.Regs[asm.RSP] = sp + 8

	return v, nil
}

func (m *Machine) Load(addr int64) (int64, error) {
	if addr < 0 || addr+8 > int64(len(m.Mem)) {
		return 0, errors.New("load out of range: %#x", addr)
	}

	return int64(binary.LittleEndian.Uint64(m.Mem[addr:])), nil
}

func (m *Machine) Store(addr, v int64) error {
	if addr < 0 || addr+8 > int64(len(m.Mem)) {
		return errors.New("store out of range: %#x", addr)
	}

	binary.LittleEndian.PutUint64(m.Mem[addr:], uint64(v))

	return nil
}
