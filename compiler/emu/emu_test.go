package emu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/calc/compiler/asm"
)

func fn(body ...asm.Instr) *asm.Func {
	return &asm.Func{Name: "main", Body: body}
}

func TestRunArith(t *testing.T) {
	ctx := context.Background()

	// (1+2)*3 - 4/2
	f := fn(
		asm.Imm{Out: asm.RAX, Value: 2},
		asm.Push{In: asm.RAX},
		asm.Imm{Out: asm.RAX, Value: 4},
		asm.Pop{Out: asm.RDI},
		asm.Cqo{},
		asm.Idiv{In: asm.RDI},
		asm.Push{In: asm.RAX},
		asm.Imm{Out: asm.RAX, Value: 3},
		asm.Push{In: asm.RAX},
		asm.Imm{Out: asm.RAX, Value: 2},
		asm.Push{In: asm.RAX},
		asm.Imm{Out: asm.RAX, Value: 1},
		asm.Pop{Out: asm.RDI},
		asm.Add{Out: asm.RAX, In: asm.RDI},
		asm.Pop{Out: asm.RDI},
		asm.Imul{Out: asm.RAX, In: asm.RDI},
		asm.Pop{Out: asm.RDI},
		asm.Sub{Out: asm.RAX, In: asm.RDI},
		asm.Ret{},
	)

	res, err := Run(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Value)
	assert.Equal(t, int64(DefaultStackSize), res.SP)
	assert.Equal(t, len(f.Body), res.Steps)
}

func TestRunCompare(t *testing.T) {
	ctx := context.Background()

	testData := []struct {
		l, r int64
		cond asm.Cond
		exp  int64
	}{
		{l: 1, r: 1, cond: asm.E, exp: 1},
		{l: 1, r: 2, cond: asm.E, exp: 0},
		{l: 1, r: 2, cond: asm.NE, exp: 1},
		{l: -1, r: 0, cond: asm.L, exp: 1},
		{l: 0, r: -1, cond: asm.L, exp: 0},
		{l: 3, r: 3, cond: asm.LE, exp: 1},
		{l: 4, r: 3, cond: asm.LE, exp: 0},
	}

	for _, d := range testData {
		f := fn(
			asm.Imm{Out: asm.RDI, Value: d.r},
			asm.Imm{Out: asm.RAX, Value: d.l},
			asm.Cmp{Left: asm.RAX, Right: asm.RDI},
			asm.Set{Cond: d.cond, Out: asm.RAX},
			asm.Movzb{Out: asm.RAX, In: asm.RAX},
			asm.Ret{},
		)

		res, err := Run(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, d.exp, res.Value, "%d %s %d", d.l, d.cond, d.r)
	}
}

func TestRunFrame(t *testing.T) {
	ctx := context.Background()

	f := fn(
		asm.Push{In: asm.RBP},
		asm.Mov{Out: asm.RBP, In: asm.RSP},
		asm.SubImm{Out: asm.RSP, Value: 16},
		asm.Mark{Stmt: 0},
		asm.Lea{Out: asm.RAX, Base: asm.RBP, Off: -8},
		asm.Push{In: asm.RAX},
		asm.Imm{Out: asm.RAX, Value: 9},
		asm.Pop{Out: asm.RDI},
		asm.Store{Addr: asm.RDI, In: asm.RAX},
		asm.Mark{Stmt: 1},
		asm.Imm{Out: asm.RAX, Value: 0},
		asm.Lea{Out: asm.RAX, Base: asm.RBP, Off: -8},
		asm.Load{Out: asm.RAX, Addr: asm.RAX},
		asm.Neg{Out: asm.RAX},
		asm.Mov{Out: asm.RSP, In: asm.RBP},
		asm.Pop{Out: asm.RBP},
		asm.Ret{},
	)

	res, err := Run(ctx, f)
	require.NoError(t, err)

	assert.Equal(t, int64(-9), res.Value)
	assert.Equal(t, []int64{DefaultStackSize - 32, DefaultStackSize - 32}, res.Marks)
	assert.Equal(t, int64(DefaultStackSize), res.SP)
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, fn(
		asm.Imm{Out: asm.RAX, Value: 1},
		asm.Imm{Out: asm.RDI, Value: 0},
		asm.Cqo{},
		asm.Idiv{In: asm.RDI},
		asm.Ret{},
	))
	assert.ErrorIs(t, err, ErrDivByZero)

	_, err = Run(ctx, fn(
		asm.Imm{Out: asm.RAX, Value: -1 << 63},
		asm.Imm{Out: asm.RDI, Value: -1},
		asm.Cqo{},
		asm.Idiv{In: asm.RDI},
		asm.Ret{},
	))
	assert.ErrorIs(t, err, ErrDivOverflow)

	_, err = Run(ctx, fn(
		asm.Pop{Out: asm.RAX},
		asm.Pop{Out: asm.RAX},
		asm.Ret{},
	))
	assert.ErrorIs(t, err, ErrStackUnderflow)

	_, err = Run(ctx, fn(
		asm.Imm{Out: asm.RAX, Value: 1},
	))
	assert.Error(t, err)

	_, err = Run(ctx, fn(
		asm.Push{In: asm.RAX},
		asm.Ret{},
	))
	assert.Error(t, err, "bad return address")

	m := New(16)

	_, err = m.Run(ctx, fn(
		asm.Push{In: asm.RAX},
		asm.Push{In: asm.RAX},
		asm.Ret{},
	))
	assert.ErrorIs(t, err, ErrStackOverflow)

	m = New(DefaultStackSize)
	m.StepLimit = 2

	_, err = m.Run(ctx, fn(
		asm.Imm{Out: asm.RAX, Value: 1},
		asm.Imm{Out: asm.RAX, Value: 2},
		asm.Imm{Out: asm.RAX, Value: 3},
		asm.Ret{},
	))
	assert.ErrorIs(t, err, ErrStepLimit)
}
