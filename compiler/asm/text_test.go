package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendInstr(t *testing.T) {
	testData := []struct {
		x   Instr
		exp string
	}{
		{x: Mark{Stmt: 3}, exp: "  # stmt 3\n"},
		{x: Imm{Out: RAX, Value: -5}, exp: "  mov $-5, %rax\n"},
		{x: Mov{Out: RBP, In: RSP}, exp: "  mov %rsp, %rbp\n"},
		{x: Lea{Out: RAX, Base: RBP, Off: -16}, exp: "  lea -16(%rbp), %rax\n"},
		{x: Load{Out: RAX, Addr: RAX}, exp: "  mov (%rax), %rax\n"},
		{x: Store{Addr: RDI, In: RAX}, exp: "  mov %rax, (%rdi)\n"},
		{x: Push{In: RAX}, exp: "  push %rax\n"},
		{x: Pop{Out: RDI}, exp: "  pop %rdi\n"},
		{x: Add{Out: RAX, In: RDI}, exp: "  add %rdi, %rax\n"},
		{x: Sub{Out: RAX, In: RDI}, exp: "  sub %rdi, %rax\n"},
		{x: SubImm{Out: RSP, Value: 32}, exp: "  sub $32, %rsp\n"},
		{x: Imul{Out: RAX, In: RDI}, exp: "  imul %rdi, %rax\n"},
		{x: Neg{Out: RAX}, exp: "  neg %rax\n"},
		{x: Cqo{}, exp: "  cqo\n"},
		{x: Idiv{In: RDI}, exp: "  idiv %rdi\n"},
		{x: Cmp{Left: RAX, Right: RDI}, exp: "  cmp %rdi, %rax\n"},
		{x: Set{Cond: LE, Out: RAX}, exp: "  setle %al\n"},
		{x: Movzb{Out: RAX, In: RAX}, exp: "  movzb %al, %rax\n"},
		{x: Ret{}, exp: "  ret\n"},
	}

	for _, d := range testData {
		b, err := AppendInstr(nil, d.x)
		require.NoError(t, err, "%T", d.x)
		assert.Equal(t, d.exp, string(b), "%T", d.x)
	}

	_, err := AppendInstr(nil, 5)
	assert.Error(t, err)
}

func TestAppend(t *testing.T) {
	b, err := Append([]byte("# prefix\n"), &Func{
		Name: "main",
		Body: []Instr{Imm{Out: RAX, Value: 1}, Ret{}},
	})
	require.NoError(t, err)

	assert.Equal(t, "# prefix\n  .globl main\nmain:\n  mov $1, %rax\n  ret\n", string(b))

	_, err = Append(nil, &Func{Name: "main", Body: []Instr{"bad"}})
	assert.Error(t, err)
}
