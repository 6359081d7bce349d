package compiler

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/calc/compiler/analyze"
	"github.com/slowlang/calc/compiler/asm"
	"github.com/slowlang/calc/compiler/ast"
	"github.com/slowlang/calc/compiler/back"
	"github.com/slowlang/calc/compiler/emu"
	"github.com/slowlang/calc/compiler/format"
	"github.com/slowlang/calc/compiler/lex"
	"github.com/slowlang/calc/compiler/parse"
)

// Compile translates program text into assembly text.
func Compile(ctx context.Context, text []byte) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "size", len(text))
	defer tr.Finish("err", &err)

	p, err := Parse(ctx, text)
	if err != nil {
		return nil, err
	}

	obj, err = back.New().Compile(ctx, nil, p)
	if err != nil {
		return nil, errors.Wrap(err, "compile")
	}

	return obj, nil
}

func Tokenize(ctx context.Context, text []byte) ([]lex.Token, error) {
	toks, err := lex.Tokenize(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "tokenize")
	}

	return toks, nil
}

// Parse returns the checked syntax tree of text.
func Parse(ctx context.Context, text []byte) (*ast.Prog, error) {
	toks, err := Tokenize(ctx, text)
	if err != nil {
		return nil, err
	}

	p, err := parse.Parse(ctx, text, toks)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	err = analyze.Check(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	return p, nil
}

func Generate(ctx context.Context, text []byte) (*asm.Func, error) {
	p, err := Parse(ctx, text)
	if err != nil {
		return nil, err
	}

	f, err := back.New().Generate(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	return f, nil
}

// Run compiles text and executes the result on the emulator.
func Run(ctx context.Context, text []byte) (emu.Result, error) {
	f, err := Generate(ctx, text)
	if err != nil {
		return emu.Result{}, err
	}

	res, err := emu.Run(ctx, f)
	if err != nil {
		return res, errors.Wrap(err, "run")
	}

	return res, nil
}

// FormatAST returns the fully parenthesized form of the program.
func FormatAST(ctx context.Context, text []byte) ([]byte, error) {
	p, err := Parse(ctx, text)
	if err != nil {
		return nil, err
	}

	return format.Prog(nil, p)
}

// FormatTokens lists tokens one per line.
func FormatTokens(ctx context.Context, text []byte) (b []byte, err error) {
	toks, err := Tokenize(ctx, text)
	if err != nil {
		return nil, err
	}

	for _, t := range toks {
		b = append(b, t.Kind.String()...)

		if t.Kind != lex.EOF {
			b = append(b, ' ')
			b = append(b, t.Text(text)...)
		}

		b = append(b, '\n')
	}

	return b, nil
}
