package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/calc/compiler"
	"github.com/slowlang/calc/compiler/diag"
	"github.com/slowlang/calc/compiler/emu"
)

func main() {
	app := &cli.Command{
		Name:        "calc",
		Description: "calc compiles an expression program given as the only argument into x86-64 assembly",
		Before:      before,
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("emit", "asm", "what to output: asm, tokens, ast, run"),
			cli.NewFlag("output,o", "-", "output file"),
			cli.NewFlag("log", "", "log destination: stderr or a file name, none if empty"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	var w io.Writer = io.Discard

	switch dst := c.String("log"); dst {
	case "":
	case "stderr":
		w = tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags)
	default:
		f, err := os.Create(dst)
		if err != nil {
			return errors.Wrap(err, "open log")
		}

		w = tlog.NewConsoleWriter(f, tlog.LstdFlags)
	}

	tlog.DefaultLogger = tlog.New(w)
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func compileAct(c *cli.Command) (err error) {
	text, err := programArg(c.Name, c.Args)
	if err != nil {
		fail(nil, err)
	}

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	var out []byte

	switch emit := c.String("emit"); emit {
	case "asm":
		out, err = compiler.Compile(ctx, text)
	case "tokens":
		out, err = compiler.FormatTokens(ctx, text)
	case "ast":
		out, err = compiler.FormatAST(ctx, text)
	case "run":
		var res emu.Result

		res, err = compiler.Run(ctx, text)
		out = fmt.Appendf(nil, "%d\n", res.Value)
	default:
		fail(nil, diag.New(diag.InvalidArgument, "unsupported emit mode: %q", emit))
	}

	if err != nil {
		fail(text, err)
	}

	return write(c.String("output"), out)
}

// programArg returns the program text, which is the only positional argument.
func programArg(name string, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, diag.New(diag.InvalidArgument, "%s: invalid number of arguments", name)
	}

	return []byte(args[0]), nil
}

func write(name string, b []byte) (err error) {
	if name == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}

	err = os.WriteFile(name, b, 0o644)
	if err != nil {
		return errors.Wrap(err, "write output")
	}

	return nil
}

// fail reports err to stderr and exits.
func fail(text []byte, err error) {
	tlog.Printw("compilation failed", "err", err)

	diag.Report(os.Stderr, text, err)

	os.Exit(1)
}
