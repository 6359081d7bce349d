package lex

import (
	"context"

	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/calc/compiler/diag"
)

type (
	Kind int

	// Token is a classified span of the source text.
	// Val is set for Num tokens only.
	Token struct {
		Kind Kind
		Pos  int
		End  int
		Val  int64
	}
)

const (
	Num Kind = iota
	Ident
	Punct
	EOF
)

var puncts2 = []string{"==", "!=", "<=", ">="}

func Tokenize(ctx context.Context, b []byte) (toks []Token, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "tokenize", "size", len(b))
	defer tr.Finish("err", &err)

	for i := 0; i < len(b); {
		c := b[i]

		switch {
		case isSpace(c):
			i++
		case c >= '0' && c <= '9':
			st := i
			var v int64

			for i < len(b) && b[i] >= '0' && b[i] <= '9' {
				v = v*10 + int64(b[i]-'0')
				i++
			}

			toks = append(toks, Token{Kind: Num, Pos: st, End: i, Val: v})
		case isIdentStart(c):
			st := i
			i = skipIdent(b, i+1)

			toks = append(toks, Token{Kind: Ident, Pos: st, End: i})
		default:
			n := punctLen(b, i)
			if n == 0 {
				return nil, diag.At(diag.Lexical, i, "invalid token")
			}

			toks = append(toks, Token{Kind: Punct, Pos: i, End: i + n})
			i += n
		}
	}

	toks = append(toks, Token{Kind: EOF, Pos: len(b), End: len(b)})

	if tr.If("tokens") {
		for i, t := range toks {
			tr.Printw("token", "i", i, "tok", t, "text", t.Text(b))
		}
	}

	return toks, nil
}

func (t Token) Text(b []byte) []byte {
	return b[t.Pos:t.End]
}

// Is reports whether t is the punctuator p.
func (t Token) Is(b []byte, p string) bool {
	return t.Kind == Punct && string(b[t.Pos:t.End]) == p
}

func (t Token) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)

	b = e.AppendString(b, "kind")
	b = e.AppendString(b, t.Kind.String())
	b = e.AppendKeyInt(b, "pos", t.Pos)
	b = e.AppendKeyInt(b, "end", t.End)
	b = e.AppendKeyInt(b, "val", int(t.Val))

	return b
}

func (k Kind) String() string {
	switch k {
	case Num:
		return "num"
	case Ident:
		return "ident"
	case Punct:
		return "punct"
	case EOF:
		return "eof"
	default:
		return "unknown"
	}
}

func punctLen(b []byte, i int) int {
	for _, p := range puncts2 {
		if i+len(p) <= len(b) && string(b[i:i+len(p)]) == p {
			return len(p)
		}
	}

	if isPunct(b[i]) {
		return 1
	}

	return 0
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}

	return false
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isPunct(c byte) bool {
	return c >= '!' && c <= '/' || c >= ':' && c <= '@' || c >= '[' && c <= '`' || c >= '{' && c <= '~'
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (b[i] >= 'a' && b[i] <= 'z' || b[i] >= 'A' && b[i] <= 'Z' || b[i] >= '0' && b[i] <= '9' || b[i] == '_') {
		i++
	}

	return i
}
