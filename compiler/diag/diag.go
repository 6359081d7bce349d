package diag

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

type (
	Kind int

	// Error is a user facing compilation error.
	// Pos is a byte offset into the source text or NoPos.
	Error struct {
		Kind Kind
		Msg  string
		Pos  int
	}
)

const (
	InvalidArgument Kind = iota
	Lexical
	Syntax
)

const NoPos = -1

func New(k Kind, format string, args ...any) Error {
	return Error{
		Kind: k,
		Msg:  fmt.Sprintf(format, args...),
		Pos:  NoPos,
	}
}

func At(k Kind, pos int, format string, args ...any) Error {
	return Error{
		Kind: k,
		Msg:  fmt.Sprintf(format, args...),
		Pos:  pos,
	}
}

func (e Error) Located() bool { return e.Pos >= 0 }

func (e Error) Error() string {
	if !e.Located() {
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	}

	return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Pos, e.Msg)
}

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case Lexical:
		return "lexical error"
	case Syntax:
		return "syntax error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Report writes err to w.
// Located errors echo the source line containing the offset with a caret under it.
func Report(w io.Writer, src []byte, err error) error {
	_, err = w.Write(Append(nil, src, err))
	return err
}

func Append(b, src []byte, err error) []byte {
	var e Error
	if !errors.As(err, &e) {
		return hfmt.Appendf(b, "%v\n", err)
	}

	if !e.Located() || e.Pos > len(src) {
		return hfmt.Appendf(b, "%s\n", e.Msg)
	}

	st, end := line(src, e.Pos)

	b = append(b, src[st:end]...)
	b = append(b, '\n')
	b = hfmt.Appendf(b, "%*s^ %s\n", e.Pos-st, "", e.Msg)

	return b
}

func line(src []byte, pos int) (st, end int) {
	st = bytes.LastIndexByte(src[:pos], '\n') + 1

	end = bytes.IndexByte(src[pos:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += pos
	}

	return st, end
}
