package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"
)

func TestReport(t *testing.T) {
	testData := []struct {
		src string
		err error
		exp string
	}{
		{
			src: "1+*2;",
			err: At(Syntax, 2, "expected an expression"),
			exp: "1+*2;\n  ^ expected an expression\n",
		},
		{
			src: "1 $ 2;",
			err: errors.Wrap(At(Lexical, 2, "invalid token"), "tokenize"),
			exp: "1 $ 2;\n  ^ invalid token\n",
		},
		{
			src: "a=1;\nb=(2;\nc;",
			err: At(Syntax, 9, "expected ')'"),
			exp: "b=(2;\n    ^ expected ')'\n",
		},
		{
			src: "1",
			err: At(Syntax, 1, "expected ';'"),
			exp: "1\n ^ expected ';'\n",
		},
		{
			src: "",
			err: New(InvalidArgument, "%s: invalid number of arguments", "calc"),
			exp: "calc: invalid number of arguments\n",
		},
		{
			src: "x",
			err: errors.New("some failure"),
			exp: "some failure\n",
		},
	}

	for _, d := range testData {
		var buf bytes.Buffer

		err := Report(&buf, []byte(d.src), d.err)
		require.NoError(t, err)
		assert.Equal(t, d.exp, buf.String(), "src %q", d.src)
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "syntax error at offset 3: expected ';'", At(Syntax, 3, "expected ';'").Error())
	assert.Equal(t, "invalid argument: bad", New(InvalidArgument, "bad").Error())
	assert.False(t, New(Lexical, "x").Located())
	assert.True(t, At(Lexical, 0, "x").Located())
}
