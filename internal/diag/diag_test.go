package diag

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcl/internal/token"
)

func TestCodeErrorMessage(t *testing.T) {
	tok := token.Token{Kind: token.END, Literal: "end", Loc: token.Location{File: "f.lcl", Row: 2, Col: 3}}
	err := Errorf(StructuralError, tok, "unexpected `%s`", "end")

	assert.Equal(t, "StructuralError: unexpected `end` at f.lcl:2:3", err.Error())
	assert.Equal(t, "end", err.Context)

	plain := At(ToolchainError, token.Location{}, "assembler failed")
	assert.Equal(t, "ToolchainError: assembler failed", plain.Error())
}

func TestIsKindUnwraps(t *testing.T) {
	err := fmt.Errorf("compile: %w", At(UndefinedSymbol, token.Location{Row: 1, Col: 1}, "x is not defined"))

	assert.True(t, IsKind(err, UndefinedSymbol))
	assert.False(t, IsKind(err, SyntaxError))
	assert.False(t, IsKind(errors.New("plain"), UndefinedSymbol))
}

func TestKindString(t *testing.T) {
	kinds := []Kind{SyntaxError, StructuralError, UndefinedSymbol, InvalidOperand, Unimplemented, Redefinition, ToolchainError}
	seen := map[string]bool{}
	for _, k := range kinds {
		s := k.String()
		assert.NotContains(t, s, "Kind(")
		assert.False(t, seen[s], "duplicate name %s", s)
		seen[s] = true
	}
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestSourceLine(t *testing.T) {
	src := "1 2 +\r\n3 end\n"

	line, ok := SourceLine(src, 1)
	require.True(t, ok)
	assert.Equal(t, "1 2 +", line)

	line, ok = SourceLine(src, 2)
	require.True(t, ok)
	assert.Equal(t, "3 end", line)

	_, ok = SourceLine(src, 0)
	assert.False(t, ok)
	_, ok = SourceLine(src, 9)
	assert.False(t, ok)
}

func TestRenderPointsAtToken(t *testing.T) {
	src := "1 2 +\n3 end\n"
	tok := token.Token{Kind: token.END, Literal: "end", Loc: token.Location{File: "f.lcl", Row: 2, Col: 3}}

	var buf bytes.Buffer
	Render(NewOutput(&buf, false), src, Errorf(StructuralError, tok, "unexpected `end`"))

	out := buf.String()
	assert.Contains(t, out, "StructuralError: unexpected `end`")
	assert.Contains(t, out, "--> f.lcl:2:3")
	assert.Contains(t, out, " 2 | 3 end")
	assert.Contains(t, out, "   |   ^^^")
}

func TestRenderFallbacks(t *testing.T) {
	var buf bytes.Buffer
	Render(NewOutput(&buf, false), "", errors.New("boom"))
	assert.Equal(t, "error: boom\n", buf.String())

	buf.Reset()
	Render(NewOutput(&buf, false), "", At(ToolchainError, token.Location{}, "linker failed"))
	assert.Equal(t, "ToolchainError: linker failed\n", buf.String())

	buf.Reset()
	err := &CodeError{Kind: SyntaxError, Message: "invalid word", Context: "3x", Loc: token.Location{File: "f", Row: 7, Col: 1}}
	Render(NewOutput(&buf, false), "one line", err)
	assert.Contains(t, buf.String(), "context: 3x")
}
