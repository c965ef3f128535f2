package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"lcl/internal/token"
)

// Kind classifies a diagnostic.
type Kind int

const (
	SyntaxError Kind = iota
	StructuralError
	UndefinedSymbol
	InvalidOperand
	Unimplemented
	Redefinition
	ToolchainError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case StructuralError:
		return "StructuralError"
	case UndefinedSymbol:
		return "UndefinedSymbol"
	case InvalidOperand:
		return "InvalidOperand"
	case Unimplemented:
		return "Unimplemented"
	case Redefinition:
		return "Redefinition"
	case ToolchainError:
		return "ToolchainError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// CodeError is a fatal diagnostic. Context is the offending source word, if any.
type CodeError struct {
	Kind    Kind
	Message string
	Context string
	Loc     token.Location
}

func (e *CodeError) Error() string {
	if e.Loc.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s at %s", e.Kind, e.Message, e.Loc)
}

// Errorf builds a CodeError anchored at tok.
func Errorf(kind Kind, tok token.Token, format string, args ...interface{}) *CodeError {
	return &CodeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Context: tok.Literal,
		Loc:     tok.Loc,
	}
}

// At builds a CodeError anchored at a bare location.
func At(kind Kind, loc token.Location, format string, args ...interface{}) *CodeError {
	return &CodeError{Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// IsKind reports whether err wraps a CodeError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *CodeError
	return errors.As(err, &ce) && ce.Kind == kind
}

// SourceLine returns the 1-based row of source without its line terminator.
func SourceLine(source string, row int) (string, bool) {
	if row <= 0 {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if row > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[row-1], "\r"), true
}

// Render writes err the way the CLI shows it:
//
//	StructuralError: unexpected `end`
//	  --> prog.lcl:3:5
//	   |
//	 3 | 1 2 end
//	   |     ^
//
// Errors that are not CodeErrors are written as a single line. Colors follow the
// profile of out; pass termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii)) to disable them.
func Render(out *termenv.Output, source string, err error) {
	var ce *CodeError
	if !errors.As(err, &ce) {
		fmt.Fprintln(out, out.String("error:").Foreground(out.Color("1")).Bold(), err)
		return
	}

	head := out.String(ce.Kind.String() + ":").Foreground(out.Color("1")).Bold()
	fmt.Fprintf(out, "%s %s\n", head, ce.Message)
	if ce.Loc.IsZero() {
		return
	}

	arrow := out.String("-->").Foreground(out.Color("4"))
	fmt.Fprintf(out, "  %s %s\n", arrow, ce.Loc)

	line, ok := SourceLine(source, ce.Loc.Row)
	if !ok {
		if ce.Context != "" {
			fmt.Fprintf(out, "  context: %s\n", ce.Context)
		}
		return
	}

	gutter := fmt.Sprintf("%d", ce.Loc.Row)
	pad := strings.Repeat(" ", len(gutter))
	bar := out.String("|").Foreground(out.Color("4"))
	width := len(ce.Context)
	if width == 0 {
		width = 1
	}
	caret := out.String(strings.Repeat("^", width)).Foreground(out.Color("1"))
	col := ce.Loc.Col - 1
	if col < 0 {
		col = 0
	}

	fmt.Fprintf(out, " %s %s\n", pad, bar)
	fmt.Fprintf(out, " %s %s %s\n", gutter, bar, line)
	fmt.Fprintf(out, " %s %s %s%s\n", pad, bar, strings.Repeat(" ", col), caret)
}

// NewOutput returns a termenv output for w, forcing plain text when color is false.
func NewOutput(w io.Writer, color bool) *termenv.Output {
	if !color {
		return termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	}
	return termenv.NewOutput(w)
}
