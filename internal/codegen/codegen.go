package codegen

import (
	"github.com/rs/zerolog"

	"lcl/internal/diag"
	"lcl/internal/token"
)

// DefaultMemCapacity is the number of 8-byte cells in the scratch memory block.
const DefaultMemCapacity = 262144

// Options configures a CodeGen.
type Options struct {
	MemCapacity int
	Logger      zerolog.Logger
}

type genState int

const (
	stateIdle genState = iota
	stateCapturing
)

// CodeGen translates a token stream to x86-64 assembly in a single pass
type CodeGen struct {
	opts   Options
	logger zerolog.Logger

	labelCount int
	markers    []blockMarker
	outer      []blockMarker // markers open around the current definition
	state      genState
	capture    *FunctionCapture // set iff state == stateCapturing
	functions  map[string]*FunctionDef
	order      []string // definition order, for stable output
	symbols    map[string]bool
	main       body
}

// New creates a new code generator
func New(opts Options) *CodeGen {
	if opts.MemCapacity <= 0 {
		opts.MemCapacity = DefaultMemCapacity
	}
	return &CodeGen{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "codegen").Logger(),
	}
}

func (cg *CodeGen) reset() {
	cg.labelCount = 0
	cg.markers = nil
	cg.outer = nil
	cg.state = stateIdle
	cg.capture = nil
	cg.functions = make(map[string]*FunctionDef)
	cg.order = nil
	cg.symbols = make(map[string]bool)
	cg.main = body{}
}

// Generate produces the complete assembly file for a program. The first
// error aborts translation; no partial output is returned.
func (cg *CodeGen) Generate(tokens []token.Token) (string, error) {
	cg.reset()

	for idx, tok := range tokens {
		if tok.Kind == token.EOF {
			break
		}
		if err := cg.generateToken(idx, tok); err != nil {
			return "", err
		}
	}

	if n := len(cg.markers); n > 0 {
		m := cg.markers[n-1]
		return "", diag.At(diag.StructuralError, m.loc, "unterminated `%s` block", keywordOf(m.kind))
	}
	if cg.state == stateCapturing {
		c := cg.capture
		if c.HasName() {
			return "", diag.At(diag.StructuralError, c.Loc, "unterminated function %q", c.Name())
		}
		return "", diag.At(diag.StructuralError, c.Loc, "unterminated function definition")
	}

	return cg.assemble(), nil
}

// Function returns a completed definition from the function table.
func (cg *CodeGen) Function(name string) (*FunctionDef, bool) {
	def, ok := cg.functions[name]
	return def, ok
}

func (cg *CodeGen) generateToken(idx int, tok token.Token) error {
	if cg.inHeader() {
		return cg.generateHeaderToken(tok)
	}

	switch tok.Kind {
	case token.IF:
		return cg.generateIf(idx, tok)
	case token.ELSE:
		return cg.generateElse(idx, tok)
	case token.WHILE:
		return cg.generateWhile(idx, tok)
	case token.DO:
		return cg.generateDo(tok)
	case token.END:
		return cg.generateEnd(tok)
	case token.FUNCTION, token.INLINE:
		return cg.openFunction(tok)
	case token.IDENT:
		return cg.generateIdentifier(tok)
	}

	e, err := cg.operation(tok)
	if err != nil {
		return err
	}
	return cg.emit(tok, e)
}

// emit routes generated code to the open function body, or to the program
// entry body when no function is being captured.
func (cg *CodeGen) emit(tok token.Token, e emission) error {
	if cg.state == stateCapturing {
		if !cg.capture.Append(e) {
			return diag.Errorf(diag.StructuralError, tok, "function %q pops below its own frame", cg.capture.Name())
		}
		return nil
	}
	cg.main.append(e)
	return nil
}

// target is the body whose depth model block markers adjust.
func (cg *CodeGen) target() *body {
	if cg.state == stateCapturing {
		return &cg.capture.body
	}
	return &cg.main
}

func (cg *CodeGen) newLabel() label {
	cg.labelCount++
	return label(cg.labelCount)
}

func keywordOf(kind token.Kind) string {
	switch kind {
	case token.IF:
		return "if"
	case token.ELSE:
		return "else"
	case token.WHILE:
		return "while"
	case token.DO:
		return "do"
	case token.END:
		return "end"
	case token.FUNCTION:
		return "fn"
	case token.INLINE:
		return "inline"
	default:
		return string(kind)
	}
}
