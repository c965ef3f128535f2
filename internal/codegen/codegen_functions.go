package codegen

import (
	"fmt"
	"strings"

	"lcl/internal/diag"
	"lcl/internal/token"
)

func (cg *CodeGen) inHeader() bool {
	return cg.state == stateCapturing && cg.capture.Initializing()
}

func (cg *CodeGen) openFunction(tok token.Token) error {
	if cg.state == stateCapturing {
		return diag.Errorf(diag.StructuralError, tok, "nested `%s` inside function %q", keywordOf(tok.Kind), cg.capture.Name())
	}
	cg.capture = NewFunctionCapture(tok.Loc, tok.Kind == token.INLINE)
	cg.state = stateCapturing
	// Blocks opened before the definition are not visible inside it.
	cg.outer, cg.markers = cg.markers, nil
	return nil
}

// generateHeaderToken handles the tokens between `fn`/`inline` and `do`:
// the function name followed by its locals.
func (cg *CodeGen) generateHeaderToken(tok token.Token) error {
	c := cg.capture

	switch tok.Kind {
	case token.IDENT:
		name := tok.Literal
		if _, reserved := token.StackWord(name); reserved {
			break // rejected below, like a lexed stack word
		}
		if !c.HasName() {
			if prev, exists := cg.functions[name]; exists {
				return diag.Errorf(diag.Redefinition, tok, "function %q is already defined at %s", name, prev.Loc)
			}
			c.SetName(name)
			return nil
		}
		if _, ok := c.AddLocal(name); !ok {
			return diag.Errorf(diag.Redefinition, tok, "local %q is declared twice in function %q", name, c.Name())
		}
		return nil

	case token.DO:
		if !c.HasName() {
			return diag.Errorf(diag.StructuralError, tok, "function definition has no name")
		}
		c.BeginBody()
		return nil

	case token.END:
		if !c.HasName() {
			return diag.Errorf(diag.StructuralError, tok, "function definition has no name")
		}
		return diag.Errorf(diag.StructuralError, tok, "function %q is missing `do`", c.Name())
	}

	if c.HasName() {
		return diag.Errorf(diag.StructuralError, tok, "unexpected %q in header of function %q", tok.Literal, c.Name())
	}
	return diag.Errorf(diag.StructuralError, tok, "unexpected %q in function header", tok.Literal)
}

func (cg *CodeGen) closeFunction(tok token.Token) error {
	c := cg.capture

	sym := ""
	if !c.Inline() {
		sym = cg.symbolFor(c.Name())
	}
	def := c.Finalize(sym)
	cg.functions[def.Name] = def
	cg.order = append(cg.order, def.Name)

	cg.logger.Debug().
		Str("function", def.Name).
		Str("symbol", def.Symbol).
		Bool("inline", def.Inline).
		Bool("returning", def.Returning).
		Int("frame", def.FrameSize).
		Stringer("loc", tok.Loc).
		Msg("function compiled")

	cg.capture = nil
	cg.state = stateIdle
	cg.markers, cg.outer = cg.outer, nil
	return nil
}

func (cg *CodeGen) generateIdentifier(tok token.Token) error {
	name := tok.Literal
	if kind, ok := token.StackWord(name); ok {
		return cg.emit(tok, stackWord(kind))
	}

	if cg.state == stateCapturing {
		if off, ok := cg.capture.Local(name); ok {
			return cg.emit(tok, effect(0, 1, op("pushq %d(%%rbp)", off)))
		}
		if name == cg.capture.Name() {
			return diag.Errorf(diag.UndefinedSymbol, tok, "recursive call to %q is not supported", name)
		}
	}

	def, ok := cg.functions[name]
	if !ok {
		return diag.Errorf(diag.UndefinedSymbol, tok, "%s is not defined", name)
	}

	if def.Inline {
		code := make(fragment, 0, len(def.Code)+1)
		code = append(code, comment("inline %s", name))
		code = append(code, def.Code.relabel(cg.newLabel)...)
		return cg.emit(tok, emission{code: code, delta: def.delta, low: def.low})
	}

	code := fragment{op("call %s", def.Symbol)}
	if def.FrameSize > 0 {
		code = append(code, op("add $%d, %%rsp", def.FrameSize))
	}
	pushes := 0
	if def.Returning {
		code = append(code, op("push %%rax"))
		pushes = 1
	}
	return cg.emit(tok, effect(def.FrameSize/slotSize, pushes, code...))
}

// symbolFor derives a unique assembler symbol for a function name.
func (cg *CodeGen) symbolFor(name string) string {
	base := "fn_" + sanitize(name)
	sym := base
	for n := 1; cg.symbols[sym]; n++ {
		sym = fmt.Sprintf("%s_%d", base, n)
	}
	cg.symbols[sym] = true
	return sym
}

func sanitize(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
