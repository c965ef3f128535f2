package codegen

import (
	"lcl/internal/diag"
	"lcl/internal/token"
)

// blockMarker records an open if/else/while so that `else`, `do` and `end`
// can resolve the labels it reserved.
type blockMarker struct {
	index     int // token index of the opening keyword
	kind      token.Kind
	loc       token.Location
	end       label
	loop      label // while only
	depth     int   // stack depth when the block's code starts
	thenDepth int   // else only: depth left by the true branch
	sawDo     bool  // while only
}

func (cg *CodeGen) pushMarker(m blockMarker) {
	cg.markers = append(cg.markers, m)
}

func (cg *CodeGen) topMarker() (*blockMarker, bool) {
	if len(cg.markers) == 0 {
		return nil, false
	}
	return &cg.markers[len(cg.markers)-1], true
}

func (cg *CodeGen) popMarker() (blockMarker, bool) {
	n := len(cg.markers)
	if n == 0 {
		return blockMarker{}, false
	}
	m := cg.markers[n-1]
	cg.markers = cg.markers[:n-1]
	return m, true
}

func (cg *CodeGen) generateIf(idx int, tok token.Token) error {
	end := cg.newLabel()
	err := cg.emit(tok, effect(1, 0,
		comment("if"),
		op("pop %%rax"),
		op("test %%rax, %%rax"),
		jump("jz", end),
	))
	if err != nil {
		return err
	}
	cg.pushMarker(blockMarker{index: idx, kind: token.IF, loc: tok.Loc, end: end, depth: cg.target().depth})
	return nil
}

func (cg *CodeGen) generateElse(idx int, tok token.Token) error {
	m, ok := cg.topMarker()
	if !ok || (m.kind != token.IF && m.kind != token.ELSE) {
		return diag.Errorf(diag.StructuralError, tok, "unexpected `else`")
	}

	end := cg.newLabel()
	if err := cg.emit(tok, effect(0, 0,
		comment("else"),
		jump("jmp", end),
		mark(m.end),
	)); err != nil {
		return err
	}

	b := cg.target()
	*m = blockMarker{
		index:     idx,
		kind:      token.ELSE,
		loc:       tok.Loc,
		end:       end,
		depth:     m.depth,
		thenDepth: b.depth,
	}
	b.depth = m.depth
	return nil
}

func (cg *CodeGen) generateWhile(idx int, tok token.Token) error {
	loop, end := cg.newLabel(), cg.newLabel()
	if err := cg.emit(tok, effect(0, 0,
		comment("while"),
		mark(loop),
	)); err != nil {
		return err
	}
	cg.pushMarker(blockMarker{index: idx, kind: token.WHILE, loc: tok.Loc, end: end, loop: loop, depth: cg.target().depth})
	return nil
}

// generateDo handles `do` outside a function header: it ends a loop
// condition. The header case is handled by generateHeaderToken.
func (cg *CodeGen) generateDo(tok token.Token) error {
	m, ok := cg.topMarker()
	if !ok || m.kind != token.WHILE || m.sawDo {
		return diag.Errorf(diag.StructuralError, tok, "unexpected `do`")
	}
	if err := cg.emit(tok, effect(1, 0,
		comment("do"),
		op("pop %%rax"),
		op("test %%rax, %%rax"),
		jump("jz", m.end),
	)); err != nil {
		return err
	}
	m.sawDo = true
	m.depth = cg.target().depth
	return nil
}

func (cg *CodeGen) generateEnd(tok token.Token) error {
	m, ok := cg.popMarker()
	if !ok {
		if cg.state == stateCapturing {
			return cg.closeFunction(tok)
		}
		return diag.Errorf(diag.StructuralError, tok, "unexpected `end`")
	}

	b := cg.target()
	switch m.kind {
	case token.WHILE:
		if !m.sawDo {
			return diag.At(diag.StructuralError, m.loc, "`while` loop is missing its `do`")
		}
		if err := cg.emit(tok, effect(0, 0,
			comment("end while"),
			jump("jmp", m.loop),
			mark(m.end),
		)); err != nil {
			return err
		}
		b.depth = m.depth
	case token.ELSE:
		if err := cg.emit(tok, effect(0, 0, mark(m.end))); err != nil {
			return err
		}
		b.depth = max(b.depth, m.thenDepth)
	default:
		if err := cg.emit(tok, effect(0, 0, mark(m.end))); err != nil {
			return err
		}
		b.depth = max(b.depth, m.depth)
	}
	return nil
}
