package codegen

import (
	"lcl/internal/token"
)

const (
	// slotSize is the width of one local/argument slot in bytes.
	slotSize = 8
	// frameBase is the offset below the first slot: the return address sits at 8(%rbp).
	frameBase = 8
)

// FunctionDef is a completed entry of the function table.
type FunctionDef struct {
	Name      string
	Symbol    string // assembler symbol, empty for inline functions
	Code      fragment
	FrameSize int // bytes of arguments the caller removes after the call
	Returning bool
	Inline    bool
	Loc       token.Location

	// Operand stack effect of an inline expansion.
	delta int
	low   int
}

// FunctionCapture accumulates one function definition while the generator
// walks its tokens: first the header (name, then locals) and, after `do`,
// the body.
type FunctionCapture struct {
	Loc token.Location

	name         string
	named        bool
	locals       map[string]int
	offset       int
	body         body
	initializing bool
	inline       bool
	returning    bool
}

// NewFunctionCapture starts a capture in its header phase.
func NewFunctionCapture(loc token.Location, inline bool) *FunctionCapture {
	return &FunctionCapture{
		Loc:          loc,
		locals:       make(map[string]int),
		offset:       frameBase,
		initializing: true,
		inline:       inline,
	}
}

func (c *FunctionCapture) SetName(name string) {
	c.name = name
	c.named = true
}

func (c *FunctionCapture) HasName() bool { return c.named }
func (c *FunctionCapture) Name() string  { return c.name }
func (c *FunctionCapture) Inline() bool  { return c.inline }

// Initializing reports whether the header is still open (no `do` seen yet).
func (c *FunctionCapture) Initializing() bool { return c.initializing }

// BeginBody closes the header; further tokens are body code.
func (c *FunctionCapture) BeginBody() { c.initializing = false }

// AddLocal allocates the next frame slot for name. It reports false if the
// name is already declared or the header is closed.
func (c *FunctionCapture) AddLocal(name string) (int, bool) {
	if !c.initializing {
		return 0, false
	}
	if _, exists := c.locals[name]; exists {
		return 0, false
	}
	c.offset += slotSize
	c.locals[name] = c.offset
	return c.offset, true
}

// Local returns the %rbp-relative offset of a declared local.
func (c *FunctionCapture) Local(name string) (int, bool) {
	off, ok := c.locals[name]
	return off, ok
}

// LastOffset is the number of argument bytes the function's frame spans.
func (c *FunctionCapture) LastOffset() int {
	return c.offset - frameBase
}

// Depth is the modelled operand stack depth of the body so far.
func (c *FunctionCapture) Depth() int { return c.body.depth }

// Append adds one emission to the body. For a callable function it reports
// false when the emission would pop below the function's own frame.
func (c *FunctionCapture) Append(e emission) bool {
	if !c.inline && c.body.depth+e.low < 0 {
		return false
	}
	c.body.append(e)
	return true
}

// Finalize turns the capture into a table entry. Callable functions get a
// frame prologue and epilogue; a body that leaves values behind returns its
// top value in %rax.
func (c *FunctionCapture) Finalize(sym string) *FunctionDef {
	def := &FunctionDef{
		Name:      c.name,
		FrameSize: c.LastOffset(),
		Inline:    c.inline,
		Loc:       c.Loc,
		delta:     c.body.depth,
		low:       c.body.low,
	}
	if c.inline {
		def.Code = append(fragment(nil), c.body.code...)
		return def
	}

	c.returning = c.body.depth > 0
	code := make(fragment, 0, len(c.body.code)+8)
	code = append(code,
		symbol(sym),
		op("push %%rbp"),
		op("mov %%rsp, %%rbp"),
	)
	code = append(code, c.body.code...)
	if c.returning {
		code = append(code, op("pop %%rax"))
	}
	code = append(code,
		op("mov %%rbp, %%rsp"),
		op("pop %%rbp"),
		op("ret"),
	)

	def.Symbol = sym
	def.Code = code
	def.Returning = c.returning
	return def
}
