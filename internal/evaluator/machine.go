// Package evaluator runs programs one line at a time without compiling them.
// Only straight-line code is supported: literals, arithmetic, comparisons,
// printing, stack words and the scratch memory.
package evaluator

import (
	"errors"
	"fmt"
	"io"

	"lcl/internal/diag"
	"lcl/internal/token"
)

var (
	ErrStackUnderflow = errors.New("stack is empty")
	ErrBadAddress     = errors.New("address out of range")
)

// Machine holds the value stack and scratch memory. Both persist across
// calls to Eval. Addresses are byte offsets from `mem`, like in compiled
// programs, and must be 8-byte aligned.
type Machine struct {
	stack  []int64
	memory []int64
	out    io.Writer
}

func NewMachine(capacity int, out io.Writer) *Machine {
	return &Machine{memory: make([]int64, capacity), out: out}
}

// Stack returns a copy of the value stack, bottom first.
func (m *Machine) Stack() []int64 {
	return append([]int64(nil), m.stack...)
}

// Eval runs tokens in order and stops at the first failing one.
func (m *Machine) Eval(tokens []token.Token) error {
	for _, tok := range tokens {
		if err := m.step(tok); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) push(v int64) { m.stack = append(m.stack, v) }

func (m *Machine) pop(tok token.Token) (int64, error) {
	n := len(m.stack)
	if n == 0 {
		return 0, fmt.Errorf("%s: %s: %w", tok.Loc, tok.Literal, ErrStackUnderflow)
	}
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v, nil
}

// popN pops n values and returns them bottom first.
func (m *Machine) popN(tok token.Token, n int) ([]int64, error) {
	if len(m.stack) < n {
		return nil, fmt.Errorf("%s: %s: %w", tok.Loc, tok.Literal, ErrStackUnderflow)
	}
	vals := append([]int64(nil), m.stack[len(m.stack)-n:]...)
	m.stack = m.stack[:len(m.stack)-n]
	return vals, nil
}

func (m *Machine) cell(tok token.Token, addr int64) (int, error) {
	if addr < 0 || addr%8 != 0 || addr/8 >= int64(len(m.memory)) {
		return 0, fmt.Errorf("%s: %d: %w", tok.Loc, addr, ErrBadAddress)
	}
	return int(addr / 8), nil
}

func (m *Machine) step(tok token.Token) error {
	switch tok.Kind {
	case token.PLUS, token.MINUS, token.LT, token.GT, token.EQ, token.NOT_EQ:
		v, err := m.popN(tok, 2)
		if err != nil {
			return err
		}
		m.push(binary(tok.Kind, v[0], v[1]))
	case token.DOT:
		v, err := m.pop(tok)
		if err != nil {
			return err
		}
		fmt.Fprintln(m.out, v)
	case token.DUP:
		v, err := m.popN(tok, 1)
		if err != nil {
			return err
		}
		m.push(v[0])
		m.push(v[0])
	case token.DROP:
		_, err := m.pop(tok)
		return err
	case token.SWAP:
		v, err := m.popN(tok, 2)
		if err != nil {
			return err
		}
		m.push(v[1])
		m.push(v[0])
	case token.OVER:
		v, err := m.popN(tok, 2)
		if err != nil {
			return err
		}
		m.push(v[0])
		m.push(v[1])
		m.push(v[0])
	case token.ROT:
		v, err := m.popN(tok, 3)
		if err != nil {
			return err
		}
		m.push(v[1])
		m.push(v[2])
		m.push(v[0])
	case token.MEM:
		m.push(0)
	case token.PUSH:
		return m.load(tok)
	case token.POP:
		return m.store(tok)
	case token.ASTERISK, token.SLASH, token.PERCENT:
		return diag.Errorf(diag.Unimplemented, tok, "operator %s is not implemented", tok.Literal)
	case token.IDENT:
		return diag.Errorf(diag.Unimplemented, tok, "identifiers are not supported in the interactive shell")
	case token.IF, token.ELSE, token.END:
		return diag.Errorf(diag.Unimplemented, tok, "control flow is not supported in the interactive shell")
	case token.WHILE, token.DO:
		return diag.Errorf(diag.Unimplemented, tok, "loops are not supported in the interactive shell")
	case token.FUNCTION, token.INLINE:
		return diag.Errorf(diag.Unimplemented, tok, "functions are not supported in the interactive shell")
	default:
		return diag.Errorf(diag.SyntaxError, tok, "unexpected token %q", tok.Literal)
	}
	return nil
}

func (m *Machine) load(tok token.Token) error {
	switch tok.Target.Kind {
	case token.TargetInteger:
		m.push(tok.Target.Value)
		return nil
	case token.TargetMemory:
		addr, err := m.pop(tok)
		if err != nil {
			return err
		}
		idx, err := m.cell(tok, addr)
		if err != nil {
			return err
		}
		m.push(m.memory[idx])
		return nil
	}
	return diag.Errorf(diag.Unimplemented, tok, "registers are not available in the interactive shell")
}

func (m *Machine) store(tok token.Token) error {
	switch tok.Target.Kind {
	case token.TargetInteger:
		return diag.Errorf(diag.InvalidOperand, tok, "cannot store into the integer %d", tok.Target.Value)
	case token.TargetMemory:
		v, err := m.popN(tok, 2)
		if err != nil {
			return err
		}
		idx, err := m.cell(tok, v[0])
		if err != nil {
			return err
		}
		m.memory[idx] = v[1]
		return nil
	}
	return diag.Errorf(diag.Unimplemented, tok, "registers are not available in the interactive shell")
}

func binary(kind token.Kind, a, b int64) int64 {
	switch kind {
	case token.PLUS:
		return a + b
	case token.MINUS:
		return a - b
	case token.LT:
		return boolToInt(a < b)
	case token.GT:
		return boolToInt(a > b)
	case token.EQ:
		return boolToInt(a == b)
	default:
		return boolToInt(a != b)
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
