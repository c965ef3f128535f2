package codegen

import (
	"math"

	"lcl/internal/diag"
	"lcl/internal/token"
)

// registers maps the logical registers r1..r4 to callee-saved machine
// registers, which print_int and the syscalls leave intact.
var registers = map[int64]string{
	1: "%r12",
	2: "%r13",
	3: "%r14",
	4: "%r15",
}

var setcc = map[token.Kind]string{
	token.LT:     "setl",
	token.GT:     "setg",
	token.EQ:     "sete",
	token.NOT_EQ: "setne",
}

// operation translates every token that is not a block keyword, a function
// marker or an identifier.
func (cg *CodeGen) operation(tok token.Token) (emission, error) {
	switch tok.Kind {
	case token.PLUS:
		return effect(2, 1,
			op("pop %%rax"),
			op("pop %%rbx"),
			op("add %%rax, %%rbx"),
			op("push %%rbx"),
		), nil
	case token.MINUS:
		return effect(2, 1,
			op("pop %%rax"),
			op("pop %%rbx"),
			op("sub %%rax, %%rbx"),
			op("push %%rbx"),
		), nil
	case token.LT, token.GT, token.EQ, token.NOT_EQ:
		return effect(2, 1,
			op("pop %%rbx"),
			op("pop %%rax"),
			op("xor %%ecx, %%ecx"),
			op("cmp %%rbx, %%rax"),
			op("%s %%cl", setcc[tok.Kind]),
			op("push %%rcx"),
		), nil
	case token.ASTERISK, token.SLASH, token.PERCENT:
		return emission{}, diag.Errorf(diag.Unimplemented, tok, "operator %s is not implemented", tok.Literal)
	case token.DOT:
		return effect(1, 0,
			op("pop %%rax"),
			op("call print_int"),
		), nil
	case token.MEM:
		return effect(0, 1,
			op("lea mem(%%rip), %%rax"),
			op("push %%rax"),
		), nil
	case token.DUP, token.DROP, token.SWAP, token.OVER, token.ROT:
		return stackWord(tok.Kind), nil
	case token.PUSH:
		return cg.push(tok)
	case token.POP:
		return cg.pop(tok)
	}
	return emission{}, diag.Errorf(diag.SyntaxError, tok, "unexpected token %q", tok.Literal)
}

func stackWord(kind token.Kind) emission {
	switch kind {
	case token.DUP:
		return effect(1, 2,
			op("pop %%rax"),
			op("push %%rax"),
			op("push %%rax"),
		)
	case token.DROP:
		return effect(1, 0, op("add $8, %%rsp"))
	case token.SWAP:
		return effect(2, 2,
			op("pop %%rax"),
			op("pop %%rbx"),
			op("push %%rax"),
			op("push %%rbx"),
		)
	case token.OVER:
		return effect(2, 3,
			op("pop %%rax"),
			op("pop %%rbx"),
			op("push %%rbx"),
			op("push %%rax"),
			op("push %%rbx"),
		)
	default: // rot: a b c -- b c a
		return effect(3, 3,
			op("pop %%rcx"),
			op("pop %%rbx"),
			op("pop %%rax"),
			op("push %%rbx"),
			op("push %%rcx"),
			op("push %%rax"),
		)
	}
}

func (cg *CodeGen) push(tok token.Token) (emission, error) {
	switch tok.Target.Kind {
	case token.TargetInteger:
		return pushLiteral(tok.Target.Value), nil
	case token.TargetMemory:
		return effect(1, 1,
			op("pop %%rax"),
			op("pushq (%%rax)"),
		), nil
	}

	reg, err := register(tok)
	if err != nil {
		return emission{}, err
	}
	return effect(0, 1, op("push %s", reg)), nil
}

func (cg *CodeGen) pop(tok token.Token) (emission, error) {
	switch tok.Target.Kind {
	case token.TargetInteger:
		return emission{}, diag.Errorf(diag.InvalidOperand, tok, "cannot store into the integer %d", tok.Target.Value)
	case token.TargetMemory:
		return effect(2, 0,
			op("pop %%rax"),
			op("pop %%rbx"),
			op("mov %%rax, (%%rbx)"),
		), nil
	}

	reg, err := register(tok)
	if err != nil {
		return emission{}, err
	}
	return effect(1, 0, op("pop %s", reg)), nil
}

func pushLiteral(n int64) emission {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return effect(0, 1, op("pushq $%d", n))
	}
	return effect(0, 1,
		op("movabs $%d, %%rax", n),
		op("push %%rax"),
	)
}

func register(tok token.Token) (string, error) {
	reg, ok := registers[tok.Target.Value]
	if !ok {
		return "", diag.Errorf(diag.InvalidOperand, tok, "register r%d does not exist (r1 to r%d)", tok.Target.Value, len(registers))
	}
	return reg, nil
}
