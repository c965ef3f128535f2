package codegen

import (
	"fmt"
	"strings"
)

// label identifies a generated jump target. The zero label means "none".
type label int

func (l label) String() string {
	return fmt.Sprintf(".L%d", int(l))
}

type instrKind int

const (
	instrOp      instrKind = iota // text is a complete instruction
	instrJump                     // text is a mnemonic, target is appended
	instrLabel                    // defines target
	instrSymbol                   // defines text as a global-looking symbol
	instrComment                  // text is a comment
)

// instr is one line of generated assembly. Jump targets and label
// definitions are kept symbolic so a body can be renumbered when spliced.
type instr struct {
	kind   instrKind
	text   string
	target label
}

func op(format string, args ...interface{}) instr {
	return instr{kind: instrOp, text: fmt.Sprintf(format, args...)}
}

func jump(mnemonic string, target label) instr {
	return instr{kind: instrJump, text: mnemonic, target: target}
}

func mark(target label) instr {
	return instr{kind: instrLabel, target: target}
}

func symbol(name string) instr {
	return instr{kind: instrSymbol, text: name}
}

func comment(format string, args ...interface{}) instr {
	return instr{kind: instrComment, text: fmt.Sprintf(format, args...)}
}

// fragment is an ordered run of instructions.
type fragment []instr

func (f fragment) render(out *strings.Builder) {
	for _, in := range f {
		switch in.kind {
		case instrOp:
			out.WriteString("    ")
			out.WriteString(in.text)
		case instrJump:
			fmt.Fprintf(out, "    %s %s", in.text, in.target)
		case instrLabel:
			fmt.Fprintf(out, "%s:", in.target)
		case instrSymbol:
			fmt.Fprintf(out, "%s:", in.text)
		case instrComment:
			out.WriteString("    # ")
			out.WriteString(in.text)
		}
		out.WriteString("\n")
	}
}

// relabel returns a copy of f in which every label is replaced by a fresh one
// from next. References to the same label stay consistent within the copy.
func (f fragment) relabel(next func() label) fragment {
	fresh := make(map[label]label)
	out := make(fragment, len(f))
	for i, in := range f {
		if in.kind == instrJump || in.kind == instrLabel {
			l, ok := fresh[in.target]
			if !ok {
				l = next()
				fresh[in.target] = l
			}
			in.target = l
		}
		out[i] = in
	}
	return out
}

// emission is what a single rule produces: code plus its declared effect on
// the operand stack. low is the deepest point reached relative to the start
// (never positive), delta the net change once the code has run.
type emission struct {
	code  fragment
	delta int
	low   int
}

// effect builds an emission for code that pops some values, then pushes some.
func effect(pops, pushes int, code ...instr) emission {
	return emission{code: code, delta: pushes - pops, low: -pops}
}

// body accumulates emissions and models the operand stack depth they leave.
type body struct {
	code  fragment
	depth int
	low   int
}

func (b *body) append(e emission) {
	if b.depth+e.low < b.low {
		b.low = b.depth + e.low
	}
	b.depth += e.delta
	b.code = append(b.code, e.code...)
}
