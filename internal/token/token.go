package token

import "fmt"

// Kind is a string alias for token kinds
// Using string makes debugging easier (we can print "PUSH" instead of a number)
type Kind string

// Location points at the first character of a token in its source file.
type Location struct {
	File   string
	Row    int
	Col    int
	Offset int
}

func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Row, l.Col)
}

// IsZero reports whether the location was never set (e.g. toolchain diagnostics).
func (l Location) IsZero() bool {
	return l.Row == 0 && l.Col == 0 && l.File == ""
}

// TargetKind says where a PUSH reads from or a POP writes to.
type TargetKind int

const (
	TargetInteger TargetKind = iota
	TargetMemory
	TargetRegister
)

func (k TargetKind) String() string {
	switch k {
	case TargetInteger:
		return "integer"
	case TargetMemory:
		return "memory"
	case TargetRegister:
		return "register"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

// Target is the operand of a PUSH or POP token.
// Value holds the literal for integers and the index for registers.
type Target struct {
	Kind  TargetKind
	Value int64
}

// Token struct holds the kind, the source text and where it came from
// For example: Token{Kind: PUSH, Literal: "5", Target: Target{Kind: TargetInteger, Value: 5}}
type Token struct {
	Kind    Kind
	Literal string
	Target  Target
	Loc     Location
}

// Token kinds - these are the vocabulary of the language
const (
	EOF Kind = "EOF" // End of input, tells the consumer we're done

	IDENT Kind = "IDENT" // Function names, locals and calls: add, x, _tmp

	// Operand forms
	PUSH Kind = "PUSH" // 5, !5, !, !r1
	POP  Kind = "POP"  // @, @r1

	// Arithmetic
	PLUS     Kind = "+"
	MINUS    Kind = "-"
	ASTERISK Kind = "*"
	SLASH    Kind = "/"
	PERCENT  Kind = "%"

	// Comparisons
	LT     Kind = "<"
	GT     Kind = ">"
	EQ     Kind = "="
	NOT_EQ Kind = "!="

	DOT Kind = "." // print

	// Stack words
	DUP  Kind = "DUP"
	DROP Kind = "DROP"
	SWAP Kind = "SWAP"
	OVER Kind = "OVER"
	ROT  Kind = "ROT"

	// Blocks
	IF    Kind = "IF"
	ELSE  Kind = "ELSE"
	WHILE Kind = "WHILE"
	DO    Kind = "DO"
	END   Kind = "END"

	// Definitions
	FUNCTION Kind = "FUNCTION"
	INLINE   Kind = "INLINE"

	MEM Kind = "MEM"
)

var keywords = map[string]Kind{
	"fn":     FUNCTION,
	"inline": INLINE,
	"mem":    MEM,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"do":     DO,
	"end":    END,
	"dup":    DUP,
	"drop":   DROP,
	"swap":   SWAP,
	"over":   OVER,
	"rot":    ROT,
}

var operators = map[string]Kind{
	"+":  PLUS,
	"-":  MINUS,
	"*":  ASTERISK,
	"/":  SLASH,
	"%":  PERCENT,
	"<":  LT,
	">":  GT,
	"=":  EQ,
	"!=": NOT_EQ,
	".":  DOT,
}

// LookupIdent checks if a word is a keyword
// If "while" is in keywords map, returns WHILE
// Otherwise returns IDENT (it's a user name)
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// LookupOperator returns the kind of a symbolic word such as "+" or "!=".
func LookupOperator(word string) (Kind, bool) {
	kind, ok := operators[word]
	return kind, ok
}

// StackWord maps a reserved stack-word spelling to its kind. It accepts
// identifiers so that token streams built without the lexer resolve the same way.
func StackWord(name string) (Kind, bool) {
	switch kind := LookupIdent(name); kind {
	case DUP, DROP, SWAP, OVER, ROT:
		return kind, true
	}
	return "", false
}

// IsStackWord reports whether kind is one of the reserved stack words.
func IsStackWord(kind Kind) bool {
	switch kind {
	case DUP, DROP, SWAP, OVER, ROT:
		return true
	}
	return false
}
