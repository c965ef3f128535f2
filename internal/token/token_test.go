package token

import "testing"

func TestLookupIdent(t *testing.T) {
	tests := map[string]Kind{
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
		"x":      IDENT,
		"add":    IDENT,
	}

	for in, want := range tests {
		if got := LookupIdent(in); got != want {
			t.Fatalf("LookupIdent(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestLookupOperator(t *testing.T) {
	tests := map[string]Kind{
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
	for in, want := range tests {
		got, ok := LookupOperator(in)
		if !ok || got != want {
			t.Fatalf("LookupOperator(%q)=(%q,%v) want=%q", in, got, ok, want)
		}
	}
	if _, ok := LookupOperator("+-"); ok {
		t.Fatalf("LookupOperator(+-) should fail")
	}
}

func TestStackWord(t *testing.T) {
	for _, name := range []string{"dup", "drop", "swap", "over", "rot"} {
		kind, ok := StackWord(name)
		if !ok || !IsStackWord(kind) {
			t.Fatalf("StackWord(%q)=(%q,%v)", name, kind, ok)
		}
	}
	if _, ok := StackWord("while"); ok {
		t.Fatalf("while is not a stack word")
	}
	if _, ok := StackWord("add"); ok {
		t.Fatalf("add is not a stack word")
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{File: "a.lcl", Row: 2, Col: 7, Offset: 12}
	if got := loc.String(); got != "a.lcl:2:7" {
		t.Fatalf("String()=%q", got)
	}
	if got := (Location{Row: 1, Col: 1}).String(); got != "<input>:1:1" {
		t.Fatalf("String() without file=%q", got)
	}
	if !(Location{}).IsZero() || loc.IsZero() {
		t.Fatalf("IsZero unexpected")
	}
}
