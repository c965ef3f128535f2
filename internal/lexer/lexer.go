package lexer

import (
	"strconv"

	"lcl/internal/diag"
	"lcl/internal/token"
)

// Lexer holds the state while tokenizing input
// It reads character by character, like a tape reader
type Lexer struct {
	input        string // The source code
	file         string // Reported in token locations
	position     int    // Current position in input (points to current char)
	readPosition int    // Current reading position (after current char)
	ch           byte   // Current character under examination
	row          int    // Row of ch, starting at 1
	col          int    // Column of ch, starting at 1
}

// New creates a new Lexer for the given input
func New(input, file string) *Lexer {
	l := &Lexer{input: input, file: file, row: 1}
	l.readChar() // Initialize with first character
	return l
}

// Tokenize runs the lexer to completion. The EOF token is not included.
func Tokenize(input, file string) ([]token.Token, error) {
	l := New(input, file)
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// readChar advances to the next character
// Think of it like moving the tape forward one position
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.row++
		l.col = 0
	}
	// If we've reached the end, set ch to 0 (NUL byte, signifies EOF)
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
	l.col++
}

// peekChar looks at the next character without consuming it
// Used to recognize comment openers
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) location() token.Location {
	return token.Location{File: l.file, Row: l.row, Col: l.col, Offset: l.position}
}

// NextToken returns the next token from input
// Words are separated by whitespace; each word is classified on its own
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipIgnored()

	loc := l.location()
	if l.atEOF() {
		return token.Token{Kind: token.EOF, Loc: loc}, nil
	}

	word := l.readWord()
	tok := token.Token{Literal: word, Loc: loc}

	if kind, ok := token.LookupOperator(word); ok {
		tok.Kind = kind
		return tok, nil
	}

	switch word[0] {
	case '!':
		tok.Kind = token.PUSH
		target, err := readTarget(word, tok, false)
		if err != nil {
			return token.Token{}, err
		}
		tok.Target = target
		return tok, nil
	case '@':
		tok.Kind = token.POP
		target, err := readTarget(word, tok, true)
		if err != nil {
			return token.Token{}, err
		}
		tok.Target = target
		return tok, nil
	}

	if isDigit(word[0]) || (word[0] == '-' && len(word) > 1) {
		n, err := strconv.ParseInt(word, 10, 64)
		if err != nil {
			return token.Token{}, diag.Errorf(diag.SyntaxError, tok, "%q is not a number", word)
		}
		tok.Kind = token.PUSH
		tok.Target = token.Target{Kind: token.TargetInteger, Value: n}
		return tok, nil
	}

	if isLetter(word[0]) {
		if !isIdentifier(word) {
			return token.Token{}, diag.Errorf(diag.SyntaxError, tok, "%q is not a valid identifier", word)
		}
		tok.Kind = token.LookupIdent(word)
		return tok, nil
	}

	return token.Token{}, diag.Errorf(diag.SyntaxError, tok, "invalid syntax %q", word)
}

// readTarget decodes the operand after a leading '!' or '@':
// nothing (memory), rN (register) or an integer literal.
func readTarget(word string, tok token.Token, pop bool) (token.Target, error) {
	rest := word[1:]
	if rest == "" {
		return token.Target{Kind: token.TargetMemory}, nil
	}
	if rest[0] == 'r' {
		idx, ok := parseDigits(rest[1:])
		if !ok {
			return token.Target{}, diag.Errorf(diag.SyntaxError, tok, "invalid register operand %q", word)
		}
		return token.Target{Kind: token.TargetRegister, Value: idx}, nil
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		if pop {
			return token.Target{}, diag.Errorf(diag.SyntaxError, tok, "invalid store target %q", word)
		}
		return token.Target{}, diag.Errorf(diag.SyntaxError, tok, "%q is not a number", rest)
	}
	return token.Target{Kind: token.TargetInteger, Value: n}, nil
}
