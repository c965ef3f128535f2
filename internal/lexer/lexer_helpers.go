package lexer

import "strconv"

func (l *Lexer) skipIgnored() {
	for {
		l.skipWhitespace()

		// Line comment: // ...
		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}

		// Block comment: /* ... */
		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			continue
		}

		return
	}
}

// skipWhitespace ignores spaces, tabs, newlines, carriage returns
// These have no meaning in the language except to separate words
func (l *Lexer) skipWhitespace() {
	for isSpace(l.ch) && !l.atEOF() {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	// Skip leading "//"
	l.readChar()
	l.readChar()
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() {
	// Skip leading "/*"
	l.readChar()
	l.readChar()
	for {
		if l.atEOF() {
			return
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// readWord reads everything up to the next whitespace character.
func (l *Lexer) readWord() string {
	position := l.position
	for !isSpace(l.ch) && !l.atEOF() {
		l.readChar()
	}
	return l.input[position:l.position]
}

func isIdentifier(word string) bool {
	for i := 0; i < len(word); i++ {
		if !isLetter(word[i]) && !isDigit(word[i]) {
			return false
		}
	}
	return true
}

func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

// isLetter checks if ch is a letter or underscore
// We allow underscores in identifiers: foo_bar
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// isDigit checks if ch is 0-9
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
