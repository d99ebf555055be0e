package expr

import (
	"fmt"
	"strings"
)

// lexer is a byte cursor over the expression source.
type lexer struct {
	src string
	off int
}

func (l *lexer) eof() bool {
	return l.off >= len(l.src)
}

func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.off]
}

func (l *lexer) peek2() (byte, byte, bool) {
	if l.off+1 >= len(l.src) {
		return 0, 0, false
	}
	return l.src[l.off], l.src[l.off+1], true
}

func (l *lexer) bump() byte {
	b := l.peek()
	l.off++
	return b
}

func (l *lexer) skipSpace() {
	for !l.eof() {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.off++
		default:
			return
		}
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// next lexes one token.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.off
	if l.eof() {
		return token{kind: tokEOF, off: start}, nil
	}

	if b0, b1, ok := l.peek2(); ok {
		var k kind
		switch {
		case b0 == '=' && b1 == '=':
			k = tokEq
		case b0 == '!' && b1 == '=':
			k = tokNeq
		case b0 == '<' && b1 == '=':
			k = tokLeq
		case b0 == '>' && b1 == '=':
			k = tokGeq
		case b0 == '&' && b1 == '&':
			k = tokAnd
		case b0 == '|' && b1 == '|':
			k = tokOr
		}
		if k != tokEOF {
			l.off += 2
			return token{kind: k, text: l.src[start:l.off], off: start}, nil
		}
	}

	b := l.peek()
	switch {
	case isDigit(b):
		return l.scanNumber()
	case isIdentStart(b):
		for !l.eof() && isIdentByte(l.peek()) {
			l.off++
		}
		return token{kind: tokIdent, text: l.src[start:l.off], off: start}, nil
	case b == '"' || b == '\'':
		return l.scanString()
	}

	l.off++
	single := map[byte]kind{
		'.': tokDot, '[': tokLBracket, ']': tokRBracket,
		'(': tokLParen, ')': tokRParen, ',': tokComma,
		'!': tokNot, '-': tokMinus, '+': tokPlus,
		'*': tokStar, '/': tokSlash, '%': tokPercent,
		'<': tokLt, '>': tokGt,
	}
	if k, ok := single[b]; ok {
		return token{kind: k, text: l.src[start:l.off], off: start}, nil
	}
	return token{}, fmt.Errorf("unexpected character %q at offset %d", b, start)
}

func (l *lexer) scanNumber() (token, error) {
	start := l.off
	for !l.eof() && isDigit(l.peek()) {
		l.off++
	}
	k := tokInt
	if !l.eof() && l.peek() == '.' {
		// A trailing selector like "1.len" is not a float; require a digit.
		if l.off+1 < len(l.src) && isDigit(l.src[l.off+1]) {
			k = tokFloat
			l.off++
			for !l.eof() && isDigit(l.peek()) {
				l.off++
			}
		}
	}
	return token{kind: k, text: l.src[start:l.off], off: start}, nil
}

func (l *lexer) scanString() (token, error) {
	start := l.off
	quote := l.bump()
	var sb strings.Builder
	for {
		if l.eof() {
			return token{}, fmt.Errorf("unterminated string at offset %d", start)
		}
		b := l.bump()
		if b == quote {
			return token{kind: tokString, text: sb.String(), off: start}, nil
		}
		if b == '\\' && !l.eof() {
			switch esc := l.bump(); esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"', '\'':
				sb.WriteByte(esc)
			default:
				return token{}, fmt.Errorf("unknown escape \\%c at offset %d", esc, l.off-2)
			}
			continue
		}
		sb.WriteByte(b)
	}
}
