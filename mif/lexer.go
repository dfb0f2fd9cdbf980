package mif

import "strings"

// tokenKind classifies one MIF token.
type tokenKind int

const (
	tokenOpen   tokenKind = iota // '<' followed by a statement name
	tokenClose                   // '>'
	tokenString                  // a `...' literal, unescaped
	tokenWord                    // a bare argument: keyword, number, unit
	tokenEOF
)

type token struct {
	kind tokenKind
	text string
}

// lexer tokenizes a MIF stream. MIF is line-oriented ASCII: statements
// are angle-bracketed s-expressions, strings run from a backquote to a
// straight quote, and '#' starts a comment that runs to the end of the
// line.
type lexer struct {
	data []byte
	pos  int
}

func (l *lexer) next() token {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return token{kind: tokenEOF}
	}
	switch b := l.data[l.pos]; b {
	case '<':
		l.pos++
		return token{kind: tokenOpen, text: l.word()}
	case '>':
		l.pos++
		return token{kind: tokenClose}
	case '`':
		l.pos++
		return token{kind: tokenString, text: l.stringLiteral()}
	default:
		return token{kind: tokenWord, text: l.word()}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '#' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
			return
		}
		l.pos++
	}
}

// word reads a bare token up to whitespace or a bracket.
func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '<' || b == '>' || b == '#' {
			break
		}
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// stringLiteral reads to the closing straight quote, resolving the MIF
// backslash escapes: \t tab, \> right bracket, \q straight quote, \Q
// backquote, \\ backslash, \xHH a character by hex code.
func (l *lexer) stringLiteral() string {
	var sb strings.Builder
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '\'' {
			l.pos++
			break
		}
		if b != '\\' {
			sb.WriteByte(b)
			l.pos++
			continue
		}
		l.pos++
		if l.pos >= len(l.data) {
			break
		}
		switch e := l.data[l.pos]; e {
		case 't':
			sb.WriteByte('\t')
			l.pos++
		case '>':
			sb.WriteByte('>')
			l.pos++
		case 'q':
			sb.WriteByte('\'')
			l.pos++
		case 'Q':
			sb.WriteByte('`')
			l.pos++
		case '\\':
			sb.WriteByte('\\')
			l.pos++
		case 'x':
			l.pos++
			if v, ok := l.hexPair(); ok {
				sb.WriteRune(rune(v))
				// A space conventionally terminates the hex escape.
				if l.pos < len(l.data) && l.data[l.pos] == ' ' {
					l.pos++
				}
			}
		default:
			// Unknown escape: keep the character itself.
			sb.WriteByte(e)
			l.pos++
		}
	}
	return sb.String()
}

func (l *lexer) hexPair() (byte, bool) {
	if l.pos+1 >= len(l.data) {
		return 0, false
	}
	hi, ok1 := hexVal(l.data[l.pos])
	lo, ok2 := hexVal(l.data[l.pos+1])
	if !ok1 || !ok2 {
		return 0, false
	}
	l.pos += 2
	return hi<<4 | lo, true
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
