package rtf

import "strconv"

// tokenKind classifies one RTF token.
type tokenKind int

const (
	tokenGroupOpen tokenKind = iota
	tokenGroupClose
	tokenControl // \word with an optional numeric parameter
	tokenSymbol  // \ followed by a single non-letter
	tokenText    // a run of plain characters
	tokenEOF
)

type token struct {
	kind   tokenKind
	word   string
	param  int
	hasNum bool
	text   string
	symbol byte
}

// lexer splits an RTF stream into groups, control words and text runs.
// Control words are a backslash, a letter run, an optional signed
// integer and one optional space delimiter that belongs to the word.
type lexer struct {
	data []byte
	pos  int
}

func (l *lexer) next() token {
	for l.pos < len(l.data) {
		switch b := l.data[l.pos]; b {
		case '{':
			l.pos++
			return token{kind: tokenGroupOpen}
		case '}':
			l.pos++
			return token{kind: tokenGroupClose}
		case '\\':
			return l.control()
		case '\r', '\n':
			l.pos++
		default:
			return l.textRun()
		}
	}
	return token{kind: tokenEOF}
}

func (l *lexer) control() token {
	l.pos++ // backslash
	if l.pos >= len(l.data) {
		return token{kind: tokenEOF}
	}
	b := l.data[l.pos]
	if !isLetter(b) {
		l.pos++
		return token{kind: tokenSymbol, symbol: b}
	}

	start := l.pos
	for l.pos < len(l.data) && isLetter(l.data[l.pos]) {
		l.pos++
	}
	tok := token{kind: tokenControl, word: string(l.data[start:l.pos])}

	numStart := l.pos
	if l.pos < len(l.data) && (l.data[l.pos] == '-' || isDigit(l.data[l.pos])) {
		l.pos++
		for l.pos < len(l.data) && isDigit(l.data[l.pos]) {
			l.pos++
		}
		if n, err := strconv.Atoi(string(l.data[numStart:l.pos])); err == nil {
			tok.param = n
			tok.hasNum = true
		}
	}
	// A single space after a control word is a delimiter, not content.
	if l.pos < len(l.data) && l.data[l.pos] == ' ' {
		l.pos++
	}
	return tok
}

func (l *lexer) textRun() token {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '{' || b == '}' || b == '\\' || b == '\r' || b == '\n' {
			break
		}
		l.pos++
	}
	return token{kind: tokenText, text: string(l.data[start:l.pos])}
}

// hexPair reads the two hex digits of a \'hh escape.
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

// skipBytes advances past n raw bytes (the \bin payload).
func (l *lexer) skipBytes(n int) {
	if n < 0 {
		return
	}
	if l.pos+n > len(l.data) {
		l.pos = len(l.data)
		return
	}
	l.pos += n
}

func isLetter(b byte) bool { return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
