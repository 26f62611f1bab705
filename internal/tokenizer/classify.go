package tokenizer

import (
	"strings"

	"github.com/obinexus/rift-sub000/internal/token"
)

const operatorChars = "+-*/%=<>!&|^~"
const punctuationChars = "(){}[];,."

// classify is the built-in fallback used when no registered pattern
// matches at the current position. It consumes maximal runs for the
// multi-byte classes and exactly one byte for operators and
// punctuation. Returns length 0 when the leading byte fits no class.
func classify(rest []byte) (token.Kind, int) {
	if len(rest) == 0 {
		return token.Unknown, 0
	}
	b := rest[0]

	switch {
	case isSpace(b):
		n := 1
		for n < len(rest) && isSpace(rest[n]) {
			n++
		}
		return token.Whitespace, n

	case isDigit(b):
		n := 1
		for n < len(rest) && isDigit(rest[n]) {
			n++
		}
		return token.Number, n

	case isIdentStart(b):
		n := 1
		for n < len(rest) && isIdentPart(rest[n]) {
			n++
		}
		if isKeyword(string(rest[:n])) {
			return token.Keyword, n
		}
		return token.Identifier, n

	case strings.IndexByte(operatorChars, b) >= 0:
		return token.Operator, 1

	case strings.IndexByte(punctuationChars, b) >= 0:
		return token.Punctuation, 1
	}

	return token.Unknown, 0
}

// isKeyword promotes the null literals the stage recognizes without a
// registered pattern.
func isKeyword(word string) bool {
	switch word {
	case "NULL", "nil", "null":
		return true
	}
	return false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
