// Package token defines the fixed-width token record emitted by the
// stage-0 tokenizer, its classification and flag tables, and the wire
// encoding consumed by the downstream parser stage.
//
// A Record packs three non-overlapping fields into 32 bits:
//
//	bits  0..7   kind   (classification, 0-255)
//	bits  8..23  offset (byte offset into the source buffer, 0-65535)
//	bits 24..31  aux    (context dependent: length or flag bitmask)
//
// The bit order above is the documented wire layout and is independent of
// the host platform. See stream.go for the on-the-wire byte order.
package token

// Kind classifies a lexical unit. Values fit in the 8-bit kind field of a
// Record.
type Kind uint8

const (
	Unknown Kind = iota
	Identifier
	Keyword
	Number
	String
	Operator
	Punctuation
	Whitespace
	Comment
	EOF
	Error

	// R-syntax specific kinds
	RegexStart  // R" or R' marker
	RegexEnd    // closing quote marker
	ComposeAnd  // R.AND composition
	ComposeOr   // R.OR composition
	ComposeXor  // R.XOR composition
	ComposeNand // R.NAND composition

	kindCount
)

var kindNames = [...]string{
	"UNKNOWN", "IDENTIFIER", "KEYWORD", "NUMBER", "STRING",
	"OPERATOR", "PUNCTUATION", "WHITESPACE", "COMMENT", "EOF", "ERROR",
	"REGEX_START", "REGEX_END",
	"COMPOSE_AND", "COMPOSE_OR", "COMPOSE_XOR", "COMPOSE_NAND",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return "INVALID"
	}
	return kindNames[k]
}

// ParseKind maps a classification name back to its Kind. The second
// result is false for unknown names.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return Unknown, false
}

// Recognized reports whether k is a known classification.
func (k Kind) Recognized() bool {
	return k < kindCount
}

// CarriesFlags reports whether the aux field of a record with this kind
// holds a Flags bitmask. For all other kinds aux holds the consumed length,
// saturated at 255. Call sites must not infer the interpretation from the
// value itself.
func (k Kind) CarriesFlags() bool {
	switch k {
	case EOF, Error, RegexStart, RegexEnd, ComposeAnd, ComposeOr, ComposeXor, ComposeNand:
		return true
	default:
		return false
	}
}
