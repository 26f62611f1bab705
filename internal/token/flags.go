package token

// Flags is the shared bitmask used both for pattern compilation flags and
// for the aux field of flag-bearing records.
type Flags uint8

const (
	FlagNone       Flags = 0x00
	FlagGlobal     Flags = 0x01 // g - global matching
	FlagMultiline  Flags = 0x02 // m - multiline mode
	FlagIgnoreCase Flags = 0x04 // i - case insensitive
	FlagTopDown    Flags = 0x08 // t - top-down evaluation order
	FlagBottomUp   Flags = 0x10 // b - bottom-up evaluation order
	FlagComposed   Flags = 0x20 // result of a boolean composition
	FlagValidated  Flags = 0x40 // passed DFA validation
	FlagError      Flags = 0x80 // error state marker
)

// Has reports whether all bits of o are set in f.
func (f Flags) Has(o Flags) bool {
	return f&o == o
}

// String renders the flag letters in R-syntax order followed by the
// non-letter markers, e.g. "gi" or "gi+composed".
func (f Flags) String() string {
	buf := make([]byte, 0, 8)
	for _, fl := range [...]struct {
		bit Flags
		ch  byte
	}{
		{FlagGlobal, 'g'},
		{FlagMultiline, 'm'},
		{FlagIgnoreCase, 'i'},
		{FlagTopDown, 't'},
		{FlagBottomUp, 'b'},
	} {
		if f.Has(fl.bit) {
			buf = append(buf, fl.ch)
		}
	}
	s := string(buf)
	if f.Has(FlagComposed) {
		s += "+composed"
	}
	if f.Has(FlagValidated) {
		s += "+validated"
	}
	if f.Has(FlagError) {
		s += "+error"
	}
	return s
}

// ParseFlags interprets a run of R-syntax flag letters. Unrecognized
// letters are returned so the caller can apply its strict or lenient
// policy.
func ParseFlags(s string) (Flags, []byte) {
	var f Flags
	var bad []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'g':
			f |= FlagGlobal
		case 'm':
			f |= FlagMultiline
		case 'i':
			f |= FlagIgnoreCase
		case 't':
			f |= FlagTopDown
		case 'b':
			f |= FlagBottomUp
		default:
			bad = append(bad, s[i])
		}
	}
	return f, bad
}
