package pattern

import "errors"

// Compile failure modes. All are returned wrapped with context; callers
// test with errors.Is. A failed compile never affects other patterns or an
// in-progress tokenization pass.
var (
	ErrMalformedPattern   = errors.New("pattern: malformed R-syntax")
	ErrMalformedDelimiter = errors.New("pattern: malformed delimiter")
	ErrUnterminatedBody   = errors.New("pattern: unterminated body")
	ErrInvalidFlag        = errors.New("pattern: invalid flag")
	ErrPatternTooLong     = errors.New("pattern: exceeds maximum length")
	ErrInvalidArgument    = errors.New("pattern: invalid argument")
)
