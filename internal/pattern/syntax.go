package pattern

import (
	"fmt"

	"github.com/obinexus/rift-sub000/internal/token"
)

// R-syntax envelope: R<quote><delim><body><delim><flags><quote> with
// quote one of " or '. The flags sit between the closing delimiter and the
// closing quote, e.g. R"/[A-Z]+/gi". The body may contain the delimiter
// only when escaped with a backslash.

// parseState is one step of the envelope state machine. Any unexpected
// symbol moves to stError, which is terminal for the compile call.
type parseState int

const (
	stInit parseState = iota
	stRDetected
	stQuoteCaptured
	stDelimiterCaptured
	stBodyCapture
	stTermination
	stValidated
	stError
)

// envelope is the decomposed R-syntax literal.
type envelope struct {
	quote     byte
	delimiter byte
	body      string
	rawFlags  string
}

func isQuote(c byte) bool { return c == '"' || c == '\'' }

// parseEnvelope runs the state machine over the full literal text.
func parseEnvelope(text string) (envelope, error) {
	var env envelope
	var body, flags []byte

	state := stInit
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case stInit:
			if c != 'R' {
				return env, fmt.Errorf("%w: expected R prefix, found %q", ErrMalformedPattern, c)
			}
			state = stRDetected

		case stRDetected:
			if !isQuote(c) {
				return env, fmt.Errorf("%w: expected quote after R, found %q", ErrMalformedPattern, c)
			}
			env.quote = c
			state = stQuoteCaptured

		case stQuoteCaptured:
			if isQuote(c) || c == '\\' {
				return env, fmt.Errorf("%w: %q cannot delimit a pattern body", ErrMalformedDelimiter, c)
			}
			env.delimiter = c
			state = stDelimiterCaptured

		case stDelimiterCaptured, stBodyCapture:
			state = stBodyCapture
			switch {
			case escaped:
				if c != env.delimiter {
					// Not our escape; the body compiler handles it.
					body = append(body, '\\')
				}
				body = append(body, c)
				escaped = false
			case c == '\\':
				escaped = true
			case c == env.delimiter:
				state = stTermination
			default:
				body = append(body, c)
			}

		case stTermination:
			if c == env.quote {
				state = stValidated
				continue
			}
			flags = append(flags, c)

		case stValidated:
			return env, fmt.Errorf("%w: trailing input %q after closing quote", ErrMalformedPattern, text[i:])
		}
	}

	switch state {
	case stValidated:
		env.body = string(body)
		env.rawFlags = string(flags)
		return env, nil
	case stBodyCapture, stDelimiterCaptured:
		return env, fmt.Errorf("%w: missing closing delimiter %q", ErrUnterminatedBody, env.delimiter)
	case stTermination:
		return env, fmt.Errorf("%w: missing closing quote %q", ErrUnterminatedBody, env.quote)
	default:
		return env, fmt.Errorf("%w: incomplete pattern literal", ErrMalformedPattern)
	}
}

// resolveFlags applies the configured flag policy: unrecognized letters are
// rejected under strict mode and diagnosed-and-ignored under lenient mode.
func resolveFlags(env envelope, cfg Config) (token.Flags, error) {
	flags, bad := token.ParseFlags(env.rawFlags)
	if len(bad) == 0 {
		return flags, nil
	}
	if cfg.Strict {
		return 0, fmt.Errorf("%w: unrecognized flag(s) %q", ErrInvalidFlag, bad)
	}
	if cfg.Diagnostics != nil {
		cfg.Diagnostics.Add(newFlagDiagnostic(env, bad))
	}
	return flags, nil
}
