// Package pattern compiles R-syntax literals into deterministic automata,
// combines compiled patterns with the boolean composition algebra, and
// caches the results by signature for reuse across tokenizer contexts.
package pattern

import (
	"fmt"
	"strings"

	"github.com/obinexus/rift-sub000/internal/dfa"
	"github.com/obinexus/rift-sub000/internal/diagnostics"
	"github.com/obinexus/rift-sub000/internal/token"
)

// DefaultMaxPatternLen bounds the accepted literal length, matching the
// original stage-0 limit.
const DefaultMaxPatternLen = 1024

// Config is the compiler-wide policy, fixed at the call site rather than
// inferred.
type Config struct {
	// Strict rejects unrecognized flag letters; lenient mode ignores them
	// after reporting a diagnostic.
	Strict bool

	// MaxPatternLen caps the full literal text length. Zero means
	// DefaultMaxPatternLen.
	MaxPatternLen int

	// Diagnostics receives lenient-mode flag diagnostics when set.
	Diagnostics *diagnostics.Bag
}

func (c Config) maxLen() int {
	if c.MaxPatternLen <= 0 {
		return DefaultMaxPatternLen
	}
	return c.MaxPatternLen
}

// Pattern is a compiled (or composed) pattern. The automaton reached from
// Start is owned by the pattern; shared ownership across callers is
// managed by the cache's reference counts.
type Pattern struct {
	Source    string      // original literal text, or a synthetic composition source
	Body      string      // extracted body between the delimiters
	Delimiter byte        // zero for bare-body and composed patterns
	Flags     token.Flags // g/m/i/t/b plus the composed marker
	Composed  bool        // produced by the composition algebra

	start *dfa.State
}

// Compile parses an R-syntax literal and builds its automaton.
func Compile(text string, cfg Config) (*Pattern, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty pattern text", ErrInvalidArgument)
	}
	if len(text) > cfg.maxLen() {
		return nil, fmt.Errorf("%w: %d > %d", ErrPatternTooLong, len(text), cfg.maxLen())
	}

	env, err := parseEnvelope(text)
	if err != nil {
		return nil, err
	}
	flags, err := resolveFlags(env, cfg)
	if err != nil {
		return nil, err
	}

	start, err := compileBody(env.body, flags)
	if err != nil {
		return nil, err
	}

	return &Pattern{
		Source:    text,
		Body:      env.body,
		Delimiter: env.delimiter,
		Flags:     flags | token.FlagValidated,
		start:     start,
	}, nil
}

// CompileBody builds a pattern directly from body text, without the
// R-syntax envelope. Used by composition call sites and tests that operate
// on raw bodies.
func CompileBody(body string, flags token.Flags) (*Pattern, error) {
	start, err := compileBody(body, flags)
	if err != nil {
		return nil, err
	}
	return &Pattern{
		Source: body,
		Body:   body,
		Flags:  flags | token.FlagValidated,
		start:  start,
	}, nil
}

// Start exposes the automaton entry state.
func (p *Pattern) Start() *dfa.State {
	return p.start
}

// Match reports whether the automaton accepts the entire input.
func (p *Pattern) Match(input []byte) bool {
	final, ok := dfa.Run(p.start, input)
	return ok && final.IsAccepting()
}

// Traceable reports whether the automaton can consume all of input,
// regardless of acceptance. AND and NAND compositions only have
// transitions where both operands do, so their languages live inside the
// mutually traceable domain.
func (p *Pattern) Traceable(input []byte) bool {
	_, ok := dfa.Run(p.start, input)
	return ok
}

// MatchPrefix returns the length of the longest accepting prefix of input
// and whether any accepting prefix exists. A zero-length result with
// ok=true means the pattern accepts the empty string; the tokenizer driver
// treats that as no progress and ignores it.
func (p *Pattern) MatchPrefix(input []byte) (int, bool) {
	best := -1
	cur := p.start
	if cur.IsAccepting() {
		best = 0
	}
	for i := 0; i < len(input); i++ {
		next, ok := cur.Next(input[i])
		if !ok {
			break
		}
		cur = next
		if cur.IsAccepting() {
			best = i + 1
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// Signature normalizes pattern text for cache identity.
func Signature(text string) string {
	return strings.TrimSpace(text)
}

func newFlagDiagnostic(env envelope, bad []byte) *diagnostics.Diagnostic {
	return diagnostics.NewWarning(
		fmt.Sprintf("ignoring unrecognized pattern flag(s) %q", bad)).
		WithCode("P0001").
		WithHelp("recognized flags are g, m, i, t and b")
}
