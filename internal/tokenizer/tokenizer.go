// Package tokenizer drives compiled patterns over an input buffer and
// emits the fixed-width token records downstream stages consume.
//
// ARCHITECTURE DESIGN:
// The Context is the single owner of tokenization state for one input
// buffer. Patterns are stateless workers registered on the context; the
// driver walks the buffer with maximal munch, falls back to a built-in
// classifier when no pattern applies, and always terminates the record
// stream with an EOF record at the buffer length.
package tokenizer

import (
	"fmt"
	"os"

	"github.com/obinexus/rift-sub000/internal/pattern"
	"github.com/obinexus/rift-sub000/internal/token"
)

// Options holds driver configuration. Passed at creation time and
// remains immutable.
type Options struct {
	// CopyInput makes SetInput take a private copy of the buffer so the
	// caller may reuse theirs.
	CopyInput bool

	// Strict aborts Process on the first unclassifiable byte instead of
	// emitting an error record and resynchronizing.
	Strict bool

	// InitialCapacity pre-sizes the record slice. Zero picks a default.
	InitialCapacity int

	// Debug traces driver decisions to stderr.
	Debug bool
}

// Stats counts what the driver produced. Snapshot semantics; read after
// Process.
type Stats struct {
	Records        int // total records emitted, including EOF
	PatternMatches int // records produced by registered patterns
	FallbackTokens int // records produced by the built-in classifier
	ErrorTokens    int // error records emitted on unclassifiable input
	BytesProcessed int
}

// span records where a token came from in the source, for dumps and
// diagnostics. Columns are 1-based byte columns.
type span struct {
	start, end int
	line       int
	startCol   int
	endCol     int
}

type registeredPattern struct {
	pat   *pattern.Pattern
	kind  token.Kind
	cache *pattern.Cache // non-nil when acquired through a cache
}

// Context owns the tokenization state for one input buffer at a time.
// Not safe for concurrent use; share patterns through a cache instead
// and give each goroutine its own context.
type Context struct {
	opts  Options
	input []byte

	pos  int
	line int
	col  int

	patterns []registeredPattern

	records []token.Record
	spans   []span
	next    int // NextToken cursor

	err    error
	errPos int

	stats Stats
}

// New creates a context with no input and no patterns.
func New(opts Options) *Context {
	cap := opts.InitialCapacity
	if cap <= 0 {
		cap = 64
	}
	return &Context{
		opts:    opts,
		records: make([]token.Record, 0, cap),
	}
}

// SetInput installs the buffer to tokenize and resets all per-run state.
// The record layout caps addressable offsets, so oversized buffers are
// rejected up front rather than truncated mid-run.
func (c *Context) SetInput(input []byte) error {
	if len(input) > token.MaxOffset {
		return fmt.Errorf("input of %d bytes exceeds the %d byte record offset range", len(input), token.MaxOffset)
	}
	if c.opts.CopyInput {
		c.input = append([]byte(nil), input...)
	} else {
		c.input = input
	}
	c.Reset()
	return nil
}

// Reset clears emitted records and the cursor but keeps the input and
// the registered patterns, allowing the same buffer to be re-tokenized.
func (c *Context) Reset() {
	c.pos = 0
	c.line = 1
	c.col = 1
	c.records = c.records[:0]
	c.spans = c.spans[:0]
	c.next = 0
	c.err = nil
	c.errPos = 0
	c.stats = Stats{}
}

// UsePattern registers a caller-owned pattern that emits records of the
// given kind. Patterns are tried in registration order; on equal match
// lengths the earliest registration wins.
func (c *Context) UsePattern(p *pattern.Pattern, kind token.Kind) error {
	if p == nil || p.Start() == nil {
		return fmt.Errorf("%w: nil pattern", pattern.ErrInvalidArgument)
	}
	c.patterns = append(c.patterns, registeredPattern{pat: p, kind: kind})
	return nil
}

// AcquirePattern compiles text through the shared cache and registers
// the result. The reference is released by Close.
func (c *Context) AcquirePattern(cache *pattern.Cache, text string, kind token.Kind, cfg pattern.Config) error {
	if cache == nil {
		return fmt.Errorf("%w: nil cache", pattern.ErrInvalidArgument)
	}
	p, err := cache.CompileOrGet(text, cfg)
	if err != nil {
		return fmt.Errorf("acquiring pattern %q: %w", text, err)
	}
	c.patterns = append(c.patterns, registeredPattern{pat: p, kind: kind, cache: cache})
	return nil
}

// Process tokenizes the installed buffer from the current position to
// the end. The emitted stream always terminates with an EOF record whose
// offset equals the buffer length, even for an empty buffer. In lenient
// mode an unclassifiable byte produces one error record and the driver
// resynchronizes one byte later; strict mode stops at the first such
// byte and returns the error.
func (c *Context) Process() error {
	for c.pos < len(c.input) {
		start := c.pos
		startLine, startCol := c.line, c.col

		kind, length := c.matchAt(start)
		if length == 0 {
			kind, length = classify(c.input[start:])
		}

		if length == 0 {
			c.recordError(start, startLine, startCol)
			if c.opts.Strict {
				c.emitEOFAt(len(c.input))
				c.stats.BytesProcessed = c.pos
				return c.err
			}
			length = 1
			c.advance(length)
			continue
		}

		c.advance(length)
		if err := c.emit(kind, start, length, startLine, startCol); err != nil {
			return err
		}
	}

	c.emitEOFAt(len(c.input))
	c.stats.BytesProcessed = len(c.input)
	return nil
}

// matchAt runs every registered pattern at offset and returns the kind
// and length of the longest match. Zero-length matches are not progress
// and are ignored.
func (c *Context) matchAt(offset int) (token.Kind, int) {
	bestKind := token.Unknown
	bestLen := 0
	for _, rp := range c.patterns {
		n, ok := rp.pat.MatchPrefix(c.input[offset:])
		if !ok || n == 0 {
			continue
		}
		if n > bestLen {
			bestKind, bestLen = rp.kind, n
		}
	}
	if c.opts.Debug && bestLen > 0 {
		fmt.Fprintf(os.Stderr, "[tokenizer] pattern match %s len=%d at %d\n", bestKind, bestLen, offset)
	}
	return bestKind, bestLen
}

func (c *Context) emit(kind token.Kind, start, length, startLine, startCol int) error {
	aux := length
	if aux > token.MaxAux {
		aux = token.MaxAux
	}
	rec, err := token.Encode(kind, start, uint8(aux))
	if err != nil {
		c.err = fmt.Errorf("encoding %s at offset %d: %w", kind, start, err)
		c.errPos = start
		return c.err
	}
	c.records = append(c.records, rec)
	// The cursor has already advanced past the token, so its column is
	// the end column even when the token crosses line boundaries.
	c.spans = append(c.spans, span{
		start:    start,
		end:      start + length,
		line:     startLine,
		startCol: startCol,
		endCol:   c.col,
	})
	c.stats.Records++
	if kind.Recognized() {
		if c.wasPatternMatch(kind, start, length) {
			c.stats.PatternMatches++
		} else {
			c.stats.FallbackTokens++
		}
	}
	return nil
}

// wasPatternMatch re-checks whether the emitted token came from a
// registered pattern. Cheap because it only re-runs patterns of the
// matching kind at one offset.
func (c *Context) wasPatternMatch(kind token.Kind, start, length int) bool {
	for _, rp := range c.patterns {
		if rp.kind != kind {
			continue
		}
		if n, ok := rp.pat.MatchPrefix(c.input[start:]); ok && n == length {
			return true
		}
	}
	return false
}

func (c *Context) recordError(offset, line, col int) {
	// Later misses overwrite: the slot holds the most recent error.
	c.err = fmt.Errorf("unclassifiable byte 0x%02x at offset %d (line %d, column %d)", c.input[offset], offset, line, col)
	c.errPos = offset
	rec, encErr := token.Encode(token.Error, offset, byte(token.FlagError))
	if encErr != nil {
		return
	}
	c.records = append(c.records, rec)
	c.spans = append(c.spans, span{start: offset, end: offset + 1, line: line, startCol: col, endCol: col + 1})
	c.stats.Records++
	c.stats.ErrorTokens++
	if c.opts.Debug {
		fmt.Fprintf(os.Stderr, "[tokenizer] error record at %d\n", offset)
	}
}

func (c *Context) emitEOFAt(offset int) {
	rec, err := token.Encode(token.EOF, offset, 0)
	if err != nil {
		return
	}
	c.records = append(c.records, rec)
	c.spans = append(c.spans, span{start: offset, end: offset, line: c.line, startCol: c.col, endCol: c.col})
	c.stats.Records++
}

// advance moves the cursor n bytes forward, tracking line and column.
func (c *Context) advance(n int) {
	for i := 0; i < n; i++ {
		if c.input[c.pos+i] == '\n' {
			c.line++
			c.col = 1
		} else {
			c.col++
		}
	}
	c.pos += n
}

// Tokens returns the emitted records. The slice is owned by the context
// and valid until the next Reset or SetInput.
func (c *Context) Tokens() []token.Record {
	return c.records
}

// NextToken returns records one at a time in emission order. The second
// result is false once the stream is exhausted.
func (c *Context) NextToken() (token.Record, bool) {
	if c.next >= len(c.records) {
		return 0, false
	}
	rec := c.records[c.next]
	c.next++
	return rec, true
}

// Stats returns the driver counters for the last Process run.
func (c *Context) Stats() Stats {
	return c.stats
}

// LastError returns the most recent tokenization error of the last run
// and the byte offset where it occurred. Nil when the run was clean. In
// lenient mode Process returns nil while LastError still reports the
// last recovered error.
func (c *Context) LastError() (error, int) {
	return c.err, c.errPos
}

// Close releases every cache-acquired pattern reference. The context
// may be reused afterwards but holds no patterns.
func (c *Context) Close() {
	for _, rp := range c.patterns {
		if rp.cache != nil {
			rp.cache.Release(rp.pat)
		}
	}
	c.patterns = nil
}
