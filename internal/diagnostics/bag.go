package diagnostics

import (
	"fmt"
	"io"
	"sync"
)

// Bag collects diagnostics during a tokenization session. Safe for
// concurrent use; the per-file lex workers all report into one bag.
type Bag struct {
	mu          sync.Mutex
	diagnostics []*Diagnostic
	errorCount  int
	warnCount   int
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add adds a diagnostic to the bag.
func (b *Bag) Add(diag *Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.diagnostics = append(b.diagnostics, diag)
	switch diag.Severity {
	case Error:
		b.errorCount++
	case Warning:
		b.warnCount++
	}
}

// HasErrors returns true if there are any error-severity diagnostics.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorCount > 0
}

// ErrorCount returns the number of errors.
func (b *Bag) ErrorCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorCount
}

// WarningCount returns the number of warnings.
func (b *Bag) WarningCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.warnCount
}

// Diagnostics returns a snapshot of the collected diagnostics.
func (b *Bag) Diagnostics() []*Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Diagnostic, len(b.diagnostics))
	copy(out, b.diagnostics)
	return out
}

// EmitAll writes every diagnostic to w, one per line, followed by a
// summary when anything was reported.
func (b *Bag) EmitAll(w io.Writer) {
	b.mu.Lock()
	diags := make([]*Diagnostic, len(b.diagnostics))
	copy(diags, b.diagnostics)
	errorCount := b.errorCount
	warnCount := b.warnCount
	b.mu.Unlock()

	for _, d := range diags {
		fmt.Fprintln(w, d.String())
		if d.Help != "" {
			fmt.Fprintf(w, "  help: %s\n", d.Help)
		}
	}

	if errorCount > 0 {
		fmt.Fprintf(w, "\ntokenization failed with %d error(s)", errorCount)
		if warnCount > 0 {
			fmt.Fprintf(w, " and %d warning(s)", warnCount)
		}
		fmt.Fprintln(w)
	} else if warnCount > 0 {
		fmt.Fprintf(w, "\ntokenization succeeded with %d warning(s)\n", warnCount)
	}
}

// Clear removes all diagnostics.
func (b *Bag) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diagnostics = nil
	b.errorCount = 0
	b.warnCount = 0
}
