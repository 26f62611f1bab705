// Package stage provides the shared context and pipeline for running
// the stage-0 lexical phase over a set of source files.
//
// ARCHITECTURE DESIGN:
// All phase state lives in one Context; the phases themselves are
// stateless workers that receive the Context and operate on SourceFile
// objects within it. Each file gets its own tokenizer while compiled
// patterns are shared through the context's pattern cache, so parallel
// lexing contends only on the cache lock.
package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/obinexus/rift-sub000/internal/diagnostics"
	"github.com/obinexus/rift-sub000/internal/pattern"
	"github.com/obinexus/rift-sub000/internal/token"
	"github.com/obinexus/rift-sub000/internal/tokenizer"
)

// PatternSpec binds an R-syntax literal to the token kind its matches
// produce.
type PatternSpec struct {
	Text string
	Kind token.Kind
}

// Options holds stage configuration. Passed to the context at creation
// time and remains immutable.
type Options struct {
	Debug     bool          // trace phase progress to stderr
	Strict    bool          // strict pattern flags and strict tokenization
	Patterns  []PatternSpec // patterns registered on every file's tokenizer
	CacheSize int           // pattern cache capacity, zero for the default
	DumpDir   string        // when set, write a CSV token dump per file here
}

// SourceFile carries one input buffer through the lexical phase.
type SourceFile struct {
	Path    string
	Content []byte

	Records []token.Record
	Stats   tokenizer.Stats

	// LexErr is the most recent recovered tokenization error, if any.
	// Fatal errors abort the phase instead.
	LexErr error
}

// Context is the central hub for lexical phase state.
type Context struct {
	Diagnostics *diagnostics.Bag

	// Files maps absolute path -> SourceFile; FileOrder preserves
	// registration order for deterministic output.
	Files     map[string]*SourceFile
	FileOrder []string

	// Cache is shared by every tokenizer the phase creates.
	Cache *pattern.Cache

	Options *Options

	// held pins one cache reference per configured pattern for the
	// lifetime of the context, so per-file releases never drop a shared
	// entry to zero mid-phase.
	held     []*pattern.Pattern
	acquired bool

	mu sync.RWMutex
}

// New creates a stage context ready for file registration.
func New(options *Options) *Context {
	if options == nil {
		options = &Options{}
	}
	return &Context{
		Diagnostics: diagnostics.NewBag(),
		Files:       make(map[string]*SourceFile),
		Cache:       pattern.NewCache(pattern.CacheOptions{MaxEntries: options.CacheSize}),
		Options:     options,
	}
}

// AddFile registers an in-memory buffer under the given path.
func (ctx *Context) AddFile(path string, content []byte) *SourceFile {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	file := &SourceFile{Path: path, Content: content}
	ctx.Files[path] = file
	ctx.FileOrder = append(ctx.FileOrder, path)
	return file
}

// LoadFile reads a file from disk and registers it under its absolute
// path.
func (ctx *Context) LoadFile(path string) (*SourceFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	if ctx.Options.Debug {
		fmt.Fprintf(os.Stderr, "  Registered: %s (%d bytes)\n", absPath, len(content))
	}
	return ctx.AddFile(absPath, content), nil
}

// GetFile retrieves a registered file by path, nil when absent.
func (ctx *Context) GetFile(path string) *SourceFile {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.Files[path]
}

// GetAllFiles returns all registered files in registration order.
func (ctx *Context) GetAllFiles() []*SourceFile {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	files := make([]*SourceFile, 0, len(ctx.FileOrder))
	for _, path := range ctx.FileOrder {
		files = append(files, ctx.Files[path])
	}
	return files
}

// acquirePatterns compiles every configured pattern once and keeps the
// reference. Subsequent per-file acquisitions are cache hits against
// these pinned entries. Idempotent.
func (ctx *Context) acquirePatterns() error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.acquired {
		return nil
	}
	cfg := pattern.Config{
		Strict:      ctx.Options.Strict,
		Diagnostics: ctx.Diagnostics,
	}
	for _, spec := range ctx.Options.Patterns {
		p, err := ctx.Cache.CompileOrGet(spec.Text, cfg)
		if err != nil {
			return fmt.Errorf("compiling pattern %q: %w", spec.Text, err)
		}
		ctx.held = append(ctx.held, p)
	}
	ctx.acquired = true
	return nil
}

// Close releases the context's pinned pattern references. The context
// can be reused; the next lex phase re-acquires them.
func (ctx *Context) Close() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	for _, p := range ctx.held {
		ctx.Cache.Release(p)
	}
	ctx.held = nil
	ctx.acquired = false
}

// HasErrors reports whether any phase reported an error diagnostic.
func (ctx *Context) HasErrors() bool {
	return ctx.Diagnostics.HasErrors()
}

// EmitDiagnostics writes all collected diagnostics to stderr.
func (ctx *Context) EmitDiagnostics() {
	ctx.Diagnostics.EmitAll(os.Stderr)
}
