// Package stage - lexical pipeline
//
// PIPELINE ARCHITECTURE:
// The pipeline orchestrates the stage-0 phases as a series of
// transformations over the shared Context:
//
//	Entry -> [File Discovery] -> Lex -> Validate -> Consume -> Exit
//
// Lexing runs one goroutine per file; validation and consumption run
// in registration order so downstream output is deterministic.
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

// Validator is the governance hook applied to every lexed file before
// its records reach the consumer. A failed validation reports a
// diagnostic and withholds the file from consumption.
type Validator interface {
	Validate(file *SourceFile) (bool, string)
}

// Consumer receives validated record streams. The downstream parser
// stage implements this; tests substitute their own.
type Consumer interface {
	Consume(file *SourceFile) error
}

// passValidator accepts every record stream that terminates with a
// structurally valid EOF record.
type passValidator struct{}

func (passValidator) Validate(file *SourceFile) (bool, string) {
	if len(file.Records) == 0 {
		return false, "empty record stream"
	}
	last := file.Records[len(file.Records)-1]
	if last.Kind() != token.EOF {
		return false, fmt.Sprintf("stream does not end with an EOF record: %s", last)
	}
	if !last.Valid(len(file.Content)) {
		return false, fmt.Sprintf("EOF record is not at the buffer length: %s", last)
	}
	return true, ""
}

// Pipeline wires the lexical phase to its validator and consumer.
type Pipeline struct {
	Context   *Context
	Validator Validator
	Consumer  Consumer
}

// NewPipeline creates a pipeline with the default validator and no
// consumer.
func NewPipeline(options *Options) *Pipeline {
	return &Pipeline{
		Context:   New(options),
		Validator: passValidator{},
	}
}

// Run executes discovery, lexing, validation and consumption over the
// given file paths.
func (p *Pipeline) Run(paths ...string) error {
	defer p.Context.Close()

	if p.Context.Options.Debug {
		fmt.Fprintf(os.Stderr, "\n[Phase 0] File Discovery\n")
	}
	for _, path := range paths {
		if _, err := p.Context.LoadFile(path); err != nil {
			return err
		}
	}

	if err := RunLexPhase(p.Context); err != nil {
		return err
	}

	if err := p.runValidatePhase(); err != nil {
		return err
	}

	if err := p.runConsumePhase(); err != nil {
		return err
	}

	if p.Context.HasErrors() {
		return fmt.Errorf("lexical phase failed with errors")
	}
	return nil
}

// RunLexPhase tokenizes all registered files in parallel. Each worker
// owns its tokenizer; the pattern cache is the only shared state.
func RunLexPhase(ctx *Context) error {
	if ctx.Options.Debug {
		fmt.Fprintf(os.Stderr, "\n[Phase 1] Lex (Parallel)\n")
	}

	if err := ctx.acquirePatterns(); err != nil {
		return err
	}

	files := ctx.GetAllFiles()
	errorChan := make(chan error, len(files))
	var wg sync.WaitGroup

	for _, file := range files {
		wg.Add(1)
		go func(f *SourceFile) {
			defer wg.Done()
			if err := lexFile(f, ctx); err != nil {
				errorChan <- fmt.Errorf("lexer failed on %s: %w", f.Path, err)
			}
		}(file)
	}

	wg.Wait()
	close(errorChan)

	for err := range errorChan {
		if err != nil {
			return err
		}
	}

	if ctx.Options.Debug {
		fmt.Fprintf(os.Stderr, "  Processed %d file(s)\n", len(files))
	}
	return nil
}

// lexFile tokenizes a single source file. This is the lexer phase
// worker; it is stateless and operates on the context.
func lexFile(file *SourceFile, ctx *Context) error {
	if ctx.Options.Debug {
		fmt.Fprintf(os.Stderr, "  Tokenizing %s (%d bytes)\n", file.Path, len(file.Content))
	}

	tok := tokenizer.New(tokenizer.Options{
		Strict: ctx.Options.Strict,
		Debug:  ctx.Options.Debug,
	})
	defer tok.Close()

	cfg := pattern.Config{
		Strict:      ctx.Options.Strict,
		Diagnostics: ctx.Diagnostics,
	}
	for _, spec := range ctx.Options.Patterns {
		if err := tok.AcquirePattern(ctx.Cache, spec.Text, spec.Kind, cfg); err != nil {
			return err
		}
	}

	if err := tok.SetInput(file.Content); err != nil {
		return err
	}
	if err := tok.Process(); err != nil {
		return err
	}

	file.Records = append([]token.Record(nil), tok.Tokens()...)
	file.Stats = tok.Stats()

	// Transfer recovered errors to the context; the record stream still
	// carries the error records for downstream inspection.
	if lexErr, pos := tok.LastError(); lexErr != nil {
		file.LexErr = lexErr
		ctx.Diagnostics.Add(
			diagnostics.NewError(fmt.Sprintf("lexer error: %s", lexErr.Error())).
				WithCode("L0001").
				WithPosition(file.Path, diagnostics.Position{Offset: pos}))
	}

	if ctx.Options.DumpDir != "" {
		if err := dumpFile(tok, file, ctx.Options.DumpDir); err != nil {
			return err
		}
	}

	if ctx.Options.Debug {
		fmt.Fprintf(os.Stderr, "    Generated %d records\n", len(file.Records))
	}
	return nil
}

// dumpFile writes the CSV token dump for one file while the tokenizer
// still holds the source spans.
func dumpFile(tok *tokenizer.Context, file *SourceFile, dir string) error {
	name := filepath.Base(file.Path) + ".csv"
	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("creating dump for %s: %w", file.Path, err)
	}
	defer out.Close()

	if err := tok.DumpCSV(out); err != nil {
		return fmt.Errorf("dumping %s: %w", file.Path, err)
	}
	return nil
}

// runValidatePhase applies the governance hook to every lexed file.
func (p *Pipeline) runValidatePhase() error {
	if p.Context.Options.Debug {
		fmt.Fprintf(os.Stderr, "\n[Phase 2] Validate\n")
	}
	if p.Validator == nil {
		p.Validator = passValidator{}
	}

	for _, file := range p.Context.GetAllFiles() {
		ok, reason := p.Validator.Validate(file)
		if !ok {
			p.Context.Diagnostics.Add(
				diagnostics.NewError(fmt.Sprintf("validation failed for %s: %s", file.Path, reason)).
					WithCode("V0001"))
		}
	}
	return nil
}

// runConsumePhase hands validated streams to the consumer in
// registration order.
func (p *Pipeline) runConsumePhase() error {
	if p.Consumer == nil {
		return nil
	}
	if p.Context.Options.Debug {
		fmt.Fprintf(os.Stderr, "\n[Phase 3] Consume\n")
	}

	for _, file := range p.Context.GetAllFiles() {
		ok, _ := p.Validator.Validate(file)
		if !ok {
			continue
		}
		if err := p.Consumer.Consume(file); err != nil {
			return fmt.Errorf("consumer failed on %s: %w", file.Path, err)
		}
	}
	return nil
}
