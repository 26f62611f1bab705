package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/obinexus/rift-sub000/internal/token"
)

type recordingConsumer struct {
	paths []string
	recs  int
}

func (rc *recordingConsumer) Consume(file *SourceFile) error {
	rc.paths = append(rc.paths, file.Path)
	rc.recs += len(file.Records)
	return nil
}

type rejectAllValidator struct{}

func (rejectAllValidator) Validate(*SourceFile) (bool, string) {
	return false, "rejected by policy"
}

func TestPipelineLexesRegisteredFiles(t *testing.T) {
	p := NewPipeline(&Options{})
	p.Context.AddFile("a.rift", []byte("abc 42"))
	p.Context.AddFile("b.rift", []byte("+ -"))

	if err := RunLexPhase(p.Context); err != nil {
		t.Fatalf("lex phase failed: %v", err)
	}

	a := p.Context.GetFile("a.rift")
	if a == nil || len(a.Records) == 0 {
		t.Fatal("a.rift was not lexed")
	}
	last := a.Records[len(a.Records)-1]
	if last.Kind() != token.EOF || last.Offset() != len(a.Content) {
		t.Errorf("stream must end with EOF at buffer length, got %s", last)
	}

	b := p.Context.GetFile("b.rift")
	if b.Stats.Records != len(b.Records) {
		t.Errorf("stats disagree with the stream: %d != %d", b.Stats.Records, len(b.Records))
	}
}

func TestPipelineSharesPatternsThroughCache(t *testing.T) {
	opts := &Options{
		Patterns: []PatternSpec{
			{Text: `R"/[0-9]+/"`, Kind: token.Number},
			{Text: `R"/[a-z]+/"`, Kind: token.Identifier},
		},
	}
	p := NewPipeline(opts)
	for i := 0; i < 4; i++ {
		p.Context.AddFile(fmt.Sprintf("f%d.rift", i), []byte("abc 123"))
	}

	if err := RunLexPhase(p.Context); err != nil {
		t.Fatalf("lex phase failed: %v", err)
	}

	// Two patterns compiled once when the context pinned them; all 8
	// worker acquisitions are hits regardless of worker scheduling.
	if got := p.Context.Cache.Misses(); got != 2 {
		t.Errorf("cache misses = %d, want 2", got)
	}
	if got := p.Context.Cache.Hits(); got != 8 {
		t.Errorf("cache hits = %d, want 8", got)
	}
	// The pinned references keep the entries alive after the workers
	// release theirs.
	if got := p.Context.Cache.Len(); got != 2 {
		t.Errorf("cache entries after phase = %d, want 2", got)
	}

	p.Context.Close()
	if got := p.Context.Cache.Len(); got != 0 {
		t.Errorf("cache entries after context close = %d, want 0", got)
	}
}

// Sequential workers must not recompile: the pinned references prevent
// per-file releases from emptying the cache between files.
func TestPatternsSurviveSequentialLexRuns(t *testing.T) {
	opts := &Options{
		Patterns: []PatternSpec{{Text: `R"/[0-9]+/"`, Kind: token.Number}},
	}
	ctx := New(opts)
	defer ctx.Close()

	ctx.AddFile("one.rift", []byte("1"))
	if err := RunLexPhase(ctx); err != nil {
		t.Fatal(err)
	}
	ctx.AddFile("two.rift", []byte("2"))
	if err := RunLexPhase(ctx); err != nil {
		t.Fatal(err)
	}

	if got := ctx.Cache.Misses(); got != 1 {
		t.Errorf("pattern recompiled: misses = %d, want 1", got)
	}
}

func TestPipelineConsumerReceivesValidatedStreams(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.rift")
	pathB := filepath.Join(dir, "b.rift")
	if err := os.WriteFile(pathA, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pathB, []byte("y = 2"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(&Options{})
	rc := &recordingConsumer{}
	p.Consumer = rc

	if err := p.Run(pathA, pathB); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if len(rc.paths) != 2 {
		t.Fatalf("consumer saw %d files, want 2", len(rc.paths))
	}
	// Registration order is preserved.
	if filepath.Base(rc.paths[0]) != "a.rift" || filepath.Base(rc.paths[1]) != "b.rift" {
		t.Errorf("consumption order wrong: %v", rc.paths)
	}
	if rc.recs == 0 {
		t.Errorf("consumer received no records")
	}
}

func TestPipelineValidatorWithholdsRejectedFiles(t *testing.T) {
	p := NewPipeline(&Options{})
	p.Validator = rejectAllValidator{}
	rc := &recordingConsumer{}
	p.Consumer = rc
	p.Context.AddFile("a.rift", []byte("abc"))

	if err := RunLexPhase(p.Context); err != nil {
		t.Fatal(err)
	}
	if err := p.runValidatePhase(); err != nil {
		t.Fatal(err)
	}
	if err := p.runConsumePhase(); err != nil {
		t.Fatal(err)
	}

	if len(rc.paths) != 0 {
		t.Errorf("rejected files must not reach the consumer: %v", rc.paths)
	}
	if !p.Context.HasErrors() {
		t.Errorf("rejection must surface as an error diagnostic")
	}
}

func TestPipelineRecoveredLexErrorsBecomeDiagnostics(t *testing.T) {
	p := NewPipeline(&Options{})
	p.Context.AddFile("bad.rift", []byte("a @ b"))

	if err := RunLexPhase(p.Context); err != nil {
		t.Fatalf("lenient lexing must not abort the phase: %v", err)
	}

	file := p.Context.GetFile("bad.rift")
	if file.LexErr == nil {
		t.Errorf("recovered error must be recorded on the file")
	}
	if p.Context.Diagnostics.ErrorCount() != 1 {
		t.Errorf("expected 1 error diagnostic, got %d", p.Context.Diagnostics.ErrorCount())
	}

	// The stream still terminates and carries the error record.
	var sawError bool
	for _, rec := range file.Records {
		if rec.Kind() == token.Error {
			sawError = true
		}
	}
	if !sawError {
		t.Errorf("error record missing from the stream")
	}
}

func TestDefaultValidatorRequiresTerminatedStream(t *testing.T) {
	v := passValidator{}

	file := &SourceFile{Path: "x.rift", Content: []byte("ab")}
	if ok, _ := v.Validate(file); ok {
		t.Errorf("un-lexed file must fail validation")
	}

	eof, err := token.Encode(token.EOF, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	file.Records = []token.Record{eof}
	if ok, reason := v.Validate(file); !ok {
		t.Errorf("terminated stream must validate, got %q", reason)
	}

	// EOF at the wrong offset fails.
	misplaced, _ := token.Encode(token.EOF, 1, 0)
	file.Records = []token.Record{misplaced}
	if ok, _ := v.Validate(file); ok {
		t.Errorf("EOF away from the buffer length must fail validation")
	}

	// A stream ending in a non-EOF record fails even when that record is
	// otherwise well formed.
	id, _ := token.Encode(token.Identifier, 0, 2)
	file.Records = []token.Record{id}
	if ok, _ := v.Validate(file); ok {
		t.Errorf("stream without a terminal EOF record must fail validation")
	}
}
