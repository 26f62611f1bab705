package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/obinexus/rift-sub000/internal/stage"
	"github.com/obinexus/rift-sub000/internal/token"
)

var cli struct {
	Debug   bool     `help:"Enable debug output."`
	Strict  bool     `help:"Reject unrecognized pattern flags and abort on unclassifiable input."`
	Pattern []string `help:"Preload a tokenizer pattern as KIND=LITERAL, e.g. NUMBER=R\"/[0-9]+/\". Repeatable." placeholder:"KIND=LITERAL"`
	DumpDir string   `help:"Write a CSV token dump per input file into this directory." type:"existingdir"`
	OutDir  string   `help:"Write the binary record stream per input file into this directory." type:"existingdir"`

	Files []string `arg:"" help:"Source files to tokenize." type:"existingfile"`
}

// streamWriter is the default consumer: it serializes each validated
// record stream next to its source file.
type streamWriter struct {
	dir string
}

func (sw streamWriter) Consume(file *stage.SourceFile) error {
	name := filepath.Base(file.Path) + ".rift0"
	out, err := os.Create(filepath.Join(sw.dir, name))
	if err != nil {
		return fmt.Errorf("creating output for %s: %w", file.Path, err)
	}
	defer out.Close()

	if err := token.WriteStream(out, file.Records); err != nil {
		return fmt.Errorf("writing record stream for %s: %w", file.Path, err)
	}
	return nil
}

func parsePatternSpecs(raw []string) ([]stage.PatternSpec, error) {
	specs := make([]stage.PatternSpec, 0, len(raw))
	for _, s := range raw {
		name, literal, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("pattern %q: want KIND=LITERAL", s)
		}
		kind, ok := token.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("pattern %q: unknown token kind %q", s, name)
		}
		specs = append(specs, stage.PatternSpec{Text: literal, Kind: kind})
	}
	return specs, nil
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("rift0"),
		kong.Description("Stage-0 tokenizer: compiles R-syntax patterns and emits fixed-width token records."))

	specs, err := parsePatternSpecs(cli.Pattern)
	kctx.FatalIfErrorf(err)

	pipeline := stage.NewPipeline(&stage.Options{
		Debug:    cli.Debug,
		Strict:   cli.Strict,
		Patterns: specs,
		DumpDir:  cli.DumpDir,
	})
	if cli.OutDir != "" {
		pipeline.Consumer = streamWriter{dir: cli.OutDir}
	}

	if err := pipeline.Run(cli.Files...); err != nil {
		pipeline.Context.EmitDiagnostics()
		fmt.Fprintf(os.Stderr, "\nTokenization failed: %v\n", err)
		os.Exit(1)
	}

	pipeline.Context.EmitDiagnostics()

	if cli.Debug {
		for _, file := range pipeline.Context.GetAllFiles() {
			st := file.Stats
			fmt.Fprintf(os.Stderr, "%s: %d records (%d pattern, %d fallback, %d error)\n",
				filepath.Base(file.Path), st.Records, st.PatternMatches, st.FallbackTokens, st.ErrorTokens)
		}
	}
}
