package diagnostics

import (
	"strings"
	"sync"
	"testing"
)

func TestBagCounts(t *testing.T) {
	bag := NewBag()
	bag.Add(NewError("bad byte"))
	bag.Add(NewWarning("odd flag"))
	bag.Add(NewInfo("fyi"))

	if !bag.HasErrors() {
		t.Errorf("bag with an error must report HasErrors")
	}
	if bag.ErrorCount() != 1 || bag.WarningCount() != 1 {
		t.Errorf("counts = %d errors, %d warnings, want 1 and 1", bag.ErrorCount(), bag.WarningCount())
	}
	if len(bag.Diagnostics()) != 3 {
		t.Errorf("snapshot has %d diagnostics, want 3", len(bag.Diagnostics()))
	}

	bag.Clear()
	if bag.HasErrors() || len(bag.Diagnostics()) != 0 {
		t.Errorf("Clear must empty the bag")
	}
}

func TestDiagnosticString(t *testing.T) {
	d := NewError("unexpected byte").
		WithCode("L0001").
		WithPosition("main.rift", Position{Line: 3, Column: 7})

	s := d.String()
	for _, want := range []string{"error", "L0001", "main.rift:3:7", "unexpected byte"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestEmitAllSummary(t *testing.T) {
	bag := NewBag()
	bag.Add(NewError("boom").WithHelp("remove the byte"))
	bag.Add(NewWarning("meh"))

	var sb strings.Builder
	bag.EmitAll(&sb)
	out := sb.String()

	if !strings.Contains(out, "help: remove the byte") {
		t.Errorf("help line missing from output:\n%s", out)
	}
	if !strings.Contains(out, "1 error(s)") || !strings.Contains(out, "1 warning(s)") {
		t.Errorf("summary missing from output:\n%s", out)
	}
}

func TestBagConcurrentAdd(t *testing.T) {
	bag := NewBag()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bag.Add(NewWarning("w"))
			}
		}()
	}
	wg.Wait()

	if got := bag.WarningCount(); got != 500 {
		t.Errorf("WarningCount = %d, want 500", got)
	}
}
