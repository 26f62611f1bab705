package tokenizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/obinexus/rift-sub000/internal/token"
)

var dumpHeader = []string{"seq", "kind", "raw", "processed", "line", "col_start", "col_end", "offset", "aux"}

// DumpCSV writes the emitted records as CSV, one row per record plus a
// header row. The raw column is the exact source slice; the processed
// column escapes control bytes so whitespace tokens stay visible in the
// dump.
func (c *Context) DumpCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dumpHeader); err != nil {
		return fmt.Errorf("writing dump header: %w", err)
	}

	for i, rec := range c.records {
		kind, offset, aux := token.Decode(rec)
		sp := c.spans[i]

		raw := ""
		if sp.end <= len(c.input) {
			raw = string(c.input[sp.start:sp.end])
		}

		auxCol := strconv.Itoa(int(aux))
		if kind.CarriesFlags() {
			auxCol = token.Flags(aux).String()
		}

		row := []string{
			strconv.Itoa(i),
			kind.String(),
			raw,
			escape(raw),
			strconv.Itoa(sp.line),
			strconv.Itoa(sp.startCol),
			strconv.Itoa(sp.endCol),
			strconv.Itoa(int(offset)),
			auxCol,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing dump row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// escape makes control bytes printable; strconv.Quote does the work and
// the surrounding quotes are dropped.
func escape(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}
