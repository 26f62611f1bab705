package token

import (
	"errors"
	"fmt"
	"io"

	"github.com/calmh/xdr"
)

// Wire format: each record is written as one big-endian uint32, exactly
// four bytes, no padding between records. A well-formed stream ends with
// the terminal EOF record.

// ErrTruncatedStream is returned when a stream ends before its terminal EOF
// record, or in the middle of a record.
var ErrTruncatedStream = errors.New("token stream truncated before EOF record")

// WriteStream writes the record sequence to w in wire order.
func WriteStream(w io.Writer, recs []Record) error {
	m := &xdr.Marshaller{Data: make([]byte, 4*len(recs))}
	for _, r := range recs {
		m.MarshalUint32(uint32(r))
	}
	if m.Error != nil {
		return m.Error
	}
	if _, err := w.Write(m.Data); err != nil {
		return fmt.Errorf("writing record stream: %w", err)
	}
	return nil
}

// ReadStream reads records from r up to and including the terminal EOF
// record. A stream that ends without one yields ErrTruncatedStream.
func ReadStream(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	u := &xdr.Unmarshaller{Data: data}
	var recs []Record
	for len(u.Data) > 0 {
		v := u.UnmarshalUint32()
		if u.Error != nil {
			// Trailing partial record.
			return recs, ErrTruncatedStream
		}
		recs = append(recs, Record(v))
		if Record(v).Kind() == EOF {
			return recs, nil
		}
	}
	return recs, ErrTruncatedStream
}
