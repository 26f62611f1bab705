package token

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when an encode input is out of range for
// its record field.
var ErrInvalidArgument = errors.New("invalid argument")

// Field limits implied by the record layout.
const (
	MaxOffset = 1<<16 - 1
	MaxAux    = 1<<8 - 1
)

// Record is the fixed-width token record: kind in the low 8 bits, offset in
// the next 16, aux in the high 8. Records are immutable once emitted; the
// caller owns any record returned to it.
type Record uint32

// Encode packs the three fields into a Record. The kind must be a
// recognized classification and the offset must fit in 16 bits.
func Encode(kind Kind, offset int, aux uint8) (Record, error) {
	if !kind.Recognized() {
		return 0, fmt.Errorf("%w: unrecognized kind %d", ErrInvalidArgument, uint8(kind))
	}
	if offset < 0 || offset > MaxOffset {
		return 0, fmt.Errorf("%w: offset %d out of range [0, %d]", ErrInvalidArgument, offset, MaxOffset)
	}
	return Record(uint32(kind) | uint32(offset)<<8 | uint32(aux)<<24), nil
}

// Decode unpacks a record into its three fields.
func Decode(r Record) (Kind, int, uint8) {
	return r.Kind(), r.Offset(), r.Aux()
}

func (r Record) Kind() Kind {
	return Kind(r & 0xff)
}

// Offset is the byte offset into the source buffer that produced the
// record.
func (r Record) Offset() int {
	return int(r >> 8 & 0xffff)
}

func (r Record) Aux() uint8 {
	return uint8(r >> 24)
}

// Valid reports whether the record carries a recognized kind and an offset
// within the bounds of a buffer of bufLen bytes. The terminal EOF record is
// positioned at the buffer length itself and is valid there.
func (r Record) Valid(bufLen int) bool {
	if !r.Kind().Recognized() {
		return false
	}
	if r.Kind() == EOF {
		return r.Offset() == bufLen
	}
	return r.Offset() < bufLen
}

// Flags interprets aux as a flag bitmask. Only meaningful when
// r.Kind().CarriesFlags() is true; for length-bearing kinds aux is the
// consumed length and this accessor must not be used.
func (r Record) Flags() Flags {
	return Flags(r.Aux())
}

// WithFlags returns a copy of r with aux replaced by the given bitmask.
func (r Record) WithFlags(f Flags) Record {
	return r&0x00ffffff | Record(uint32(f)<<24)
}

func (r Record) String() string {
	if r.Kind().CarriesFlags() {
		return fmt.Sprintf("%s@%d[%s]", r.Kind(), r.Offset(), r.Flags())
	}
	return fmt.Sprintf("%s@%d+%d", r.Kind(), r.Offset(), r.Aux())
}
