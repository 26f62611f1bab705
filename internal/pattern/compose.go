package pattern

import (
	"fmt"

	"github.com/obinexus/rift-sub000/internal/dfa"
	"github.com/obinexus/rift-sub000/internal/token"
)

// Boolean composition over compiled patterns: the standard product
// construction over pairs of operand states. The composed automaton is
// itself deterministic, so compositions nest freely.
//
// For AND and NAND a transition exists only where both operands can move.
// For OR and XOR a missing side is treated as a non-accepting sink: the
// pair continues with the remaining operand alone.

// Op selects a boolean composition.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpXor
	OpNand
)

func (op Op) String() string {
	switch op {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpXor:
		return "XOR"
	case OpNand:
		return "NAND"
	default:
		return "INVALID"
	}
}

// accepts applies the composition's acceptance rule to one state pair.
func (op Op) accepts(a, b bool) bool {
	switch op {
	case OpAnd:
		return a && b
	case OpOr:
		return a || b
	case OpXor:
		return a != b
	case OpNand:
		return !(a && b)
	default:
		return false
	}
}

// needsBoth reports whether the op requires both operand transitions for a
// product transition to exist.
func (op Op) needsBoth() bool {
	return op == OpAnd || op == OpNand
}

// Compose builds a new deterministic automaton from a and b under op. The
// operands are not modified and remain usable; the result owns a fresh
// state graph.
func Compose(a, b *Pattern, op Op) (*Pattern, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil composition operand", ErrInvalidArgument)
	}
	if op < OpAnd || op > OpNand {
		return nil, fmt.Errorf("%w: unknown composition op %d", ErrInvalidArgument, op)
	}

	type pairKey [2]int
	sideID := func(s *dfa.State) int {
		if s == nil {
			return -1 // the non-accepting sink
		}
		return s.ID()
	}

	type pair struct{ a, b *dfa.State }
	states := map[pairKey]*dfa.State{}
	var queue []pair
	nextID := 0

	productState := func(sa, sb *dfa.State) *dfa.State {
		key := pairKey{sideID(sa), sideID(sb)}
		if st, ok := states[key]; ok {
			return st
		}
		st := dfa.NewState(nextID, op.accepts(sa.IsAccepting(), sb.IsAccepting()))
		nextID++
		states[key] = st
		queue = append(queue, pair{sa, sb})
		return st
	}

	start := productState(a.start, b.start)
	start.SetStart(true)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		cur := states[pairKey{sideID(p.a), sideID(p.b)}]

		for _, c := range unionSymbols(p.a, p.b) {
			na, okA := p.a.Next(c)
			nb, okB := p.b.Next(c)
			if op.needsBoth() {
				if !okA || !okB {
					continue
				}
			} else if !okA && !okB {
				continue
			}
			if !okA {
				na = nil
			}
			if !okB {
				nb = nil
			}
			if err := dfa.AddTransition(cur, productState(na, nb), c); err != nil {
				return nil, err
			}
		}
	}

	return &Pattern{
		Source:   fmt.Sprintf("%s(%s,%s)", op, Signature(a.Source), Signature(b.Source)),
		Flags:    a.Flags | b.Flags | token.FlagComposed,
		Composed: true,
		start:    start,
	}, nil
}

// And, Or, Xor and Nand mirror the original composition entry points.
func And(a, b *Pattern) (*Pattern, error)  { return Compose(a, b, OpAnd) }
func Or(a, b *Pattern) (*Pattern, error)   { return Compose(a, b, OpOr) }
func Xor(a, b *Pattern) (*Pattern, error)  { return Compose(a, b, OpXor) }
func Nand(a, b *Pattern) (*Pattern, error) { return Compose(a, b, OpNand) }

// unionSymbols merges the outgoing symbol sets of both sides, ascending
// and without duplicates. Either side may be the nil sink.
func unionSymbols(a, b *dfa.State) []byte {
	sa, sb := a.Symbols(), b.Symbols()
	out := make([]byte, 0, len(sa)+len(sb))
	i, j := 0, 0
	for i < len(sa) || j < len(sb) {
		switch {
		case j >= len(sb) || (i < len(sa) && sa[i] < sb[j]):
			out = append(out, sa[i])
			i++
		case i >= len(sa) || sb[j] < sa[i]:
			out = append(out, sb[j])
			j++
		default:
			out = append(out, sa[i])
			i++
			j++
		}
	}
	return out
}
