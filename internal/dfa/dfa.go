// Package dfa implements the deterministic finite automaton engine that
// backs pattern compilation, boolean composition and the tokenizer driver.
//
// Each state owns a full transition table: any number of symbols may leave
// a state, but every (state, symbol) pair has at most one successor. That
// partial-function property is the determinism invariant; AddTransition
// enforces it. Execution consumes exactly one input symbol per step, so a
// run over finite input always terminates regardless of cycles in the
// state graph.
package dfa

import (
	"errors"
	"sort"
)

var (
	// ErrNilState is returned when a transition endpoint is missing.
	ErrNilState = errors.New("dfa: nil state")

	// ErrConflictingTransition is returned when a second, different target
	// is registered for a (state, symbol) pair.
	ErrConflictingTransition = errors.New("dfa: conflicting transition for symbol")
)

// State is one node of an automaton. The state graph is owned exclusively
// by the automaton (or composed automaton) that created it and is released
// together with it.
type State struct {
	id          int
	accepting   bool
	start       bool
	transitions map[byte]*State
}

// NewState creates a detached state with the given identifier.
func NewState(id int, accepting bool) *State {
	return &State{
		id:          id,
		accepting:   accepting,
		transitions: make(map[byte]*State),
	}
}

func (s *State) ID() int { return s.id }

// IsAccepting reports whether the state is a final state. A nil state is
// never accepting.
func (s *State) IsAccepting() bool {
	return s != nil && s.accepting
}

// SetAccepting flips the final flag. Used by subset construction and
// composition, which only learn acceptance after creating the state.
func (s *State) SetAccepting(accepting bool) {
	s.accepting = accepting
}

func (s *State) IsStart() bool { return s != nil && s.start }

func (s *State) SetStart(start bool) {
	s.start = start
}

// AddTransition registers symbol as leading from s to to. Registering the
// same target twice is a no-op; a different target for an already-mapped
// symbol violates determinism and fails.
func AddTransition(from, to *State, symbol byte) error {
	if from == nil || to == nil {
		return ErrNilState
	}
	if existing, ok := from.transitions[symbol]; ok {
		if existing == to {
			return nil
		}
		return ErrConflictingTransition
	}
	from.transitions[symbol] = to
	return nil
}

// Next returns the successor for symbol, if one is registered.
func (s *State) Next(symbol byte) (*State, bool) {
	if s == nil {
		return nil, false
	}
	next, ok := s.transitions[symbol]
	return next, ok
}

// Symbols returns the symbols with outgoing transitions, in ascending
// order. Composition iterates these to build the product alphabet.
func (s *State) Symbols() []byte {
	if s == nil {
		return nil
	}
	syms := make([]byte, 0, len(s.transitions))
	for c := range s.transitions {
		syms = append(syms, c)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

// Run consumes the input one symbol at a time starting from start. It
// returns the final state reached, or (nil, false) as soon as a symbol has
// no registered transition; the caller decides recovery policy. There is
// no wildcard fallback.
func Run(start *State, input []byte) (*State, bool) {
	if start == nil {
		return nil, false
	}
	cur := start
	for _, c := range input {
		next, ok := cur.Next(c)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Reachable returns every state reachable from start, including start
// itself, in breadth-first order with deterministic edge ordering.
func Reachable(start *State) []*State {
	if start == nil {
		return nil
	}
	seen := map[*State]bool{start: true}
	order := []*State{start}
	for i := 0; i < len(order); i++ {
		s := order[i]
		for _, c := range s.Symbols() {
			next := s.transitions[c]
			if !seen[next] {
				seen[next] = true
				order = append(order, next)
			}
		}
	}
	return order
}
