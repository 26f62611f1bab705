package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/obinexus/rift-sub000/internal/dfa"
	"github.com/obinexus/rift-sub000/internal/token"
)

// The body sub-language: literal bytes, '.', escapes, character classes
// with ranges and negation, the quantifiers * + ?, grouping and
// alternation. Alternation and quantifiers introduce non-determinism, so
// the body is first built as a Thompson NFA and then determinized with the
// standard subset construction; the result handed to the engine is always
// a DFA.

// symbolSet is a 256-bit membership set over input bytes.
type symbolSet [4]uint64

func (s *symbolSet) add(c byte) {
	s[c>>6] |= 1 << (c & 63)
}

func (s *symbolSet) addRange(lo, hi byte) {
	for c := int(lo); c <= int(hi); c++ {
		s.add(byte(c))
	}
}

func (s *symbolSet) has(c byte) bool {
	return s[c>>6]&(1<<(c&63)) != 0
}

func (s *symbolSet) negate() {
	for i := range s {
		s[i] = ^s[i]
	}
}

// foldCase widens the set so that letters match both cases.
func (s *symbolSet) foldCase() {
	for c := byte('a'); c <= 'z'; c++ {
		if s.has(c) {
			s.add(c - 'a' + 'A')
		}
	}
	for c := byte('A'); c <= 'Z'; c++ {
		if s.has(c) {
			s.add(c - 'A' + 'a')
		}
	}
}

// nfaNode is one state of the intermediate Thompson automaton.
type nfaNode struct {
	id    int
	eps   []*nfaNode
	edges []nfaEdge
}

type nfaEdge struct {
	set symbolSet
	to  *nfaNode
}

// frag is an automaton fragment with a single entry and a single exit.
type frag struct {
	start  *nfaNode
	accept *nfaNode
}

// bodyBuilder is a recursive-descent parser over the body text producing
// NFA fragments bottom-up.
type bodyBuilder struct {
	body   string
	pos    int
	nextID int
	fold   bool // case-insensitive compile
}

func (b *bodyBuilder) node() *nfaNode {
	n := &nfaNode{id: b.nextID}
	b.nextID++
	return n
}

func (b *bodyBuilder) peek() (byte, bool) {
	if b.pos >= len(b.body) {
		return 0, false
	}
	return b.body[b.pos], true
}

func (b *bodyBuilder) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s at body offset %d", ErrMalformedPattern, fmt.Sprintf(format, args...), b.pos)
}

// parseAlt: concat ('|' concat)*
func (b *bodyBuilder) parseAlt() (frag, error) {
	left, err := b.parseConcat()
	if err != nil {
		return frag{}, err
	}
	for {
		c, ok := b.peek()
		if !ok || c != '|' {
			return left, nil
		}
		b.pos++
		right, err := b.parseConcat()
		if err != nil {
			return frag{}, err
		}
		alt := frag{start: b.node(), accept: b.node()}
		alt.start.eps = append(alt.start.eps, left.start, right.start)
		left.accept.eps = append(left.accept.eps, alt.accept)
		right.accept.eps = append(right.accept.eps, alt.accept)
		left = alt
	}
}

// parseConcat: repeat*
func (b *bodyBuilder) parseConcat() (frag, error) {
	// Empty concatenation accepts the empty string.
	cur := frag{start: b.node()}
	cur.accept = cur.start

	for {
		c, ok := b.peek()
		if !ok || c == '|' || c == ')' {
			return cur, nil
		}
		next, err := b.parseRepeat()
		if err != nil {
			return frag{}, err
		}
		cur.accept.eps = append(cur.accept.eps, next.start)
		cur = frag{start: cur.start, accept: next.accept}
	}
}

// parseRepeat: atom ('*' | '+' | '?')?
func (b *bodyBuilder) parseRepeat() (frag, error) {
	atom, err := b.parseAtom()
	if err != nil {
		return frag{}, err
	}

	c, ok := b.peek()
	if !ok {
		return atom, nil
	}
	switch c {
	case '*':
		b.pos++
		f := frag{start: b.node(), accept: b.node()}
		f.start.eps = append(f.start.eps, atom.start, f.accept)
		atom.accept.eps = append(atom.accept.eps, atom.start, f.accept)
		return f, nil
	case '+':
		b.pos++
		f := frag{start: atom.start, accept: b.node()}
		atom.accept.eps = append(atom.accept.eps, atom.start, f.accept)
		return f, nil
	case '?':
		b.pos++
		f := frag{start: b.node(), accept: b.node()}
		f.start.eps = append(f.start.eps, atom.start, f.accept)
		atom.accept.eps = append(atom.accept.eps, f.accept)
		return f, nil
	}
	return atom, nil
}

// parseAtom: literal, '.', escape, class or group.
func (b *bodyBuilder) parseAtom() (frag, error) {
	c, ok := b.peek()
	if !ok {
		return frag{}, b.errorf("expected atom")
	}

	switch c {
	case '(':
		b.pos++
		inner, err := b.parseAlt()
		if err != nil {
			return frag{}, err
		}
		if c, ok := b.peek(); !ok || c != ')' {
			return frag{}, b.errorf("unclosed group")
		}
		b.pos++
		return inner, nil

	case '[':
		set, err := b.parseClass()
		if err != nil {
			return frag{}, err
		}
		return b.symbolFrag(set), nil

	case '.':
		b.pos++
		var set symbolSet
		set.addRange(0, 255)
		// '.' never crosses a line boundary.
		set[byte('\n')>>6] &^= 1 << ('\n' & 63)
		return b.symbolFrag(set), nil

	case '\\':
		b.pos++
		e, ok := b.peek()
		if !ok {
			return frag{}, b.errorf("dangling escape")
		}
		b.pos++
		return b.symbolFrag(b.escapeSet(e)), nil

	case '*', '+', '?', '|', ')':
		return frag{}, b.errorf("unexpected metacharacter %q", c)

	default:
		b.pos++
		var set symbolSet
		set.add(c)
		return b.symbolFrag(set), nil
	}
}

// parseClass consumes a [...] character class, supporting ranges and
// leading ^ negation.
func (b *bodyBuilder) parseClass() (symbolSet, error) {
	var set symbolSet
	b.pos++ // consume '['

	negated := false
	if c, ok := b.peek(); ok && c == '^' {
		negated = true
		b.pos++
	}

	first := true
	for {
		c, ok := b.peek()
		if !ok {
			return set, fmt.Errorf("%w: unclosed character class", ErrMalformedPattern)
		}
		if c == ']' && !first {
			b.pos++
			break
		}
		first = false

		if c == '\\' {
			b.pos++
			e, ok := b.peek()
			if !ok {
				return set, fmt.Errorf("%w: dangling escape in class", ErrMalformedPattern)
			}
			c = e
		}
		b.pos++

		// Range if a '-' follows with a closing member after it.
		if n, ok := b.peek(); ok && n == '-' {
			if b.pos+1 < len(b.body) && b.body[b.pos+1] != ']' {
				b.pos++ // consume '-'
				hi, _ := b.peek()
				if hi == '\\' {
					b.pos++
					hi, _ = b.peek()
				}
				b.pos++
				if hi < c {
					return set, fmt.Errorf("%w: inverted class range %c-%c", ErrMalformedPattern, c, hi)
				}
				set.addRange(c, hi)
				continue
			}
		}
		set.add(c)
	}

	if negated {
		set.negate()
	}
	return set, nil
}

// escapeSet resolves a backslash escape to its symbol set.
func (b *bodyBuilder) escapeSet(c byte) symbolSet {
	var set symbolSet
	switch c {
	case 'n':
		set.add('\n')
	case 't':
		set.add('\t')
	case 'r':
		set.add('\r')
	case 'd':
		set.addRange('0', '9')
	case 'w':
		set.addRange('a', 'z')
		set.addRange('A', 'Z')
		set.addRange('0', '9')
		set.add('_')
	case 's':
		for _, ws := range []byte{' ', '\t', '\n', '\r', '\v', '\f'} {
			set.add(ws)
		}
	default:
		set.add(c)
	}
	return set
}

// symbolFrag builds the two-state fragment for one symbol set, folding
// case when the i flag is active.
func (b *bodyBuilder) symbolFrag(set symbolSet) frag {
	if b.fold {
		set.foldCase()
	}
	f := frag{start: b.node(), accept: b.node()}
	f.start.edges = append(f.start.edges, nfaEdge{set: set, to: f.accept})
	return f
}

// compileBody parses the body text and determinizes the resulting NFA.
// Returns the DFA start state.
func compileBody(body string, flags token.Flags) (*dfa.State, error) {
	b := &bodyBuilder{body: body, fold: flags.Has(token.FlagIgnoreCase)}
	f, err := b.parseAlt()
	if err != nil {
		return nil, err
	}
	if b.pos != len(body) {
		return nil, b.errorf("unexpected %q", body[b.pos])
	}
	return determinize(f), nil
}

// closure expands a node set across epsilon edges, in place.
func closure(set map[*nfaNode]bool) {
	stack := make([]*nfaNode, 0, len(set))
	for n := range set {
		stack = append(stack, n)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.eps {
			if !set[e] {
				set[e] = true
				stack = append(stack, e)
			}
		}
	}
}

// setKey produces a canonical identity for a determinized node set.
func setKey(set map[*nfaNode]bool) string {
	ids := make([]int, 0, len(set))
	for n := range set {
		ids = append(ids, n.id)
	}
	sort.Ints(ids)
	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "%d,", id)
	}
	return sb.String()
}

// determinize applies the subset construction to the fragment, producing
// an equivalent DFA accepting the same language.
func determinize(f frag) *dfa.State {
	startSet := map[*nfaNode]bool{f.start: true}
	closure(startSet)

	type dstate struct {
		nodes map[*nfaNode]bool
		state *dfa.State
	}

	nextID := 0
	states := map[string]*dstate{}

	newDState := func(nodes map[*nfaNode]bool) *dstate {
		ds := &dstate{
			nodes: nodes,
			state: dfa.NewState(nextID, nodes[f.accept]),
		}
		nextID++
		return ds
	}

	start := newDState(startSet)
	start.state.SetStart(true)
	states[setKey(startSet)] = start
	work := []*dstate{start}

	for len(work) > 0 {
		ds := work[0]
		work = work[1:]

		for c := 0; c < 256; c++ {
			moved := map[*nfaNode]bool{}
			for n := range ds.nodes {
				for _, e := range n.edges {
					if e.set.has(byte(c)) {
						moved[e.to] = true
					}
				}
			}
			if len(moved) == 0 {
				continue
			}
			closure(moved)

			key := setKey(moved)
			target, ok := states[key]
			if !ok {
				target = newDState(moved)
				states[key] = target
				work = append(work, target)
			}
			// Construction guarantees one target per symbol, so this
			// cannot conflict.
			_ = dfa.AddTransition(ds.state, target.state, byte(c))
		}
	}

	return start.state
}
