package pattern

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultMaxEntries matches the original stage-0 pattern table size.
const DefaultMaxEntries = 256

// CacheOptions fixes the cache policy at construction time. In particular
// the synchronization strategy is chosen here once, not toggled at
// runtime.
type CacheOptions struct {
	// MaxEntries caps the number of cached patterns. When the cache is
	// full, CompileOrGet still compiles but returns an uncached,
	// caller-owned pattern; nothing is ever evicted. Zero means
	// DefaultMaxEntries.
	MaxEntries int

	// Unlocked skips mutual exclusion for callers that guarantee external
	// serialization (single-context use). The default is a mutex-guarded
	// cache that is safe to share across tokenizer contexts.
	Unlocked bool
}

type cacheEntry struct {
	pat  *Pattern
	refs int
}

// Cache stores compiled and composed patterns keyed by normalized
// signature, with reference counting. All mutations happen under the
// cache's lock, making cache operations linearizable across contexts.
type Cache struct {
	mu      sync.Locker
	entries map[string]*cacheEntry
	max     int

	// Hit and miss counters live outside the lock so hot-path callers can
	// sample them concurrently.
	hits   *xsync.Counter
	misses *xsync.Counter
}

// nopLocker backs the Unlocked strategy.
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// NewCache creates an empty pattern cache with the given policy.
func NewCache(opts CacheOptions) *Cache {
	max := opts.MaxEntries
	if max <= 0 {
		max = DefaultMaxEntries
	}
	var mu sync.Locker = &sync.Mutex{}
	if opts.Unlocked {
		mu = nopLocker{}
	}
	return &Cache{
		mu:      mu,
		entries: make(map[string]*cacheEntry),
		max:     max,
		hits:    xsync.NewCounter(),
		misses:  xsync.NewCounter(),
	}
}

// CompileOrGet returns the cached pattern for the normalized signature of
// text, compiling and inserting on first use. On a hit the reference count
// is incremented and the same underlying pattern is returned. When the
// cache is full the compiled pattern is returned uncached and owned by the
// caller; releasing it through the cache is a harmless no-op.
func (c *Cache) CompileOrGet(text string, cfg Config) (*Pattern, error) {
	sig := Signature(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[sig]; ok {
		e.refs++
		c.hits.Inc()
		return e.pat, nil
	}

	pat, err := Compile(text, cfg)
	if err != nil {
		return nil, err
	}
	c.misses.Inc()

	if len(c.entries) < c.max {
		c.entries[sig] = &cacheEntry{pat: pat, refs: 1}
	}
	return pat, nil
}

// ComposeOrGet is CompileOrGet for compositions, keyed by a synthetic
// signature derived from the operand signatures and the op.
func (c *Cache) ComposeOrGet(a, b *Pattern, op Op) (*Pattern, error) {
	if a == nil || b == nil {
		return nil, ErrInvalidArgument
	}
	sig := op.String() + "(" + Signature(a.Source) + "," + Signature(b.Source) + ")"

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[sig]; ok {
		e.refs++
		c.hits.Inc()
		return e.pat, nil
	}

	pat, err := Compose(a, b, op)
	if err != nil {
		return nil, err
	}
	c.misses.Inc()

	if len(c.entries) < c.max {
		c.entries[sig] = &cacheEntry{pat: pat, refs: 1}
	}
	return pat, nil
}

// Release drops one reference to p. At zero the entry and its automaton
// are removed from the cache. Unknown (uncached) patterns are ignored.
func (c *Cache) Release(p *Pattern) {
	if p == nil {
		return
	}
	sig := Signature(p.Source)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sig]
	if !ok || e.pat != p {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(c.entries, sig)
	}
}

// Contains reports whether a pattern with the signature of text is
// currently cached. Inspection only; does not touch reference counts.
func (c *Cache) Contains(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[Signature(text)]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Hits returns the number of cache hits since creation.
func (c *Cache) Hits() int64 { return c.hits.Value() }

// Misses returns the number of compile-on-miss operations since creation.
func (c *Cache) Misses() int64 { return c.misses.Value() }
