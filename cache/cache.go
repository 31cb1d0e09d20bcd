package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chrisvdg/dioadmin/resource"
)

// Fetcher issues the actual list request for a cache miss. Implemented
// by client.Client; abstracted so the cache is testable in isolation.
type Fetcher interface {
	FetchPage(ctx context.Context, name string, page resource.PageRequest, filters resource.Filters) (Result, error)
}

// Config represents a cache configuration
type Config struct {
	// StaleAfter marks successful entries stale after this age.
	// Zero means entries only go stale through explicit invalidation.
	StaleAfter time.Duration
	// IdleExpiration evicts unsubscribed entries not read for this
	// long. Zero disables eviction.
	IdleExpiration time.Duration
	// CleanupInterval is the eviction tick. Zero disables the loop.
	CleanupInterval time.Duration
}

// New returns a new Cache instance and starts its cleanup loop if one
// is configured
func New(f Fetcher, c Config) (*Cache, error) {
	if f == nil {
		return nil, errors.New("no fetcher provided")
	}

	cache := &Cache{
		fetcher:         f,
		entries:         make(map[Key]*entry),
		gens:            make(map[string]uint64),
		staleAfter:      c.StaleAfter,
		idleExpiration:  c.IdleExpiration,
		cleanupInterval: c.CleanupInterval,
		quit:            make(chan struct{}),
	}
	go cache.cleanup(cache.quit)

	return cache, nil
}

// Cache holds the last-fetched page per view key, dedupes concurrent
// fetches for the same key and serves stale data while revalidating.
// It is an injectable component: every controller receives a handle,
// nothing reaches it through ambient globals.
type Cache struct {
	fetcher         Fetcher
	staleAfter      time.Duration
	idleExpiration  time.Duration
	cleanupInterval time.Duration
	quit            chan struct{}

	m       sync.Mutex
	entries map[Key]*entry
	// gens counts invalidations per resource. A fetch launched before
	// an invalidation carries an older generation and lands stale.
	gens map[string]uint64

	hits      uint64
	misses    uint64
	evictions uint64
}

// Stop ends the cleanup loop
func (c *Cache) Stop() {
	close(c.quit)
}

// GetOrFetch returns the entry for the request's key, fetching it if
// needed. A fresh Success entry returns immediately. A stale Success
// entry is returned as-is while a background refresh runs. Otherwise
// the caller joins the single outstanding fetch for the key and waits.
func (c *Cache) GetOrFetch(ctx context.Context, req Request) Snapshot {
	key := req.Key()

	c.m.Lock()
	e := c.ensure(key)
	e.lastRead = time.Now()

	if e.state == StateSuccess {
		stale := c.isStale(e)
		if !stale {
			c.hits++
			snap := e.snapshot(false)
			c.m.Unlock()
			return snap
		}
		// Stale-while-revalidate: hand out what we have, refresh behind it
		if e.flight == nil {
			c.launch(e, req)
		}
		snap := e.snapshot(true)
		c.m.Unlock()
		log.Debugf("serving stale entry %s while revalidating", key)
		return snap
	}

	c.misses++
	fl := e.flight
	if fl == nil {
		fl = c.launch(e, req)
	}
	c.m.Unlock()

	select {
	case <-fl.done:
	case <-ctx.Done():
		return Snapshot{
			Key:   key,
			State: StateLoading,
			Err:   errors.Wrap(ctx.Err(), "interrupted while waiting for fetch"),
		}
	}

	c.m.Lock()
	defer c.m.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.snapshot(c.isStale(e))
	}
	// Cleared while in flight
	return Snapshot{Key: key, State: StateIdle, Stale: true}
}

// Peek returns the current entry for a key without triggering a fetch
func (c *Cache) Peek(key Key) (Snapshot, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	return e.snapshot(c.isStale(e)), true
}

// Subscribe marks the key as held by an active view. Subscribed
// entries survive invalidation and eviction.
func (c *Cache) Subscribe(key Key) {
	c.m.Lock()
	defer c.m.Unlock()
	e := c.ensure(key)
	e.subs++
}

// Unsubscribe releases a subscription taken with Subscribe
func (c *Cache) Unsubscribe(key Key) {
	c.m.Lock()
	defer c.m.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.subs > 0 {
		e.subs--
	}
}

// InvalidateResource marks every entry of the named resource stale,
// regardless of page or filters. Coarse by design: after a mutation a
// few extra refetches beat a precise-but-wrong invalidation.
func (c *Cache) InvalidateResource(name string) {
	c.Invalidate(func(k Key) bool {
		return k.Resource == name
	})
}

// Invalidate marks entries matching the predicate stale. Subscribed
// entries refetch on their next read; unsubscribed ones are dropped.
// In-flight fetches for matched resources land stale.
func (c *Cache) Invalidate(match func(Key) bool) {
	c.m.Lock()
	defer c.m.Unlock()

	bumped := make(map[string]bool)
	for key, e := range c.entries {
		if !match(key) {
			continue
		}
		if !bumped[key.Resource] {
			c.gens[key.Resource]++
			bumped[key.Resource] = true
		}
		if e.subs == 0 && e.flight == nil {
			delete(c.entries, key)
			continue
		}
		e.stale = true
		log.Debugf("invalidated entry %s", key)
	}
}

// Clear drops every entry, including in-flight results on arrival.
// Used on logout.
func (c *Cache) Clear() {
	c.m.Lock()
	defer c.m.Unlock()
	for name := range c.gens {
		c.gens[name]++
	}
	c.entries = make(map[Key]*entry)
	log.Debug("cache cleared")
}

// Stats represents cache counters for the monitoring endpoint
type Stats struct {
	Entries    int      `json:"entries"`
	Subscribed int      `json:"subscribed"`
	InFlight   int      `json:"inFlight"`
	Hits       uint64   `json:"hits"`
	Misses     uint64   `json:"misses"`
	Evictions  uint64   `json:"evictions"`
	Timestamp  JSONTime `json:"timestamp"`
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() Stats {
	c.m.Lock()
	defer c.m.Unlock()
	s := Stats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Timestamp: JSONTime(time.Now()),
	}
	for _, e := range c.entries {
		if e.subs > 0 {
			s.Subscribed++
		}
		if e.flight != nil {
			s.InFlight++
		}
	}
	return s
}

// ensure returns the entry for key, creating it Idle on first reference.
// Caller must hold the lock.
func (c *Cache) ensure(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			key:      key,
			state:    StateIdle,
			lastRead: time.Now(),
		}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) isStale(e *entry) bool {
	if e.stale {
		return true
	}
	if c.staleAfter > 0 && e.state == StateSuccess {
		return time.Since(e.fetchedAt) > c.staleAfter
	}
	return false
}

// launch starts the single fetch for an entry. Caller must hold the
// lock and have checked that no flight is outstanding.
func (c *Cache) launch(e *entry, req Request) *flight {
	fl := &flight{
		gen:  c.gens[req.Resource],
		done: make(chan struct{}),
	}
	e.flight = fl
	if e.state != StateSuccess {
		e.state = StateLoading
	}
	// The flight is shared by every caller of this key, so it must
	// not die with the first caller's context.
	go c.runFetch(context.Background(), req, fl)
	return fl
}

func (c *Cache) runFetch(ctx context.Context, req Request, fl *flight) {
	key := req.Key()
	result, err := c.fetcher.FetchPage(ctx, req.Resource, req.Page, req.Filters)

	c.m.Lock()
	defer c.m.Unlock()
	defer close(fl.done)

	e, ok := c.entries[key]
	if !ok || e.flight != fl {
		// The key was abandoned (cleared or superseded) while this
		// response was in flight. Discard it instead of clobbering
		// whatever the active key now holds.
		log.Debugf("discarding response for abandoned key %s", key)
		return
	}
	e.flight = nil

	if err != nil {
		e.state = StateError
		e.err = err
		log.Debugf("fetch for %s failed: %s", key, err)
		return
	}

	e.state = StateSuccess
	e.data = &result
	e.err = nil
	e.fetchedAt = time.Now()
	// An invalidation that raced this fetch wins: the result is
	// stored but never presented as fresh.
	e.stale = fl.gen != c.gens[req.Resource]
	log.Debugf("stored entry %s (stale=%t)", key, e.stale)
}
