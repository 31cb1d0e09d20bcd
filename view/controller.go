package view

import (
	"context"
	"strings"
	"sync"

	"github.com/chrisvdg/dioadmin/cache"
	"github.com/chrisvdg/dioadmin/resource"
)

// State represents what a list view exposes to its presentation layer
type State[T any] struct {
	Items   []T
	Meta    resource.PageMeta
	Loading bool
	Stale   bool
	Err     error
}

// NewListView creates a controller over one resource collection,
// starting at page 1 with the default page size and no filters
func NewListView[T any](c *cache.Cache, name string) *ListView[T] {
	v := &ListView[T]{
		cache:    c,
		resource: name,
		page:     resource.PageRequest{Page: 1, Limit: resource.DefaultPageSize},
	}
	v.key = v.request().Key()
	c.Subscribe(v.key)
	return v
}

// ListView orchestrates filter state, the current page window and the
// cache key they derive to. Changing any filter or the page size
// resets the page to 1; the old page number is meaningless under a new
// predicate or window.
type ListView[T any] struct {
	cache    *cache.Cache
	resource string

	m       sync.Mutex
	page    resource.PageRequest
	filters resource.Filters
	key     cache.Key
	last    State[T]

	// Local refinement: a substring match over the fields selected by
	// matchFields, applied to the fetched page only. It narrows what
	// is displayed from the current page and never filters the full
	// collection; server-side filters do that.
	search      string
	matchFields func(T) []string
}

// MatchFields configures which fields of an item the local refinement
// matches against
func (v *ListView[T]) MatchFields(fn func(T) []string) {
	v.m.Lock()
	v.matchFields = fn
	v.m.Unlock()
}

// SetPage moves to another page. Filters and limit are untouched.
func (v *ListView[T]) SetPage(page int) {
	v.m.Lock()
	defer v.m.Unlock()
	v.page.Page = page
	v.rekey()
}

// SetLimit changes the page size and resets to page 1
func (v *ListView[T]) SetLimit(limit int) {
	v.m.Lock()
	defer v.m.Unlock()
	v.page.Limit = limit
	v.page.Page = 1
	v.rekey()
}

// SetFilter changes one filter value and resets to page 1. An empty
// value removes the filter.
func (v *ListView[T]) SetFilter(name, value string) {
	v.m.Lock()
	defer v.m.Unlock()
	v.filters = v.filters.With(name, value)
	v.page.Page = 1
	v.rekey()
}

// SetDateRange applies a date-bounded filter window and resets to page 1
func (v *ListView[T]) SetDateRange(r resource.DateRange) {
	v.m.Lock()
	defer v.m.Unlock()
	v.filters = r.Apply(v.filters)
	v.page.Page = 1
	v.rekey()
}

// SetSearch sets the local refinement term. Refinement is display-only
// and does not touch the cache key or the page.
func (v *ListView[T]) SetSearch(q string) {
	v.m.Lock()
	v.search = q
	v.m.Unlock()
}

// Page returns the current page number
func (v *ListView[T]) Page() int {
	v.m.Lock()
	defer v.m.Unlock()
	return v.page.Page
}

// Limit returns the current page size
func (v *ListView[T]) Limit() int {
	v.m.Lock()
	defer v.m.Unlock()
	return v.page.Limit
}

// Filters returns the active filter set
func (v *ListView[T]) Filters() resource.Filters {
	v.m.Lock()
	defer v.m.Unlock()
	return v.filters
}

// Close releases the view's cache subscription
func (v *ListView[T]) Close() {
	v.m.Lock()
	defer v.m.Unlock()
	v.cache.Unsubscribe(v.key)
}

// Load resolves the current key through the cache and returns the
// state to render. A result arriving for a key the view has already
// moved away from is discarded and the previous state is returned,
// so a slow stale response never clobbers fresh data.
func (v *ListView[T]) Load(ctx context.Context) State[T] {
	v.m.Lock()
	req := v.request()
	key := v.key
	search := v.search
	match := v.matchFields
	v.m.Unlock()

	snap := v.cache.GetOrFetch(ctx, req)

	v.m.Lock()
	defer v.m.Unlock()
	if v.key != key {
		return v.last
	}

	st := State[T]{
		Loading: snap.State == cache.StateLoading,
		Stale:   snap.Stale,
		Err:     snap.Err,
	}
	if snap.Data != nil {
		items, err := resource.DecodeItems[T](snap.Data.Items)
		if err != nil {
			st.Err = err
		} else {
			st.Meta = snap.Data.Meta
			st.Items = refine(items, search, match)
		}
	}
	v.last = st
	return st
}

// request builds the cache request for the current state.
// Caller must hold the lock.
func (v *ListView[T]) request() cache.Request {
	return cache.Request{
		Resource: v.resource,
		Page:     v.page,
		Filters:  v.filters,
	}
}

// rekey moves the subscription when the derived key changed.
// Caller must hold the lock.
func (v *ListView[T]) rekey() {
	key := v.request().Key()
	if key == v.key {
		return
	}
	v.cache.Unsubscribe(v.key)
	v.cache.Subscribe(key)
	v.key = key
}

func refine[T any](items []T, search string, match func(T) []string) []T {
	if search == "" || match == nil {
		return items
	}
	q := strings.ToLower(search)
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range match(item) {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
