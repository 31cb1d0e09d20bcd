package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/chrisvdg/dioadmin/resource"
)

// fakeFetcher serves canned pages and counts calls per resource
type fakeFetcher struct {
	m     sync.Mutex
	calls int32
	fn    func(name string, page resource.PageRequest, filters resource.Filters) (Result, error)
}

func (f *fakeFetcher) FetchPage(ctx context.Context, name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
	atomic.AddInt32(&f.calls, 1)
	f.m.Lock()
	fn := f.fn
	f.m.Unlock()
	return fn(name, page, filters)
}

func (f *fakeFetcher) callCount() int32 {
	return atomic.LoadInt32(&f.calls)
}

func pageOf(items []string, total, page, limit int) Result {
	raw := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		raw = append(raw, json.RawMessage(`{"name":"`+item+`"}`))
	}
	return Result{Items: raw, Meta: resource.NewPageMeta(total, page, limit)}
}

func usersReq(page int) Request {
	return Request{
		Resource: resource.Users,
		Page:     resource.PageRequest{Page: page, Limit: 10},
	}
}

func TestGetOrFetchCachesByKey(t *testing.T) {
	assert := assert.New(t)

	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		return pageOf([]string{"a", "b"}, 2, page.Page, page.Limit), nil
	}}
	c, err := New(f, Config{})
	assert.NoError(err)
	defer c.Stop()

	snap := c.GetOrFetch(context.Background(), usersReq(1))
	assert.Equal(StateSuccess, snap.State)
	assert.False(snap.Stale)
	assert.NoError(snap.Err)
	assert.Len(snap.Data.Items, 2)
	assert.EqualValues(1, f.callCount())

	// Identical key resolves from cache, no second call
	snap = c.GetOrFetch(context.Background(), usersReq(1))
	assert.Equal(StateSuccess, snap.State)
	assert.EqualValues(1, f.callCount())

	// Different page is a different key
	c.GetOrFetch(context.Background(), usersReq(2))
	assert.EqualValues(2, f.callCount())
}

func TestGetOrFetchDedupesConcurrentCallers(t *testing.T) {
	assert := assert.New(t)

	release := make(chan struct{})
	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		<-release
		return pageOf([]string{"a"}, 1, page.Page, page.Limit), nil
	}}
	c, err := New(f, Config{})
	assert.NoError(err)
	defer c.Stop()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Snapshot, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetOrFetch(context.Background(), usersReq(1))
		}(i)
	}

	// Let every caller subscribe to the single flight before it resolves
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(1, f.callCount())
	for _, snap := range results {
		assert.Equal(StateSuccess, snap.State)
		assert.Len(snap.Data.Items, 1)
	}
}

func TestInvalidateResourceScope(t *testing.T) {
	assert := assert.New(t)

	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		return pageOf([]string{"x"}, 1, page.Page, page.Limit), nil
	}}
	c, err := New(f, Config{})
	assert.NoError(err)
	defer c.Stop()

	userKey := usersReq(1).Key()
	reportReq := Request{Resource: resource.Reports, Page: resource.PageRequest{Page: 1, Limit: 10}}

	c.Subscribe(userKey)
	defer c.Unsubscribe(userKey)
	c.Subscribe(reportReq.Key())
	defer c.Unsubscribe(reportReq.Key())

	c.GetOrFetch(context.Background(), usersReq(1))
	c.GetOrFetch(context.Background(), reportReq)

	c.InvalidateResource(resource.Users)

	snap, ok := c.Peek(userKey)
	assert.True(ok)
	assert.True(snap.Stale)

	snap, ok = c.Peek(reportReq.Key())
	assert.True(ok)
	assert.False(snap.Stale)
}

func TestInvalidateDropsUnsubscribedEntries(t *testing.T) {
	assert := assert.New(t)

	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		return pageOf([]string{"x"}, 1, page.Page, page.Limit), nil
	}}
	c, err := New(f, Config{})
	assert.NoError(err)
	defer c.Stop()

	c.GetOrFetch(context.Background(), usersReq(1))
	c.InvalidateResource(resource.Users)

	_, ok := c.Peek(usersReq(1).Key())
	assert.False(ok)
}

func TestStaleWhileRevalidate(t *testing.T) {
	assert := assert.New(t)

	var version int32 = 1
	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		if atomic.LoadInt32(&version) == 1 {
			return pageOf([]string{"old"}, 1, page.Page, page.Limit), nil
		}
		return pageOf([]string{"new"}, 1, page.Page, page.Limit), nil
	}}
	c, err := New(f, Config{})
	assert.NoError(err)
	defer c.Stop()

	key := usersReq(1).Key()
	c.Subscribe(key)
	defer c.Unsubscribe(key)

	snap := c.GetOrFetch(context.Background(), usersReq(1))
	assert.Equal(`{"name":"old"}`, string(snap.Data.Items[0]))

	atomic.StoreInt32(&version, 2)
	c.InvalidateResource(resource.Users)

	// Stale read serves the old data immediately while revalidating
	snap = c.GetOrFetch(context.Background(), usersReq(1))
	assert.True(snap.Stale)
	assert.Equal(`{"name":"old"}`, string(snap.Data.Items[0]))

	// The background refresh replaces the entry
	assert.Eventually(func() bool {
		s, ok := c.Peek(key)
		return ok && !s.Stale && string(s.Data.Items[0]) == `{"name":"new"}`
	}, time.Second, 10*time.Millisecond)
}

func TestInvalidationDuringFlightLandsStale(t *testing.T) {
	assert := assert.New(t)

	release := make(chan struct{})
	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		<-release
		return pageOf([]string{"raced"}, 1, page.Page, page.Limit), nil
	}}
	c, err := New(f, Config{})
	assert.NoError(err)
	defer c.Stop()

	key := usersReq(1).Key()
	c.Subscribe(key)
	defer c.Unsubscribe(key)

	done := make(chan Snapshot, 1)
	go func() {
		done <- c.GetOrFetch(context.Background(), usersReq(1))
	}()

	time.Sleep(50 * time.Millisecond)
	c.InvalidateResource(resource.Users)
	close(release)

	// The fetch launched before the invalidation must never present
	// its result as fresh
	snap := <-done
	assert.True(snap.Stale)
}

func TestClearDiscardsInFlightResults(t *testing.T) {
	assert := assert.New(t)

	release := make(chan struct{})
	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		<-release
		return pageOf([]string{"late"}, 1, page.Page, page.Limit), nil
	}}
	c, err := New(f, Config{})
	assert.NoError(err)
	defer c.Stop()

	done := make(chan Snapshot, 1)
	go func() {
		done <- c.GetOrFetch(context.Background(), usersReq(1))
	}()

	time.Sleep(50 * time.Millisecond)
	c.Clear()
	close(release)

	snap := <-done
	assert.Nil(snap.Data)

	_, ok := c.Peek(usersReq(1).Key())
	assert.False(ok)
}

func TestGetOrFetchErrorState(t *testing.T) {
	assert := assert.New(t)

	boom := errors.New("backend exploded")
	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		return Result{}, boom
	}}
	c, err := New(f, Config{})
	assert.NoError(err)
	defer c.Stop()

	snap := c.GetOrFetch(context.Background(), usersReq(1))
	assert.Equal(StateError, snap.State)
	assert.Error(snap.Err)

	// An error entry retries on the next read
	f.m.Lock()
	f.fn = func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		return pageOf([]string{"recovered"}, 1, page.Page, page.Limit), nil
	}
	f.m.Unlock()

	snap = c.GetOrFetch(context.Background(), usersReq(1))
	assert.Equal(StateSuccess, snap.State)
	assert.NoError(snap.Err)
}

func TestEvictIdle(t *testing.T) {
	assert := assert.New(t)

	f := &fakeFetcher{fn: func(name string, page resource.PageRequest, filters resource.Filters) (Result, error) {
		return pageOf([]string{"x"}, 1, page.Page, page.Limit), nil
	}}
	c, err := New(f, Config{IdleExpiration: time.Nanosecond})
	assert.NoError(err)
	defer c.Stop()

	subscribed := usersReq(1).Key()
	c.Subscribe(subscribed)
	defer c.Unsubscribe(subscribed)

	c.GetOrFetch(context.Background(), usersReq(1))
	c.GetOrFetch(context.Background(), usersReq(2))

	time.Sleep(10 * time.Millisecond)
	c.evictIdle()

	// Subscribed entries survive, idle ones are evicted
	_, ok := c.Peek(subscribed)
	assert.True(ok)
	_, ok = c.Peek(usersReq(2).Key())
	assert.False(ok)

	stats := c.Stats()
	assert.EqualValues(1, stats.Evictions)
}
