package cache

import (
	"encoding/json"
	"time"

	"github.com/chrisvdg/dioadmin/resource"
)

// State represents the lifecycle state of a cache entry
type State string

const (
	// StateIdle represents an entry that has never been fetched
	StateIdle State = "idle"
	// StateLoading represents an entry with a first fetch in flight
	StateLoading State = "loading"
	// StateSuccess represents an entry holding fetched data
	StateSuccess State = "success"
	// StateError represents an entry whose last fetch failed
	StateError State = "error"
)

// Result represents the cached page payload. Items stay raw; typed
// decoding happens at the view layer.
type Result = resource.PageResult[json.RawMessage]

// entry represents one cached view. Entries are owned exclusively by
// the cache; callers only ever see snapshots.
type entry struct {
	key       Key
	state     State
	stale     bool
	data      *Result
	err       error
	fetchedAt time.Time
	lastRead  time.Time
	subs      int
	flight    *flight
}

// flight represents a single outstanding fetch shared by all callers
// of the same key. gen records the resource generation at launch so a
// result that raced an invalidation arrives already stale.
type flight struct {
	gen  uint64
	done chan struct{}
}

// Snapshot represents a point-in-time copy of an entry, safe to hand
// out of the cache
type Snapshot struct {
	Key       Key
	State     State
	Stale     bool
	Data      *Result
	Err       error
	FetchedAt time.Time
}

func (e *entry) snapshot(stale bool) Snapshot {
	s := Snapshot{
		Key:       e.key,
		State:     e.state,
		Stale:     stale,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
	}
	if e.data != nil {
		cp := *e.data
		s.Data = &cp
	}
	return s
}
