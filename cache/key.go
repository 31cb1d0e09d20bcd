package cache

import (
	"fmt"

	"github.com/chrisvdg/dioadmin/resource"
)

// Key represents the identity of one (resource, page, filter) view.
// Two requests with equal keys share a cache entry and an in-flight
// fetch. The filter component is the canonical filter encoding, so
// key equality is value equality.
type Key struct {
	Resource string
	Page     int
	Limit    int
	Filters  string
}

// String returns the key in query form, mainly for logging
func (k Key) String() string {
	s := fmt.Sprintf("%s?page=%d&limit=%d", k.Resource, k.Page, k.Limit)
	if k.Filters != "" {
		s += "&" + k.Filters
	}
	return s
}

// Request represents a parameterized list request. It carries the
// concrete filter set needed to issue the fetch; Key derives the
// cache identity from it.
type Request struct {
	Resource string
	Page     resource.PageRequest
	Filters  resource.Filters
}

// Key returns the cache identity of the request
func (r Request) Key() Key {
	page := r.Page.Normalize()
	return Key{
		Resource: r.Resource,
		Page:     page.Page,
		Limit:    page.Limit,
		Filters:  r.Filters.Canonical(),
	}
}
