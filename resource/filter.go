package resource

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// Filter represents a single query predicate narrowing a list request
type Filter struct {
	Name  string
	Value string
}

// Filters represents the ordered set of active query predicates.
// Two filter sets are the same logical view when their canonical
// encodings are equal, regardless of insertion order.
type Filters []Filter

// With returns a copy with the named filter set.
// An empty value removes the filter.
func (f Filters) With(name, value string) Filters {
	out := make(Filters, 0, len(f)+1)
	for _, p := range f {
		if p.Name != name {
			out = append(out, p)
		}
	}
	if value != "" {
		out = append(out, Filter{Name: name, Value: value})
	}
	return out
}

// Get returns the value of the named filter
func (f Filters) Get(name string) (string, bool) {
	for _, p := range f {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Canonical returns a sorted, escaped encoding of the filter set.
// Used as the filter component of a cache key.
func (f Filters) Canonical() string {
	pairs := make([]string, 0, len(f))
	for _, p := range f {
		pairs = append(pairs, url.QueryEscape(p.Name)+"="+url.QueryEscape(p.Value))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// Equal reports whether two filter sets target the same logical view
func (f Filters) Equal(o Filters) bool {
	return f.Canonical() == o.Canonical()
}

// Values returns the filter set as URL query values
func (f Filters) Values() url.Values {
	v := url.Values{}
	for _, p := range f {
		v.Set(p.Name, p.Value)
	}
	return v
}

// DateRange represents a date-bounded filter window.
// The start bound is taken at the start of its day and the end bound
// at the end of its day, so the end date is inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// CurrentYearRange returns the default reporting window, January 1 to
// December 31 of the current year
func CurrentYearRange(now time.Time) DateRange {
	return DateRange{
		Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// StartOfDay returns the first instant of t's day
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last represented instant of t's day (23:59:59.999)
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

// Apply adds the range to a filter set as startDate/endDate bounds
func (r DateRange) Apply(f Filters) Filters {
	if !r.Start.IsZero() {
		f = f.With("startDate", StartOfDay(r.Start).UTC().Format(time.RFC3339))
	}
	if !r.End.IsZero() {
		f = f.With("endDate", EndOfDay(r.End).UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	}
	return f
}
