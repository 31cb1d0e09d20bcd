package resource

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// PageSizes lists the allowed page sizes for list requests
var PageSizes = []int{10, 25, 50, 100}

// DefaultPageSize is used when a request does not specify a limit
const DefaultPageSize = 10

// PageRequest represents the windowing parameters of a list request
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps the request to a valid page and an allowed page size
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	allowed := false
	for _, s := range PageSizes {
		if r.Limit == s {
			allowed = true
			break
		}
	}
	if !allowed {
		r.Limit = DefaultPageSize
	}
	return r
}

// PageMeta represents the pagination metadata of a list response
type PageMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
	From       int  `json:"from"`
	To         int  `json:"to"`
}

// NewPageMeta computes pagination metadata for a total item count and window
func NewPageMeta(total, page, limit int) PageMeta {
	m := PageMeta{
		Total: total,
		Page:  page,
		Limit: limit,
	}
	if limit > 0 {
		m.TotalPages = (total + limit - 1) / limit
	}
	m.HasNext = page < m.TotalPages
	m.HasPrev = page > 1
	if total > 0 {
		m.From = (page-1)*limit + 1
		m.To = page * limit
		if m.To > total {
			m.To = total
		}
	}
	return m
}

// PageResult represents one fetched page of a resource collection
type PageResult[T any] struct {
	Items []T      `json:"data"`
	Meta  PageMeta `json:"meta"`
}

// DecodeItems decodes a page of raw JSON records into typed records
func DecodeItems[T any](raw []json.RawMessage) ([]T, error) {
	items := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, errors.Wrapf(err, "failed to decode item %d", i)
		}
		items = append(items, item)
	}
	return items, nil
}
