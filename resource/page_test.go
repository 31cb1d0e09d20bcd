package resource

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageMeta(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		name     string
		total    int
		page     int
		limit    int
		expected PageMeta
	}{
		{
			name:  "first of three pages",
			total: 23, page: 1, limit: 10,
			expected: PageMeta{Total: 23, Page: 1, Limit: 10, TotalPages: 3, HasNext: true, HasPrev: false, From: 1, To: 10},
		},
		{
			name:  "middle page",
			total: 23, page: 2, limit: 10,
			expected: PageMeta{Total: 23, Page: 2, Limit: 10, TotalPages: 3, HasNext: true, HasPrev: true, From: 11, To: 20},
		},
		{
			name:  "last partial page",
			total: 23, page: 3, limit: 10,
			expected: PageMeta{Total: 23, Page: 3, Limit: 10, TotalPages: 3, HasNext: false, HasPrev: true, From: 21, To: 23},
		},
		{
			name:  "empty collection",
			total: 0, page: 1, limit: 10,
			expected: PageMeta{Total: 0, Page: 1, Limit: 10, TotalPages: 0, HasNext: false, HasPrev: false, From: 0, To: 0},
		},
		{
			name:  "exact multiple",
			total: 50, page: 5, limit: 10,
			expected: PageMeta{Total: 50, Page: 5, Limit: 10, TotalPages: 5, HasNext: false, HasPrev: true, From: 41, To: 50},
		},
		{
			name:  "single item",
			total: 1, page: 1, limit: 25,
			expected: PageMeta{Total: 1, Page: 1, Limit: 25, TotalPages: 1, HasNext: false, HasPrev: false, From: 1, To: 1},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(c.expected, NewPageMeta(c.total, c.page, c.limit))
		})
	}
}

func TestPageMetaInvariants(t *testing.T) {
	assert := assert.New(t)

	for total := 0; total <= 60; total += 7 {
		for _, limit := range PageSizes {
			totalPages := (total + limit - 1) / limit
			for page := 1; page <= totalPages+1; page++ {
				m := NewPageMeta(total, page, limit)
				assert.Equal(totalPages, m.TotalPages)
				assert.Equal(page < totalPages, m.HasNext)
				assert.Equal(page > 1, m.HasPrev)
				if total == 0 {
					assert.Zero(m.From)
					assert.Zero(m.To)
				}
				assert.True(m.To <= total)
			}
		}
	}
}

func TestPageRequestNormalize(t *testing.T) {
	assert := assert.New(t)

	r := PageRequest{Page: 0, Limit: 13}.Normalize()
	assert.Equal(1, r.Page)
	assert.Equal(DefaultPageSize, r.Limit)

	r = PageRequest{Page: 4, Limit: 50}.Normalize()
	assert.Equal(4, r.Page)
	assert.Equal(50, r.Limit)
}

func TestDecodeItems(t *testing.T) {
	assert := assert.New(t)

	raw := []json.RawMessage{
		json.RawMessage(`{"id":"a","name":"First"}`),
		json.RawMessage(`{"id":"b","name":"Second"}`),
	}

	type rec struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	items, err := DecodeItems[rec](raw)
	assert.NoError(err)
	assert.Len(items, 2)
	assert.Equal("First", items[0].Name)

	_, err = DecodeItems[rec]([]json.RawMessage{json.RawMessage(`not json`)})
	assert.Error(err)
}
