package apiclient

import (
	"net/url"
	"strconv"
)

// Page is one page of a paged listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"` // zero based
}

// Last reports whether no page follows this one
func (p *Page[T]) Last() bool {
	return p.Number+1 >= p.TotalPages
}

// PageQuery encodes page and size, plus any extra non-empty parameters given as key/value pairs.
func PageQuery(page, size int, extra ...string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	for i := 0; i+1 < len(extra); i += 2 {
		if extra[i+1] != "" {
			q.Set(extra[i], extra[i+1])
		}
	}
	return "?" + q.Encode()
}
