package pagination

import (
	"encoding/json"
	"encoding/xml"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Result is one page of items plus the counts needed to navigate.
// It does no storage access; the caller fetches the page and total count.
type Result[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalCount int64
	Links      any
}

func New[T any](items []T, page, pageSize int, totalCount int64) *Result[T] {
	if items == nil {
		items = []T{}
	}
	return &Result[T]{Items: items, Page: page, PageSize: pageSize, TotalCount: totalCount}
}

func (r *Result[T]) TotalPages() int {
	if r.PageSize <= 0 {
		return 0
	}
	return int((r.TotalCount + int64(r.PageSize) - 1) / int64(r.PageSize))
}

func (r *Result[T]) HasPreviousPage() bool { return r.Page > 1 }

func (r *Result[T]) HasNextPage() bool { return r.Page < r.TotalPages() }

// Offset is the number of rows to skip for page/pageSize.
func Offset(page, pageSize int) uint64 {
	if page < 1 || pageSize < 1 {
		return 0
	}
	return uint64(page-1) * uint64(pageSize)
}

type envelope[T any] struct {
	XMLName         xml.Name `json:"-" xml:"result"`
	Items           []T      `json:"items" xml:"items>item"`
	Page            int      `json:"page" xml:"page"`
	PageSize        int      `json:"pageSize" xml:"pageSize"`
	TotalCount      int64    `json:"totalCount" xml:"totalCount"`
	TotalPages      int      `json:"totalPages" xml:"totalPages"`
	HasPreviousPage bool     `json:"hasPreviousPage" xml:"hasPreviousPage"`
	HasNextPage     bool     `json:"hasNextPage" xml:"hasNextPage"`
	Links           any      `json:"links,omitempty" xml:"links,omitempty"`
}

func (r *Result[T]) envelope() envelope[T] {
	return envelope[T]{
		Items:           r.Items,
		Page:            r.Page,
		PageSize:        r.PageSize,
		TotalCount:      r.TotalCount,
		TotalPages:      r.TotalPages(),
		HasPreviousPage: r.HasPreviousPage(),
		HasNextPage:     r.HasNextPage(),
		Links:           r.Links,
	}
}

func (r *Result[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.envelope())
}

func (r *Result[T]) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	return e.Encode(r.envelope())
}
