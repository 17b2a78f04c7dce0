package pagination

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
)

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name             string
		page, size       int
		total            int64
		pages            int
		hasPrev, hasNext bool
	}{
		{"last page", 10, 10, 95, 10, true, false},
		{"first page", 1, 10, 95, 10, false, true},
		{"exact fit", 2, 5, 10, 2, true, false},
		{"empty", 1, 10, 0, 0, false, false},
		{"zero size", 1, 0, 5, 0, false, false},
		{"beyond end", 4, 10, 15, 2, true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := New([]int{}, c.page, c.size, c.total)
			if r.TotalPages() != c.pages {
				t.Fatalf("totalPages: got %d want %d", r.TotalPages(), c.pages)
			}
			if r.HasPreviousPage() != c.hasPrev {
				t.Fatalf("hasPreviousPage: got %v", r.HasPreviousPage())
			}
			if r.HasNextPage() != c.hasNext {
				t.Fatalf("hasNextPage: got %v", r.HasNextPage())
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if Offset(3, 10) != 20 {
		t.Fatalf("unexpected offset %d", Offset(3, 10))
	}
	if Offset(0, 10) != 0 {
		t.Fatalf("page below 1 must not skip")
	}
}

func TestMarshalJSON(t *testing.T) {
	r := New([]string{"a"}, 1, 10, 11)
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"items":["a"],"page":1,"pageSize":10,"totalCount":11,"totalPages":2,"hasPreviousPage":false,"hasNextPage":true}`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}

	r.Links = []map[string]string{{"rel": "self"}}
	b, _ = json.Marshal(r)
	if !strings.HasSuffix(string(b), `"links":[{"rel":"self"}]}`) {
		t.Fatalf("links missing: %s", b)
	}
}

func TestNilItemsSerializeAsEmptyList(t *testing.T) {
	b, _ := json.Marshal(New[int](nil, 1, 10, 0))
	if !strings.HasPrefix(string(b), `{"items":[]`) {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestMarshalXML(t *testing.T) {
	b, err := xml.Marshal(New([]int{1, 2}, 1, 10, 2))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(b), "<result><items><item>1</item><item>2</item></items><page>1</page>") {
		t.Fatalf("unexpected xml: %s", b)
	}
}
