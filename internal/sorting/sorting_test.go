package sorting

import (
	"errors"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/google/go-cmp/cmp"
)

type itemDTO struct{}
type item struct{}
type other struct{}

var testMappings = []Mapping{
	{SortField: "name", PropertyName: "Name"},
	{SortField: "status", PropertyName: "Status", Reverse: true},
	{SortField: "frequency.type", PropertyName: "Frequency.Type"},
}

var testColumns = map[string]string{
	"Id":             "h.id",
	"Name":           "h.name",
	"Status":         "h.status",
	"Frequency.Type": "h.frequency_type",
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := Register[itemDTO, item](r, testMappings...); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return r
}

func TestRegisterRejectsDuplicatePair(t *testing.T) {
	r := newTestRegistry(t)
	if err := Register[itemDTO, item](r, Mapping{SortField: "x", PropertyName: "X"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := Register[itemDTO, other](r, Mapping{SortField: "x", PropertyName: "X"}); err != nil {
		t.Fatalf("different pair should register: %v", err)
	}
}

func TestRegisterRejectsDuplicateSortField(t *testing.T) {
	r := NewRegistry()
	err := Register[itemDTO, item](r,
		Mapping{SortField: "Name", PropertyName: "Name"},
		Mapping{SortField: "name", PropertyName: "Title"},
	)
	if err == nil {
		t.Fatalf("expected case-insensitive duplicate to fail")
	}
}

func TestGetMappingsUnregistered(t *testing.T) {
	r := NewRegistry()
	if _, err := GetMappings[itemDTO, item](r); !errors.Is(err, ErrUnregisteredMapping) {
		t.Fatalf("expected ErrUnregisteredMapping, got %v", err)
	}
}

func TestValidateMappings(t *testing.T) {
	r := newTestRegistry(t)
	cases := []struct {
		sort  string
		valid bool
	}{
		{"", true},
		{"   ", true},
		{"name", true},
		{"NAME desc, status", true},
		{"frequency.type asc", true},
		{"name,bogus desc", false},
		{"bogus", false},
	}
	for _, c := range cases {
		err := ValidateMappings[itemDTO, item](r, c.sort)
		if c.valid && err != nil {
			t.Errorf("%q: unexpected error %v", c.sort, err)
		}
		if !c.valid {
			var inv *InvalidSortError
			if !errors.As(err, &inv) {
				t.Errorf("%q: expected InvalidSortError, got %v", c.sort, err)
				continue
			}
			if inv.Value != c.sort {
				t.Errorf("%q: raw value not echoed: %q", c.sort, inv.Value)
			}
		}
	}
}

func TestParseDirections(t *testing.T) {
	got, err := Parse("name, status desc, frequency.type DESC, status asc", testMappings, "Id")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []Order{
		{Path: "Name", Descending: false},
		// reverse XOR desc: requested desc on a reversed mapping sorts ascending
		{Path: "Status", Descending: false},
		{Path: "Frequency.Type", Descending: true},
		{Path: "Status", Descending: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("orders mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyUsesDefault(t *testing.T) {
	got, err := Parse(" ", testMappings, "Id")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff([]Order{{Path: "Id"}}, got); diff != "" {
		t.Fatalf("unexpected default order:\n%s", diff)
	}
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse("bogus", testMappings, "Id")
	var unk *UnknownSortFieldError
	if !errors.As(err, &unk) || unk.Field != "bogus" {
		t.Fatalf("expected UnknownSortFieldError for bogus, got %v", err)
	}
}

func TestApplySortBuildsOrderBy(t *testing.T) {
	sb := squirrel.Select("h.id").From("habits h")
	sb, err := ApplySort(sb, "status desc,name desc", testMappings, "Id", testColumns)
	if err != nil {
		t.Fatalf("ApplySort failed: %v", err)
	}
	sql, _, err := sb.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	want := "SELECT h.id FROM habits h ORDER BY h.status ASC, h.name DESC"
	if sql != want {
		t.Fatalf("unexpected sql:\n got: %s\nwant: %s", sql, want)
	}
}

func TestApplySortDefault(t *testing.T) {
	sb, err := ApplySort(squirrel.Select("h.id").From("habits h"), "", testMappings, "Id", testColumns)
	if err != nil {
		t.Fatalf("ApplySort failed: %v", err)
	}
	sql, _, _ := sb.ToSql()
	if sql != "SELECT h.id FROM habits h ORDER BY h.id ASC" {
		t.Fatalf("unexpected sql: %s", sql)
	}
}

func TestApplySortMissingColumn(t *testing.T) {
	_, err := ApplySort(squirrel.Select("1"), "name", testMappings, "Id", map[string]string{})
	if err == nil {
		t.Fatalf("expected error for unresolvable storage path")
	}
}
