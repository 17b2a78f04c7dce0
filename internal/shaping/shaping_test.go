package shaping

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sample struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Hidden   string `json:"-"`
	Count    int    `json:"count,omitempty"`
	internal string
	Plain    bool
}

var sampleShape = NewShape(
	Field[sample]{Name: "id", Get: func(s sample) any { return s.ID }},
	Field[sample]{Name: "name", Get: func(s sample) any { return s.Name }},
	Field[sample]{Name: "count", Get: func(s sample) any { return s.Count }},
)

func TestParseFieldsDedupesCaseInsensitive(t *testing.T) {
	set := ParseFields(" Id, name ,ID,,NAME ")
	if diff := cmp.Diff([]string{"id", "name"}, set.Sorted()); diff != "" {
		t.Fatalf("unexpected set (-want +got):\n%s", diff)
	}
	if !set.Has("NaMe") {
		t.Fatalf("Has must be case-insensitive")
	}
	if len(ParseFields("  ")) != 0 {
		t.Fatalf("blank list must be empty")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		fields string
		valid  bool
	}{
		{"", true},
		{"id", true},
		{"ID,Name", true},
		{"id,bogus", false},
		// a single unknown name is rejected too
		{"bogus", false},
	}
	for _, c := range cases {
		err := sampleShape.Validate(c.fields)
		if c.valid && err != nil {
			t.Errorf("%q: unexpected error %v", c.fields, err)
		}
		if !c.valid {
			var inv *InvalidFieldsError
			if !errors.As(err, &inv) {
				t.Errorf("%q: expected InvalidFieldsError, got %v", c.fields, err)
				continue
			}
			if inv.Value != c.fields {
				t.Errorf("%q: raw value not echoed: %q", c.fields, inv.Value)
			}
		}
	}
}

func TestShapeDataAllFieldsKeepsDeclaredOrder(t *testing.T) {
	items := []sample{{ID: "1", Name: "a", Count: 2}, {ID: "2", Name: "b"}}
	recs, err := sampleShape.ShapeData(items, "", nil)
	if err != nil {
		t.Fatalf("ShapeData failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	for i, rec := range recs {
		if diff := cmp.Diff([]string{"id", "name", "count"}, rec.Names()); diff != "" {
			t.Fatalf("record %d order mismatch:\n%s", i, diff)
		}
		id, _ := rec.Get("id")
		if id != items[i].ID {
			t.Fatalf("record %d out of position: %v", i, id)
		}
	}
	count, _ := recs[0].Get("count")
	if count != 2 {
		t.Fatalf("unexpected count: %v", count)
	}
}

func TestShapeDataSubsetWithLinks(t *testing.T) {
	var gotFields []string
	factory := func(s sample, fields string) (any, error) {
		gotFields = append(gotFields, fields)
		return []string{"self:" + s.ID}, nil
	}
	recs, err := sampleShape.ShapeData([]sample{{ID: "7", Name: "x"}}, "name,ID,bogus", factory)
	if err != nil {
		t.Fatalf("ShapeData failed: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "name", LinksField}, recs[0].Names()); diff != "" {
		t.Fatalf("unexpected properties:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name,ID,bogus"}, gotFields); diff != "" {
		t.Fatalf("factory did not receive the field list:\n%s", diff)
	}
}

func TestShapeDataFactoryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := sampleShape.ShapeData([]sample{{ID: "1"}}, "", func(sample, string) (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestShapeOneAndWith(t *testing.T) {
	rec := sampleShape.ShapeOne(sample{ID: "1", Name: "n"}, "name")
	rec = rec.With(LinksField, []string{"a"})
	if diff := cmp.Diff([]string{"name", LinksField}, rec.Names()); diff != "" {
		t.Fatalf("unexpected properties:\n%s", diff)
	}
	rec = rec.With("NAME", "m")
	v, _ := rec.Get("name")
	if v != "m" || len(rec) != 2 {
		t.Fatalf("With must replace in place, got %v", rec)
	}
}

func TestRecordMarshalJSONPreservesOrder(t *testing.T) {
	rec := Record{{Name: "z", Value: 1}, {Name: "a", Value: "x"}, {Name: "m", Value: nil}}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `{"z":1,"a":"x","m":null}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestRecordMarshalXML(t *testing.T) {
	rec := Record{{Name: "id", Value: "1"}, {Name: "tags", Value: []string{"a", "b"}}, {Name: "none", Value: nil}}
	var buf strings.Builder
	enc := xml.NewEncoder(&buf)
	if err := enc.EncodeElement(rec, xml.StartElement{Name: xml.Name{Local: "habit"}}); err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if buf.String() != "<habit><id>1</id><tags><item>a</item><item>b</item></tags></habit>" {
		t.Fatalf("unexpected xml: %s", buf.String())
	}
}

func TestFromStructUsesJSONNames(t *testing.T) {
	shape := FromStruct[sample]()
	if diff := cmp.Diff([]string{"id", "name", "count", "Plain"}, shape.Names()); diff != "" {
		t.Fatalf("unexpected names:\n%s", diff)
	}
	rec := shape.ShapeOne(sample{ID: "9", Plain: true}, "plain,id")
	if diff := cmp.Diff(Record{{Name: "id", Value: "9"}, {Name: "Plain", Value: true}}, rec); diff != "" {
		t.Fatalf("unexpected record:\n%s", diff)
	}
}

func TestFromStructCachedConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	shapes := make([]*Shape[sample], 8)
	for i := range shapes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shapes[i] = FromStruct[sample]()
		}(i)
	}
	wg.Wait()
	for _, s := range shapes {
		if s != shapes[0] {
			t.Fatalf("expected a single cached shape per type")
		}
	}
}

func TestNewShapeRejectsDuplicates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate field")
		}
	}()
	NewShape(
		Field[sample]{Name: "id", Get: func(s sample) any { return s.ID }},
		Field[sample]{Name: "ID", Get: func(s sample) any { return s.ID }},
	)
}
