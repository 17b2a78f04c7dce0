package shaping

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// LinksField is the synthetic property injected by a link factory.
const LinksField = "links"

// Field is one shapeable property of T: its public name and a typed getter.
type Field[T any] struct {
	Name string
	Get  func(T) any
}

// Shape is the ordered descriptor table for T.
type Shape[T any] struct {
	fields []Field[T]
	index  map[string]int
}

// NewShape builds a descriptor table. Names are matched case-insensitively and must be unique.
func NewShape[T any](fields ...Field[T]) *Shape[T] {
	s := &Shape[T]{
		fields: make([]Field[T], 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		key := strings.ToLower(f.Name)
		if _, dup := s.index[key]; dup {
			panic(fmt.Sprintf("shaping: duplicate field %q", f.Name))
		}
		if f.Get == nil {
			panic(fmt.Sprintf("shaping: field %q has no getter", f.Name))
		}
		s.index[key] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

var structShapes sync.Map // reflect.Type -> any(*Shape[T])

// FromStruct derives a Shape from the exported fields of struct type T,
// named after their json tags. The table is built once per type.
func FromStruct[T any]() *Shape[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if cached, ok := structShapes.Load(t); ok {
		return cached.(*Shape[T])
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("shaping: %s is not a struct", t))
	}

	var fields []Field[T]
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		idx := i
		fields = append(fields, Field[T]{
			Name: name,
			Get: func(v T) any {
				return reflect.ValueOf(v).Field(idx).Interface()
			},
		})
	}

	// a concurrent first call may have stored its own copy; both are equivalent
	actual, _ := structShapes.LoadOrStore(t, NewShape(fields...))
	return actual.(*Shape[T])
}

// Names returns the declared field names in order.
func (s *Shape[T]) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// FieldSet is a case-insensitive set of requested field names. Empty means all fields.
type FieldSet map[string]struct{}

// ParseFields splits a comma-separated field list into a set.
func ParseFields(raw string) FieldSet {
	set := FieldSet{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			set[strings.ToLower(part)] = struct{}{}
		}
	}
	return set
}

func (fs FieldSet) Has(name string) bool {
	_, ok := fs[strings.ToLower(name)]
	return ok
}

// Sorted returns the lower-cased names in stable order.
func (fs FieldSet) Sorted() []string {
	out := make([]string, 0, len(fs))
	for k := range fs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Extract parses the field list and filters the descriptors to the requested ones,
// keeping declared order. Unknown names are ignored here.
func (s *Shape[T]) Extract(raw string) (FieldSet, []Field[T]) {
	set := ParseFields(raw)
	if len(set) == 0 {
		return set, s.fields
	}
	out := make([]Field[T], 0, len(set))
	for _, f := range s.fields {
		if set.Has(f.Name) {
			out = append(out, f)
		}
	}
	return set, out
}

// InvalidFieldsError reports the raw field list and the names T does not have.
type InvalidFieldsError struct {
	Value  string
	Fields []string
}

func (e *InvalidFieldsError) Error() string {
	return fmt.Sprintf("the provided data shaping fields aren't valid: %q (unknown: %s)", e.Value, strings.Join(e.Fields, ", "))
}

// Validate accepts an empty list; otherwise every requested name must exist.
func (s *Shape[T]) Validate(raw string) error {
	set := ParseFields(raw)
	var unknown []string
	for _, name := range set.Sorted() {
		if _, ok := s.index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return &InvalidFieldsError{Value: raw, Fields: unknown}
	}
	return nil
}

// LinkFactory builds the links for one item; fields is the raw field list of the request.
type LinkFactory[T any] func(item T, fields string) (any, error)

// ShapeData shapes every item with the requested fields, preserving position.
// When factory is non-nil its result is appended as the links property.
func (s *Shape[T]) ShapeData(items []T, raw string, factory LinkFactory[T]) ([]Record, error) {
	_, selected := s.Extract(raw)
	out := make([]Record, 0, len(items))
	for _, item := range items {
		rec := project(item, selected)
		if factory != nil {
			l, err := factory(item, raw)
			if err != nil {
				return nil, err
			}
			rec = rec.With(LinksField, l)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ShapeOne shapes a single item; the caller attaches links with Record.With.
func (s *Shape[T]) ShapeOne(item T, raw string) Record {
	_, selected := s.Extract(raw)
	return project(item, selected)
}

func project[T any](item T, fields []Field[T]) Record {
	rec := make(Record, 0, len(fields)+1)
	for _, f := range fields {
		rec = append(rec, Property{Name: f.Name, Value: f.Get(item)})
	}
	return rec
}
