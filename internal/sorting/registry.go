package sorting

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Mapping binds a public sort field to a storage property path.
// Reverse flips the requested direction, e.g. for fields whose natural order is inverted.
type Mapping struct {
	SortField    string
	PropertyName string
	Reverse      bool
}

var ErrUnregisteredMapping = errors.New("sort mapping is not registered")

type pairKey struct {
	source      reflect.Type
	destination reflect.Type
}

// Registry holds exactly one mapping definition per (source, destination) type pair.
type Registry struct {
	mu   sync.RWMutex
	defs map[pairKey][]Mapping
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[pairKey][]Mapping)}
}

// Register adds the mapping definition for S -> D. A second definition for the
// same pair is rejected, as are duplicate sort field names inside one definition.
func Register[S, D any](r *Registry, mappings ...Mapping) error {
	return r.register(reflect.TypeOf((*S)(nil)).Elem(), reflect.TypeOf((*D)(nil)).Elem(), mappings)
}

// MustRegister is Register for package-level wiring at startup.
func MustRegister[S, D any](r *Registry, mappings ...Mapping) {
	if err := Register[S, D](r, mappings...); err != nil {
		panic(err)
	}
}

func (r *Registry) register(src, dst reflect.Type, mappings []Mapping) error {
	seen := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		name := strings.ToLower(strings.TrimSpace(m.SortField))
		if name == "" || strings.TrimSpace(m.PropertyName) == "" {
			return fmt.Errorf("sort mapping %s -> %s: empty field in %+v", src.Name(), dst.Name(), m)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("sort mapping %s -> %s: duplicate sort field %q", src.Name(), dst.Name(), m.SortField)
		}
		seen[name] = struct{}{}
	}

	key := pairKey{source: src, destination: dst}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[key]; exists {
		return fmt.Errorf("sort mapping %s -> %s is already registered", src.Name(), dst.Name())
	}
	r.defs[key] = append([]Mapping(nil), mappings...)
	return nil
}

// GetMappings returns the mappings registered for S -> D.
func GetMappings[S, D any](r *Registry) ([]Mapping, error) {
	src, dst := reflect.TypeOf((*S)(nil)).Elem(), reflect.TypeOf((*D)(nil)).Elem()
	r.mu.RLock()
	mappings, ok := r.defs[pairKey{source: src, destination: dst}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnregisteredMapping, src.Name(), dst.Name())
	}
	return mappings, nil
}

// ValidateMappings checks that every term of the sort expression names a
// registered sort field. An empty expression is valid.
func ValidateMappings[S, D any](r *Registry, sort string) error {
	if strings.TrimSpace(sort) == "" {
		return nil
	}
	mappings, err := GetMappings[S, D](r)
	if err != nil {
		return err
	}
	var unknown []string
	for _, term := range splitTerms(sort) {
		name, _ := splitTerm(term)
		if _, ok := find(mappings, name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return &InvalidSortError{Value: sort, Fields: unknown}
	}
	return nil
}

// InvalidSortError reports the raw sort value and the names that did not resolve.
type InvalidSortError struct {
	Value  string
	Fields []string
}

func (e *InvalidSortError) Error() string {
	return fmt.Sprintf("the provided sort parameter isn't valid: %q (unknown: %s)", e.Value, strings.Join(e.Fields, ", "))
}

func find(mappings []Mapping, name string) (Mapping, bool) {
	for _, m := range mappings {
		if strings.EqualFold(m.SortField, name) {
			return m, true
		}
	}
	return Mapping{}, false
}
