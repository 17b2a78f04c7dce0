package sorting

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Order is one key of a multi-key ordering, expressed on storage property paths.
type Order struct {
	Path       string
	Descending bool
}

func (o Order) direction() string {
	if o.Descending {
		return "DESC"
	}
	return "ASC"
}

// UnknownSortFieldError is returned when a term was not validated beforehand.
type UnknownSortFieldError struct {
	Field string
}

func (e *UnknownSortFieldError) Error() string {
	return fmt.Sprintf("unknown sort field: %s", e.Field)
}

// Parse turns a sort expression into orders. Terms are "name" or "name asc|desc";
// a missing direction means ascending. The mapping's Reverse flag flips the
// requested direction. An empty expression orders by defaultPath ascending.
func Parse(sort string, mappings []Mapping, defaultPath string) ([]Order, error) {
	terms := splitTerms(sort)
	if len(terms) == 0 {
		return []Order{{Path: defaultPath}}, nil
	}
	orders := make([]Order, 0, len(terms))
	for _, term := range terms {
		name, desc := splitTerm(term)
		m, ok := find(mappings, name)
		if !ok {
			return nil, &UnknownSortFieldError{Field: name}
		}
		orders = append(orders, Order{Path: m.PropertyName, Descending: m.Reverse != desc})
	}
	return orders, nil
}

// ApplySort adds ORDER BY clauses to sb. columns maps property paths
// (e.g. "Frequency.Type") to SQL column expressions.
func ApplySort(sb squirrel.SelectBuilder, sort string, mappings []Mapping, defaultPath string, columns map[string]string) (squirrel.SelectBuilder, error) {
	orders, err := Parse(sort, mappings, defaultPath)
	if err != nil {
		return sb, err
	}
	clauses := make([]string, 0, len(orders))
	for _, o := range orders {
		col, ok := columns[o.Path]
		if !ok {
			return sb, fmt.Errorf("sort path %q has no storage column", o.Path)
		}
		clauses = append(clauses, col+" "+o.direction())
	}
	return sb.OrderBy(clauses...), nil
}

func splitTerms(sort string) []string {
	parts := strings.Split(sort, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitTerm returns the field name and whether "desc" was requested.
func splitTerm(term string) (string, bool) {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return "", false
	}
	if len(fields) == 1 {
		return fields[0], false
	}
	return fields[0], strings.EqualFold(fields[1], "desc")
}
