package links

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Link is a HATEOAS link. It is a plain value.
type Link struct {
	Href   string `json:"href" xml:"href"`
	Rel    string `json:"rel" xml:"rel"`
	Method string `json:"method" xml:"method"`
}

// Route is a named operation mounted on the router.
type Route struct {
	Group   string
	Name    string
	Method  string
	Pattern string
}

// RouteNotFoundError is returned when no route is registered for an operation.
type RouteNotFoundError struct {
	Group string
	Name  string
}

func (e *RouteNotFoundError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("route not found for operation %s", e.Name)
	}
	return fmt.Sprintf("route not found for operation %s.%s", e.Group, e.Name)
}

var ErrMissingRouteValue = errors.New("missing route value")

// Table maps (group, operation) to route patterns.
type Table struct {
	mu     sync.RWMutex
	routes map[string]Route
}

func NewTable() *Table {
	return &Table{routes: make(map[string]Route)}
}

func key(group, name string) string {
	return strings.ToLower(group) + "." + strings.ToLower(name)
}

func (t *Table) Add(r Route) error {
	if r.Name == "" || r.Pattern == "" {
		return fmt.Errorf("route %+v: name and pattern are required", r)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key(r.Group, r.Name)
	if _, exists := t.routes[k]; exists {
		return fmt.Errorf("route %s.%s already registered", r.Group, r.Name)
	}
	t.routes[k] = r
	return nil
}

func (t *Table) Lookup(group, name string) (Route, error) {
	t.mu.RLock()
	r, ok := t.routes[key(group, name)]
	t.mu.RUnlock()
	if !ok {
		return Route{}, &RouteNotFoundError{Group: group, Name: name}
	}
	return r, nil
}

// Generator builds absolute links for one request.
type Generator struct {
	table   *Table
	baseURL string
	group   string
}

// ForRequest returns a Generator whose hrefs use the request's scheme and host.
// group is the default resource group for CreateLink.
func (t *Table) ForRequest(r *http.Request, group string) *Generator {
	return &Generator{table: t, baseURL: BaseURL(r), group: group}
}

// BaseURL honours X-Forwarded-Proto/Host set by a reverse proxy.
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	host := r.Host
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		host = strings.TrimSpace(strings.Split(h, ",")[0])
	}
	return scheme + "://" + host
}

// CreateLink resolves operation name (in group, or the generator's default group)
// and fills its {param} segments from values. Remaining non-empty values become
// the query string.
func (g *Generator) CreateLink(name, rel, method string, values map[string]string, group ...string) (Link, error) {
	grp := g.group
	if len(group) > 0 && group[0] != "" {
		grp = group[0]
	}
	route, err := g.table.Lookup(grp, name)
	if err != nil {
		return Link{}, err
	}

	used := make(map[string]bool, len(values))
	segments := strings.Split(route.Pattern, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		param := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
		// chi allows {id:regex}
		param, _, _ = strings.Cut(param, ":")
		v, ok := values[param]
		if !ok || v == "" {
			return Link{}, fmt.Errorf("%w %q for operation %s", ErrMissingRouteValue, param, name)
		}
		segments[i] = url.PathEscape(v)
		used[param] = true
	}

	query := url.Values{}
	for k, v := range values {
		if used[k] || v == "" {
			continue
		}
		query.Set(k, v)
	}
	href := g.baseURL + strings.Join(segments, "/")
	if len(query) > 0 {
		href += "?" + query.Encode()
	}
	return Link{Href: href, Rel: rel, Method: method}, nil
}
