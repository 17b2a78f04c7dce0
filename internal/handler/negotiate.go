package handler

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"DevHabit/internal/logger"
)

const (
	mediaJSON        = "application/json"
	mediaXML         = "application/xml"
	mediaHATEOAS     = "application/vnd.dev-habit.hateoas+json"
	hateoasPrefix    = "application/vnd.dev-habit.hateoas"
	DefaultVersion   = 1
	LatestVersion    = 2
	versionParamName = "v"
)

var errNotAcceptable = errors.New("not acceptable")

type versionKey struct{}

// WithVersion pins the API version for the request, e.g. from a /v2 URL prefix.
func WithVersion(ctx context.Context, v int) context.Context {
	return context.WithValue(ctx, versionKey{}, v)
}

func versionFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(versionKey{}).(int)
	return v, ok
}

// Negotiated is the representation chosen for a response.
type Negotiated struct {
	ContentType string
	XML         bool
	HATEOAS     bool
	Version     int
}

type acceptEntry struct {
	mediaType string
	params    map[string]string
	q         float64
}

// negotiate picks the first supported media type from Accept, ordered by q.
// An empty Accept or a wildcard yields plain JSON.
func negotiate(r *http.Request) (Negotiated, error) {
	n := Negotiated{ContentType: mediaJSON, Version: DefaultVersion}
	pinned, hasPinned := versionFromContext(r.Context())

	header := strings.TrimSpace(r.Header.Get("Accept"))
	if header != "" {
		entries := parseAccept(header)
		matched := false
		for _, e := range entries {
			if m, ok := matchMedia(e); ok {
				n = m
				matched = true
				break
			}
		}
		if !matched {
			return n, errNotAcceptable
		}
	}
	if hasPinned {
		n.Version = pinned
	}
	if n.Version < DefaultVersion || n.Version > LatestVersion {
		return n, errNotAcceptable
	}
	return n, nil
}

func parseAccept(header string) []acceptEntry {
	var entries []acceptEntry
	for _, part := range strings.Split(header, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if raw, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}
		entries = append(entries, acceptEntry{mediaType: mt, params: params, q: q})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].q > entries[j].q })
	return entries
}

func matchMedia(e acceptEntry) (Negotiated, bool) {
	n := Negotiated{Version: DefaultVersion}
	if raw, ok := e.params[versionParamName]; ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return n, false
		}
		n.Version = v
	}

	switch mt := e.mediaType; {
	case mt == mediaJSON, mt == "*/*", mt == "application/*":
		n.ContentType = mediaJSON
	case mt == mediaXML, mt == "text/xml":
		n.ContentType = mediaXML
		n.XML = true
	case mt == mediaHATEOAS:
		n.ContentType = mt
		n.HATEOAS = true
	case strings.HasPrefix(mt, hateoasPrefix+".") && strings.HasSuffix(mt, "+json"):
		// application/vnd.dev-habit.hateoas.{n}+json
		raw := strings.TrimSuffix(strings.TrimPrefix(mt, hateoasPrefix+"."), "+json")
		v, err := strconv.Atoi(raw)
		if err != nil {
			return n, false
		}
		n.ContentType = mt
		n.HATEOAS = true
		n.Version = v
	default:
		return n, false
	}
	return n, true
}

// write encodes body in the negotiated representation. root names the XML element.
func write(w http.ResponseWriter, n Negotiated, status int, root string, body any) {
	if n.XML {
		w.Header().Set("Content-Type", mediaXML+"; charset=utf-8")
		w.WriteHeader(status)
		if _, err := w.Write([]byte(xml.Header)); err != nil {
			return
		}
		enc := xml.NewEncoder(w)
		if err := enc.EncodeElement(body, xml.StartElement{Name: xml.Name{Local: root}}); err != nil {
			logger.Warn("write_response_failed", map[string]any{"error": err.Error()})
		}
		return
	}
	w.Header().Set("Content-Type", n.ContentType+"; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("write_response_failed", map[string]any{"error": err.Error()})
	}
}
