package router

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"DevHabit/internal/auth"
	"DevHabit/internal/config"
	"DevHabit/internal/handler"
	"DevHabit/internal/links"
	"DevHabit/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// New mounts every API route on a chi router and records it in the link table.
// Routes that are not public require a bearer token accepted by validator.
func New(api *handler.API, cors config.CORSConfig, validator *auth.Validator) (http.Handler, error) {
	if validator == nil {
		return nil, errors.New("router: token validator is required")
	}
	if api.Links == nil {
		api.Links = links.NewTable()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withLogging)
	r.Use(withRecovery)
	r.Use(withCORS(cors.AllowOrigin, cors.AllowCredentials))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.Fail(w, req, http.StatusNotFound, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.Fail(w, req, http.StatusMethodNotAllowed, "")
	})

	requireToken := auth.Middleware(validator, handler.Unauthorized)
	for _, rt := range api.Routes() {
		if err := api.Links.Add(links.Route{Group: rt.Group, Name: rt.Name, Method: rt.Method, Pattern: rt.Pattern}); err != nil {
			return nil, err
		}
		var h http.Handler = rt.Handler
		if !rt.Public {
			h = requireToken(h)
		}
		r.Method(rt.Method, rt.Pattern, h)
		logger.Debug("route_mounted", map[string]any{
			"method":  rt.Method,
			"pattern": rt.Pattern,
			"name":    rt.Group + "." + rt.Name,
		})
	}
	return withVersionPrefix(r), nil
}

// withVersionPrefix serves /v1/... and /v2/... by stripping the prefix and
// pinning the version for content negotiation.
func withVersionPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for v := handler.DefaultVersion; v <= handler.LatestVersion; v++ {
			prefix := "/v" + strconv.Itoa(v)
			if r.URL.Path != prefix && !strings.HasPrefix(r.URL.Path, prefix+"/") {
				continue
			}
			r2 := r.Clone(handler.WithVersion(r.Context(), v))
			r2.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
			if r2.URL.Path == "" {
				r2.URL.Path = "/"
			}
			r2.URL.RawPath = ""
			next.ServeHTTP(w, r2)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}
		switch {
		case sw.status >= 500:
			logger.Error("response", fields)
		case sw.status >= 400:
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	})
}

// withRecovery turns a handler panic into a 500 problem carrying the request id.
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("panic_recovered", map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": middleware.GetReqID(r.Context()),
				"panic":      rec,
				"stack":      string(debug.Stack()),
			})
			handler.Fail(w, r, http.StatusInternalServerError, "An unexpected error occurred.")
		}()
		next.ServeHTTP(w, r)
	})
}
