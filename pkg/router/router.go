// Package router is a small net/http router with method-aware routes,
// single-segment wildcards, and colored request logging.
package router

import (
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type Router struct {
	mux    *http.ServeMux
	routes map[string]HandlerFunc // key = METHOD:PATH
	paths  map[string]bool
}

func New() *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
	}

	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		if h, ok := r.routes[req.Method+":"+req.URL.Path]; ok {
			h(lrw, req)
		} else if h, ok := r.matchWildcard(req.Method, req.URL.Path); ok {
			h(lrw, req)
		} else if r.paths[req.URL.Path] {
			http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
		} else {
			http.Error(lrw, "Not Found", http.StatusNotFound)
		}

		log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
			colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
			methodColor(req.Method), req.Method, colorReset,
			req.URL.Path,
			statusColor(lrw.statusCode), lrw.statusCode, colorReset,
			colorBlue, time.Since(start), colorReset,
		)
	})

	return r
}

// matchWildcard picks the most specific wildcard route for a path:
// more segments win, and an exact-length pattern beats a trailing "*".
func (r *Router) matchWildcard(method, path string) (HandlerFunc, bool) {
	var best HandlerFunc
	bestScore := -1
	for pattern := range r.paths {
		if !strings.Contains(pattern, "*") || !matchPattern(path, pattern) {
			continue
		}
		h, ok := r.routes[method+":"+pattern]
		if !ok {
			continue
		}
		score := 2 * len(strings.Split(strings.Trim(pattern, "/"), "/"))
		if !strings.HasSuffix(pattern, "*") {
			score++
		}
		if score > bestScore {
			best, bestScore = h, score
		}
	}
	return best, best != nil
}

// matchPattern matches a request path against a registered pattern
// where "*" matches exactly one segment, except a trailing "*" which
// matches the whole remainder.
func matchPattern(path, pattern string) bool {
	ps := strings.Split(strings.Trim(path, "/"), "/")
	rs := strings.Split(strings.Trim(pattern, "/"), "/")

	if len(rs) > 0 && rs[len(rs)-1] == "*" {
		if len(ps) < len(rs)-1 {
			return false
		}
		for i := 0; i < len(rs)-1; i++ {
			if rs[i] != "*" && ps[i] != rs[i] {
				return false
			}
		}
		return true
	}

	if len(ps) != len(rs) {
		return false
	}
	for i, seg := range rs {
		if seg != "*" && ps[i] != seg {
			return false
		}
	}
	return true
}

func (r *Router) register(method, path string, handler HandlerFunc) {
	r.routes[method+":"+path] = handler
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)    { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)   { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)    { r.register(http.MethodPut, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) { r.register(http.MethodDelete, path, handler) }

// Handler exposes the underlying mux, mainly for tests.
func (r *Router) Handler() http.Handler { return r.mux }

// Start runs the server; it only returns on a fatal listen error.
func (r *Router) Start(addr string) {
	log.Printf("🚀 server listening on %s%s%s", colorGreen, addr, colorReset)
	log.Fatal(http.ListenAndServe(addr, r.mux))
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusColor(code int) string {
	switch {
	case code < 300:
		return colorGreen
	case code < 400:
		return colorCyan
	case code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodPut:
		return colorYellow
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
