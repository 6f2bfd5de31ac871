// Package fixture provides a small JSON HTTP server that test suites can be
// pointed at. Each route answers GET with a fixed status and body.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"
)

// Route is the canned response for one path. Raw, when set, is written
// verbatim; otherwise JSON is encoded.
type Route struct {
	Status int     `yaml:"status"`
	JSON   any     `yaml:"json,omitempty"`
	Raw    *string `yaml:"raw,omitempty"`
}

// NotFoundBody is served for unknown paths.
var NotFoundBody = map[string]any{"success": false, "message": "request path not found"}

func raw(s string) *string { return &s }

// DefaultRoutes returns the built-in route table.
func DefaultRoutes() map[string]Route {
	return map[string]Route{
		"/login_success": {Status: http.StatusOK, JSON: map[string]any{"success": true, "message": "login success"}},
		"/login_fail":    {Status: http.StatusOK, JSON: map[string]any{"success": false, "message": "internal error"}},
		"/ok":            {Status: http.StatusOK, JSON: map[string]any{"success": true}},
		"/empty":         {Status: http.StatusOK, Raw: raw("")},
		"/missing":       {Status: http.StatusNotFound, Raw: raw("")},
		"/not_json":      {Status: http.StatusOK, Raw: raw("<html>hello</html>")},
		"/teapot":        {Status: http.StatusTeapot, JSON: map[string]any{"error": "short and stout"}},
	}
}

// LoadRoutes reads a YAML route table keyed by path.
func LoadRoutes(path string) (map[string]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	var routes map[string]Route
	if err := yaml.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	for p, r := range routes {
		if r.Status == 0 {
			r.Status = http.StatusOK
			routes[p] = r
		}
		if r.JSON != nil {
			if _, err := json.Marshal(r.JSON); err != nil {
				return nil, fmt.Errorf("route %s: json body: %w", p, err)
			}
		}
	}
	return routes, nil
}

// NewHandler builds a chi router serving routes.
// A nil logger discards request and encoding logs.
func NewHandler(routes map[string]Route, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	if logger != nil {
		r.Use(requestLog(logger))
	} else {
		logger = slog.New(slog.DiscardHandler)
	}
	for path, route := range routes {
		route := route
		r.Get(path, func(w http.ResponseWriter, req *http.Request) {
			write(w, req, route, logger)
		})
	}
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		write(w, req, Route{Status: http.StatusNotFound, JSON: NotFoundBody}, logger)
	})
	return r
}

func write(w http.ResponseWriter, req *http.Request, route Route, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(route.Status)
	if route.Raw != nil {
		_, _ = w.Write([]byte(*route.Raw))
		return
	}
	if route.JSON == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(route.JSON); err != nil {
		logger.Error("encode response body", "path", req.URL.Path, "err", err)
	}
}

func requestLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving fixtures", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down fixture server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
