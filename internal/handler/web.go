// Package handler contains the HTTP handlers of the board.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the request (path params, query string, JSON body)
//  2. Call one service method
//  3. Write the JSON envelope
//
// Handlers hold no business rules. Ownership checks, validation of values
// and the club/role bookkeeping all live in internal/service; a handler only
// rejects requests whose shape is wrong.
package handler

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// bannerTemplate is the page served at / when no web bundle is configured.
var bannerTemplate = template.Must(template.New("banner").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>The API is running. Endpoints live under /auth, /clubs, /events and /comments.</p>
<p>Server time: {{.Now}}</p>
</body>
</html>
`))

// WebHandler serves the browser-facing routes: the single-page app bundle
// when one is configured, and a plain status page otherwise.
type WebHandler struct {
	dir    string
	files  http.Handler
	logger *slog.Logger
}

// NewWebHandler creates a WebHandler. dir may be empty; if it is set it must
// be an existing directory.
func NewWebHandler(dir string, logger *slog.Logger) (*WebHandler, error) {
	h := &WebHandler{logger: logger}
	if dir == "" {
		return h, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New(abs + " is not a directory")
	}

	h.dir = abs
	h.files = http.FileServer(http.Dir(abs))
	return h, nil
}

// HandleIndex serves GET /* for anything the API routes didn't claim.
//
// With a bundle, existing files are served as-is and every other path falls
// back to index.html so client-side routes like /events/123 survive a
// reload. Without one, / renders the banner and anything else is 404.
func (h *WebHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		if r.URL.Path != "/" {
			writeFailure(w, http.StatusNotFound, "route not found")
			return
		}
		h.renderBanner(w)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	name := strings.TrimPrefix(clean, "/")
	if name == "" {
		name = "."
	}
	if info, err := fs.Stat(os.DirFS(h.dir), name); err != nil || info.IsDir() {
		http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
		return
	}
	h.files.ServeHTTP(w, r)
}

func (h *WebHandler) renderBanner(w http.ResponseWriter) {
	data := map[string]any{
		"Title": "clubboard",
		"Now":   time.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bannerTemplate.Execute(w, data); err != nil {
		h.logger.Error("failed to render banner", slog.String("error", err.Error()))
	}
}

// Pinger is anything that can report whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// HandleHealth answers 200 when the database responds within two seconds
// and 503 otherwise.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeFailure(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
