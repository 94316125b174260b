package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/CTAG07/Capyboard/pkg/studio"
	"github.com/CTAG07/Capyboard/pkg/templating"
)

// maxTemplateBytes caps uploaded and tested template sources.
const maxTemplateBytes = 1 << 20

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	tm     *templating.TemplateManager
	logger *slog.Logger
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(tm *templating.TemplateManager, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		tm:     tm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/templates endpoints.
func (t *TemplateAPI) RegisterRoutes(r chi.Router) {
	r.Route("/api/templates", func(r chi.Router) {
		r.Get("/", t.handleList)
		r.Post("/refresh", t.handleRefresh)
		r.Post("/test", t.handleTest)
		r.Get("/{name}", t.handleGetFile)
		r.Put("/{name}", t.handlePutFile)
		r.Delete("/{name}", t.handleDeleteFile)
	})
}

// handleRefresh triggers a manual refresh of templates from disk.
func (t *TemplateAPI) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if err := t.tm.Refresh(); err != nil {
		t.logger.Error("API triggered refresh failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to refresh templates: %v", err))
		return
	}
	t.logger.Info("Templates refreshed via API")
	w.WriteHeader(http.StatusNoContent)
}

// handleList returns the names of all loaded templates.
func (t *TemplateAPI) handleList(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, t.tm.GetTemplateNames())
}

// handleTest executes a template source without saving it. The ?layout=
// parameter picks whose defaults it runs against.
func (t *TemplateAPI) handleTest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTemplateBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	name := studio.LayoutName(r.URL.Query().Get("layout"))
	if name == "" {
		name = firstLayout()
	}
	l, err := studio.Default(name)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err = t.tm.ExecuteTemplateString(&buf, string(body), templating.NewLayoutData(l, "")); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template execution failed: %v", err))
		return
	}
	setPreviewHeaders(w)
	_, _ = w.Write(buf.Bytes())
}

// handleGetFile returns the override of name, or the embedded source when
// there is none.
func (t *TemplateAPI) handleGetFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validTemplateName(name) {
		respondWithError(w, http.StatusBadRequest, "Invalid template name format")
		return
	}

	var content []byte
	var err error
	if path, ok := t.overridePath(name); ok {
		content, err = os.ReadFile(path)
	} else {
		err = fs.ErrNotExist
	}
	if errors.Is(err, fs.ErrNotExist) {
		content, err = fs.ReadFile(templating.EmbeddedFS(), name)
	}
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Template not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(content)
}

// handlePutFile writes an override and reloads. A source that fails to parse
// is removed again so the previous templates stay in effect.
func (t *TemplateAPI) handlePutFile(w http.ResponseWriter, r *http.Request) {
	path, ok := t.pathFor(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTemplateBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	previous, readErr := os.ReadFile(path)
	if err = os.MkdirAll(filepath.Dir(path), 0755); err == nil {
		err = os.WriteFile(path, body, 0644)
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to write template file: %v", err))
		return
	}

	if err = t.tm.Refresh(); err != nil {
		if readErr == nil {
			_ = os.WriteFile(path, previous, 0644)
		} else {
			_ = os.Remove(path)
		}
		_ = t.tm.Refresh()
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template rejected: %v", err))
		return
	}
	t.logger.Info("Template override saved", "path", path)
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteFile removes an override, restoring the embedded template.
func (t *TemplateAPI) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	path, ok := t.pathFor(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			respondWithError(w, http.StatusNotFound, "Template not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete template file: %v", err))
		return
	}
	_ = t.tm.Refresh()
	w.WriteHeader(http.StatusNoContent)
}

// pathFor resolves name inside the override directory, writing the error
// response itself when it cannot.
func (t *TemplateAPI) pathFor(w http.ResponseWriter, name string) (string, bool) {
	if !validTemplateName(name) {
		respondWithError(w, http.StatusBadRequest, "Invalid template name format")
		return "", false
	}
	path, ok := t.overridePath(name)
	if !ok {
		respondWithError(w, http.StatusConflict, "No template directory configured")
		return "", false
	}
	return path, true
}

func (t *TemplateAPI) overridePath(name string) (string, bool) {
	dir := t.tm.GetTemplateDir()
	if dir == "" {
		return "", false
	}
	templateDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	path := filepath.Join(templateDir, name)
	if !strings.HasPrefix(path, templateDir+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

func validTemplateName(name string) bool {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return false
	}
	return strings.HasSuffix(name, ".tmpl.html") || strings.HasSuffix(name, ".part.html")
}
