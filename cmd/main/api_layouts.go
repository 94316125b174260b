package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/CTAG07/Capyboard/pkg/herostore"
	"github.com/CTAG07/Capyboard/pkg/mascot"
	"github.com/CTAG07/Capyboard/pkg/studio"
	"github.com/CTAG07/Capyboard/pkg/templating"
)

// Reserved preview query parameters that are not layout fields.
const (
	paramExport   = "export"
	paramSnapshot = "snapshot"
)

func firstLayout() studio.LayoutName {
	return studio.Layouts()[0].Name
}

// LayoutAPI renders layout previews, the pages exports capture.
type LayoutAPI struct {
	tm         *templating.TemplateManager
	compositor *mascot.Compositor
	heroes     *herostore.Store
	logger     *slog.Logger

	mu        sync.Mutex
	snapshots map[string]studio.Layout
}

// NewLayoutAPI creates a new instance of the LayoutAPI.
func NewLayoutAPI(tm *templating.TemplateManager, compositor *mascot.Compositor, heroes *herostore.Store, logger *slog.Logger) *LayoutAPI {
	return &LayoutAPI{
		tm:         tm,
		compositor: compositor,
		heroes:     heroes,
		logger:     logger,
		snapshots:  make(map[string]studio.Layout),
	}
}

// RegisterRoutes sets up the routing for the layout listing and previews.
func (a *LayoutAPI) RegisterRoutes(r chi.Router) {
	r.Get("/api/layouts", a.handleList)
	r.Get("/api/layouts/{layout}", a.handleDefaults)
	r.Get("/preview/{layout}", a.handlePreview)
	r.Post("/preview/{layout}", a.handlePreview)
}

// handleList returns the layouts and the values their fields accept.
func (a *LayoutAPI) handleList(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"layouts":     studio.Layouts(),
		"platforms":   studio.Platforms(),
		"accents":     studio.Accents(),
		"brandColors": studio.BrandPalette(),
		"badges":      studio.EpisodeBadges(),
		"expressions": mascot.Expressions(),
	})
}

// handleDefaults returns the starting state of one layout.
func (a *LayoutAPI) handleDefaults(w http.ResponseWriter, r *http.Request) {
	l, err := studio.Default(studio.LayoutName(chi.URLParam(r, "layout")))
	if err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, l)
}

// handlePreview renders a layout from its query parameters (GET), a JSON
// body (POST) or a stored export snapshot.
func (a *LayoutAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := studio.LayoutName(chi.URLParam(r, "layout"))
	query := r.URL.Query()

	var l studio.Layout
	var err error
	switch {
	case query.Get(paramSnapshot) != "":
		var ok bool
		if l, ok = a.snapshot(query.Get(paramSnapshot)); !ok || l.LayoutName() != name {
			respondWithError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
	case r.Method == http.MethodPost:
		var body []byte
		if body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, 16<<20)); err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
			return
		}
		l, err = studio.Decode(name, body)
	default:
		l, err = studio.DecodeValues(name, queryValues(query))
	}
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, studio.ErrUnknownLayout) {
			status = http.StatusNotFound
		}
		respondWithError(w, status, err.Error())
		return
	}

	page, err := a.render(r.Context(), l, query.Has(paramExport))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		a.logger.Error("Failed to render preview", "layout", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render preview: %v", err))
		return
	}
	setPreviewHeaders(w)
	_, _ = w.Write(page)
}

// render produces the standalone preview page of l. Episode releases
// without a hero image of their own get the stored one.
func (a *LayoutAPI) render(ctx context.Context, l studio.Layout, exporting bool) ([]byte, error) {
	if ep, ok := l.(studio.EpisodeRelease); ok && ep.HeroImage == "" {
		hero, err := a.heroes.Get(ctx)
		switch {
		case err == nil:
			l = ep.WithHeroImage(hero)
		case !errors.Is(err, herostore.ErrNotFound):
			a.logger.Warn("Failed to load stored hero image", "error", err)
		}
	}

	var fragment template.HTML
	if req, ok := l.MascotRequest(); ok {
		comp, err := a.compositor.Compose(ctx, req)
		if err != nil {
			return nil, err
		}
		if fragment, err = comp.HTML(); err != nil {
			return nil, fmt.Errorf("failed to render mascot: %w", err)
		}
	}

	data := templating.NewLayoutData(l, fragment)
	data.Export = exporting
	var buf bytes.Buffer
	if err := a.tm.Render(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// putSnapshot keeps l until dropSnapshot and returns its id.
func (a *LayoutAPI) putSnapshot(l studio.Layout) (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	id := hex.EncodeToString(b)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshots[id] = l
	return id, nil
}

func (a *LayoutAPI) snapshot(id string) (studio.Layout, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.snapshots[id]
	return l, ok
}

func (a *LayoutAPI) dropSnapshot(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.snapshots, id)
}

// queryValues flattens query parameters for studio.DecodeValues: single
// values become strings, repeated ones lists, and dotted keys such as
// theme.background nest.
func queryValues(q url.Values) map[string]any {
	out := make(map[string]any, len(q))
	for key, vals := range q {
		if key == paramExport || key == paramSnapshot || len(vals) == 0 {
			continue
		}
		var v any = vals[0]
		if len(vals) > 1 {
			v = append([]string(nil), vals...)
		}

		parts := strings.Split(key, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := m[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				m[p] = child
			}
			m = child
		}
		m[parts[len(parts)-1]] = v
	}
	return out
}

func setPreviewHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}
