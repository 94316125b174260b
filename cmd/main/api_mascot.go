package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"

	"github.com/CTAG07/Capyboard/pkg/mascot"
)

// maxMascotSize caps the edge length a client may ask for.
const maxMascotSize = 4096

// MascotAPI holds the dependencies for the mascot handlers.
type MascotAPI struct {
	compositor *mascot.Compositor
	source     mascot.AssetSource
	embedded   mascot.FSSource
	logger     *slog.Logger
}

// NewMascotAPI creates a new instance of the MascotAPI. source is used to
// embed image layers into flattened SVGs.
func NewMascotAPI(compositor *mascot.Compositor, source mascot.AssetSource, logger *slog.Logger) *MascotAPI {
	return &MascotAPI{
		compositor: compositor,
		source:     source,
		embedded:   mascot.FSSource{FS: mascot.DefaultFS()},
		logger:     logger,
	}
}

// RegisterRoutes sets up the routing for all /api/mascot endpoints.
func (a *MascotAPI) RegisterRoutes(r chi.Router) {
	r.Get("/api/mascot/options", a.handleOptions)
	r.Get("/api/mascot", a.handleCompose)
	r.Post("/api/mascot", a.handleCompose)
	r.Get("/api/mascot.svg", a.handleSVG)
	r.Post("/api/mascot.svg", a.handleSVG)
}

// handleAsset serves one of the embedded mascot SVGs.
func (a *MascotAPI) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if path.Ext(name) != ".svg" || strings.Contains(name, "..") {
		respondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}
	data, err := a.embedded.Fetch(r.Context(), name)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

// handleOptions lists the accepted request values.
func (a *MascotAPI) handleOptions(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"expressions": mascot.Expressions(),
		"eyeStates":   []mascot.EyeState{mascot.EyeNormal, mascot.EyeClosed, mascot.EyeWhite},
		"addOns":      mascot.AllAddOns(),
		"defaultSize": mascot.DefaultSize,
	})
}

// handleCompose returns the layer stack as JSON.
func (a *MascotAPI) handleCompose(w http.ResponseWriter, r *http.Request) {
	comp, ok := a.compose(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, comp)
}

// handleSVG returns the layer stack flattened into one SVG document.
func (a *MascotAPI) handleSVG(w http.ResponseWriter, r *http.Request) {
	comp, ok := a.compose(w, r)
	if !ok {
		return
	}
	data, err := comp.SVG(r.Context(), a.source)
	if err != nil {
		a.logger.Warn("Failed to flatten mascot", "error", err)
		respondWithError(w, http.StatusBadGateway, fmt.Sprintf("Failed to embed mascot layers: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(data)
}

func (a *MascotAPI) compose(w http.ResponseWriter, r *http.Request) (mascot.Composition, bool) {
	var req mascot.Request
	var err error
	if r.Method == http.MethodPost {
		err = decodeJSONBody(w, r, 1<<20, &req)
	} else {
		req, err = mascotRequestFromQuery(r)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return mascot.Composition{}, false
	}
	if req.Size > maxMascotSize {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("size must be at most %d", maxMascotSize))
		return mascot.Composition{}, false
	}

	comp, err := a.compositor.Compose(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return mascot.Composition{}, false
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to compose mascot: %v", err))
		return mascot.Composition{}, false
	}
	return comp, true
}

// mascotRequestFromQuery reads expression, eyeState, addOns and size. addOns
// may repeat or be comma separated; present but empty means no add-ons.
func mascotRequestFromQuery(r *http.Request) (mascot.Request, error) {
	values := queryValues(r.URL.Query())
	if raw, ok := r.URL.Query()["addOns"]; ok {
		addOns := []string{}
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					addOns = append(addOns, part)
				}
			}
		}
		values["addOns"] = addOns
	}

	var req mascot.Request
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &req,
	})
	if err != nil {
		return mascot.Request{}, err
	}
	if err = dec.Decode(values); err != nil {
		return mascot.Request{}, fmt.Errorf("invalid mascot query: %w", err)
	}
	return req, nil
}
