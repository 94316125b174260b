package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CTAG07/Capyboard/pkg/herostore"
)

// HeroAPI stores the episode release hero image between sessions.
type HeroAPI struct {
	heroes *herostore.Store
	logger *slog.Logger
}

type heroBody struct {
	HeroImageURL string `json:"heroImageUrl"`
}

// NewHeroAPI creates a new instance of the HeroAPI.
func NewHeroAPI(heroes *herostore.Store, logger *slog.Logger) *HeroAPI {
	return &HeroAPI{heroes: heroes, logger: logger}
}

// RegisterRoutes sets up the routing for /api/hero.
func (a *HeroAPI) RegisterRoutes(r chi.Router) {
	r.Get("/api/hero", a.handleGet)
	r.Put("/api/hero", a.handlePut)
	r.Delete("/api/hero", a.handleDelete)
}

func (a *HeroAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	uri, err := a.heroes.Get(r.Context())
	if errors.Is(err, herostore.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "No hero image stored")
		return
	}
	if err != nil {
		a.logger.Error("Failed to load hero image", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load hero image")
		return
	}
	respondWithJSON(w, http.StatusOK, heroBody{HeroImageURL: uri})
}

func (a *HeroAPI) handlePut(w http.ResponseWriter, r *http.Request) {
	var body heroBody
	// Base64 inflates the image by a third.
	if err := decodeJSONBody(w, r, herostore.DefaultMaxImageBytes*2, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.heroes.Set(r.Context(), body.HeroImageURL); err != nil {
		if errors.Is(err, herostore.ErrInvalidImage) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Error("Failed to store hero image", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to store hero image")
		return
	}
	a.logger.Info("Hero image stored", "bytes", len(body.HeroImageURL))
	w.WriteHeader(http.StatusNoContent)
}

func (a *HeroAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.heroes.Clear(r.Context()); err != nil {
		a.logger.Error("Failed to clear hero image", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to clear hero image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
