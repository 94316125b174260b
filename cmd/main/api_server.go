package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	actionShutdown = "shutdown"
	actionRestart  = "restart"
)

// ServerAPI holds the dependencies for the main application API handlers.
type ServerAPI struct {
	cm         *ConfigManager
	actionChan chan string
	logger     *slog.Logger
}

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

func currentVersion() VersionInfo {
	return VersionInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}
}

// NewServerAPI creates a new instance of the ServerAPI.
func NewServerAPI(cm *ConfigManager, actionChan chan string, logger *slog.Logger) *ServerAPI {
	return &ServerAPI{
		cm:         cm,
		actionChan: actionChan,
		logger:     logger,
	}
}

// RegisterRoutes sets up the routing for all /api/server endpoints.
func (a *ServerAPI) RegisterRoutes(r chi.Router) {
	r.Route("/api/server", func(r chi.Router) {
		r.Get("/config", a.handleGetConfig)
		r.Put("/config", a.handlePutConfig)
		r.Get("/version", a.handleVersion)
		r.Get("/health", a.handleHealth)
		r.Post("/shutdown", a.handleShutdown)
		r.Post("/restart", a.handleRestart)
	})
}

func (a *ServerAPI) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, a.cm.Get())
}

// handlePutConfig replaces the configuration. Template settings apply at
// once; the rest takes effect on the next restart.
func (a *ServerAPI) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var newConfig Config
	if err := decodeJSONBody(w, r, 1<<20, &newConfig); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if err := a.cm.Update(newConfig); err != nil {
		a.logger.Error("Failed to update configuration", "error", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.logger.Info("Application configuration updated via API. Some changes may require a restart.")
	respondWithJSON(w, http.StatusOK, a.cm.Get())
}

// handleVersion returns the application's build information.
func (a *ServerAPI) handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, currentVersion())
}

func (a *ServerAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleShutdown initiates a graceful shutdown of the server.
func (a *ServerAPI) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	a.logger.Warn("Shutdown initiated via API")
	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Server is shutting down..."})

	go func() {
		a.actionChan <- actionShutdown
	}()
}

// handleRestart initiates a graceful restart of the server.
func (a *ServerAPI) handleRestart(w http.ResponseWriter, _ *http.Request) {
	a.logger.Warn("Restart initiated via API")
	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Server is restarting..."})

	go func() {
		a.actionChan <- actionRestart
	}()
}
