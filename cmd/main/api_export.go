package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/CTAG07/Capyboard/pkg/export"
	"github.com/CTAG07/Capyboard/pkg/studio"
)

// errExportBusy is returned when the same export is already running.
var errExportBusy = errors.New("export already in progress")

// Delivery modes of an export request.
const (
	deliverDownload = "download"
	deliverSave     = "save"
)

// exportRequest is the body of POST /api/export.
type exportRequest struct {
	Layout   studio.LayoutName `json:"layout"`
	Format   export.Format     `json:"format"`
	FileName string            `json:"fileName"`
	// State is the layout's JSON state; empty exports its defaults.
	State   json.RawMessage `json:"state,omitempty"`
	Deliver string          `json:"deliver,omitempty"`
	// Key groups requests that must not overlap. It defaults to layout+format.
	Key string `json:"key,omitempty"`
}

// exportJob is one validated export.
type exportJob struct {
	Layout   studio.Layout
	Format   export.Format
	FileName string
	Key      string
}

func (j exportJob) key() string {
	if j.Key != "" {
		return j.Key
	}
	return string(j.Layout.LayoutName()) + "/" + j.Format.String()
}

// ExportAPI captures previews through the browser and delivers the images.
type ExportAPI struct {
	cm       *ConfigManager
	layouts  *LayoutAPI
	capture  Capture
	metrics  *Metrics
	logger   *slog.Logger
	triggers export.TriggerSet
}

// NewExportAPI creates a new instance of the ExportAPI.
func NewExportAPI(cm *ConfigManager, layouts *LayoutAPI, capture Capture, metrics *Metrics, logger *slog.Logger) *ExportAPI {
	return &ExportAPI{
		cm:      cm,
		layouts: layouts,
		capture: capture,
		metrics: metrics,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for /api/export.
func (a *ExportAPI) RegisterRoutes(r chi.Router) {
	r.Post("/api/export", a.handleExport)
}

func (a *ExportAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSONBody(w, r, 16<<20, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var l studio.Layout
	var err error
	if len(req.State) == 0 {
		l, err = studio.Default(req.Layout)
	} else {
		l, err = studio.Decode(req.Layout, req.State)
	}
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, studio.ErrUnknownLayout) {
			status = http.StatusNotFound
		}
		respondWithError(w, status, err.Error())
		return
	}
	job := exportJob{Layout: l, Format: req.Format, FileName: req.FileName, Key: req.Key}

	var deliverer export.Deliverer
	var wrote bool
	switch req.Deliver {
	case "", deliverDownload:
		deliverer = export.DeliverFunc(func(ctx context.Context, dl export.Download) error {
			wrote = true
			return export.ResponseDeliverer{W: w}.Deliver(ctx, dl)
		})
	case deliverSave:
		deliverer = export.DirDeliverer{Dir: a.cm.Get().Export.OutputDir}
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unknown delivery %q", req.Deliver))
		return
	}

	dl, err := a.run(r.Context(), job, deliverer)
	switch {
	case err == nil:
		if req.Deliver == deliverSave {
			respondWithJSON(w, http.StatusOK, map[string]any{
				"fileName": dl.FileName,
				"path":     deliverer.(export.DirDeliverer).Path(dl.FileName),
				"bytes":    len(dl.Image.Data),
			})
		}
	case wrote:
		a.logger.Warn("Failed to send export", "file", dl.FileName, "error", err)
	case errors.Is(err, errExportBusy):
		skipped(w, "busy")
	case errors.Is(err, export.ErrRootNotFound):
		skipped(w, "no-root")
	case errors.Is(err, context.Canceled):
	default:
		var encErr *export.EncodeError
		status := http.StatusInternalServerError
		switch {
		case errors.As(err, &encErr):
			status = http.StatusBadGateway
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		respondWithError(w, status, fmt.Sprintf("Export failed: %v", err))
	}
}

func skipped(w http.ResponseWriter, reason string) {
	w.Header().Set("X-Export-Skipped", reason)
	w.WriteHeader(http.StatusNoContent)
}

// run exports job unless an export with the same key is in flight, in which
// case it returns errExportBusy. A missing capture root is not an error of
// the pipeline: it returns export.ErrRootNotFound before anything is encoded.
func (a *ExportAPI) run(ctx context.Context, job exportJob, deliverer export.Deliverer) (export.Download, error) {
	var dl export.Download
	var err error
	ran, _ := a.triggers.Get(job.key()).Run(func() error {
		dl, err = a.export(ctx, job, deliverer)
		return err
	})
	if !ran {
		a.logger.Info("Export skipped, one is already running", "key", job.key())
		a.metrics.RecordSkipped(job.Format, "busy")
		return export.Download{}, errExportBusy
	}
	return dl, err
}

func (a *ExportAPI) export(ctx context.Context, job exportJob, deliverer export.Deliverer) (export.Download, error) {
	cfg := a.cm.Get()
	ctx, cancel := context.WithTimeout(ctx, cfg.Export.Timeout())
	defer cancel()

	id, err := a.layouts.putSnapshot(job.Layout)
	if err != nil {
		return export.Download{}, fmt.Errorf("failed to store export state: %w", err)
	}
	defer a.layouts.dropSnapshot(id)

	q := url.Values{}
	q.Set(paramSnapshot, id)
	q.Set(paramExport, "1")
	target := cfg.Export.BaseURL(cfg.Server.Addr) + "/preview/" + url.PathEscape(string(job.Layout.LayoutName())) + "?" + q.Encode()

	session, err := a.capture.Opener.Open(ctx, target, cfg.Export.Selector)
	if err != nil {
		if errors.Is(err, export.ErrRootNotFound) {
			a.logger.Warn("Export skipped, capture root not found", "layout", job.Layout.LayoutName(), "selector", cfg.Export.Selector)
			a.metrics.RecordSkipped(job.Format, "no_root")
			return export.Download{}, err
		}
		return export.Download{}, fmt.Errorf("failed to open preview: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			a.logger.Debug("Failed to close capture session", "error", cerr)
		}
	}()

	pipeline := export.NewPipeline(a.capture.Encoder, deliverer,
		export.WithAttempts(cfg.Export.Attempts()...),
		export.WithPipelineLogger(a.logger),
		export.WithPipelineHooks(a.metrics.ExportHooks()),
	)
	dl, err := pipeline.Export(ctx, export.Request{Surface: session, Format: job.Format, Name: job.FileName})
	if err != nil {
		return export.Download{}, err
	}
	a.logger.Info("Export finished", "layout", job.Layout.LayoutName(), "file", dl.FileName, "bytes", len(dl.Image.Data))
	return dl, nil
}
