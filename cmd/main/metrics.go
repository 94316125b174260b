package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CTAG07/Capyboard/pkg/export"
	"github.com/CTAG07/Capyboard/pkg/mascot"
)

// Metrics are the Prometheus collectors of one server cycle. Each cycle uses
// its own registry so a restart does not register collectors twice.
type Metrics struct {
	registry       *prometheus.Registry
	compositions   *prometheus.CounterVec
	baseFailures   prometheus.Counter
	exportAttempts *prometheus.CounterVec
	exports        *prometheus.CounterVec
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		compositions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capyboard_mascot_compositions_total",
				Help: "Mascot compositions by path (fast or overlay).",
			},
			[]string{"path"},
		),
		baseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capyboard_mascot_base_failures_total",
			Help: "Compositions that dropped the base layer after a fetch or parse failure.",
		}),
		exportAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capyboard_export_attempts_total",
				Help: "Encode attempts by format, attempt index and result.",
			},
			[]string{"format", "attempt", "result"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capyboard_exports_total",
				Help: "Exports by format and result.",
			},
			[]string{"format", "result"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capyboard_http_requests_total",
				Help: "HTTP requests by route pattern and status code.",
			},
			[]string{"route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "capyboard_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	m.registry.MustRegister(m.compositions, m.baseFailures, m.exportAttempts, m.exports, m.requests, m.duration)
	return m
}

// MascotHooks feeds compositor events into the metrics.
func (m *Metrics) MascotHooks() mascot.Hooks {
	return mascot.Hooks{
		OnCompose: func(overlay bool) {
			path := "fast"
			if overlay {
				path = "overlay"
			}
			m.compositions.WithLabelValues(path).Inc()
		},
		OnBaseFailure: func(error) {
			m.baseFailures.Inc()
		},
	}
}

// ExportHooks feeds pipeline events into the metrics.
func (m *Metrics) ExportHooks() export.Hooks {
	return export.Hooks{
		OnAttempt: func(f export.Format, attempt int, err error) {
			m.exportAttempts.WithLabelValues(f.String(), strconv.Itoa(attempt), resultLabel(err)).Inc()
		},
		OnExport: func(f export.Format, err error) {
			m.exports.WithLabelValues(f.String(), resultLabel(err)).Inc()
		},
	}
}

// RecordSkipped counts an export that never reached the pipeline.
func (m *Metrics) RecordSkipped(f export.Format, reason string) {
	m.exports.WithLabelValues(f.String(), "skipped_"+reason).Inc()
}

func resultLabel(err error) string {
	var encErr *export.EncodeError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &encErr):
		return "encode_error"
	}
	return "error"
}

// Middleware records request counts and latency under the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
