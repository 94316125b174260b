package export

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// StyleSource is one style sheet loaded by the page being captured.
type StyleSource interface {
	// Href is the sheet's URL as written in the page, empty for inline styles.
	Href() string
	// Linked reports whether the sheet is owned by a <link> element, the only
	// kind that can be disabled and re-enabled.
	Linked() bool
	Disabled() bool
	SetDisabled(ctx context.Context, disabled bool) error
}

// Surface is a live rendered subtree that an Encoder can capture.
type Surface interface {
	// PageURL is the address of the document holding the subtree.
	PageURL() string
	StyleSources(ctx context.Context) ([]StyleSource, error)
}

// Origin returns scheme://host[:port] of rawURL with default ports dropped.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return originOf(u), nil
}

func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host
}

// disabledStyles records the sheets switched off for one capture.
type disabledStyles struct {
	sources []StyleSource
	logger  *slog.Logger
}

// restore re-enables every recorded sheet, continuing past failures.
func (d *disabledStyles) restore(ctx context.Context) {
	// Restoring must happen even when the capture was canceled.
	ctx = context.WithoutCancel(ctx)
	for _, s := range d.sources {
		if err := s.SetDisabled(ctx, false); err != nil {
			d.logger.Warn("Failed to restore style sheet", "href", s.Href(), "error", err)
		}
	}
}

// disableCrossOrigin switches off every linked sheet whose origin differs
// from the page's. It is best effort: a sheet that cannot be inspected or
// toggled is skipped and logged.
func disableCrossOrigin(ctx context.Context, s Surface, logger *slog.Logger) *disabledStyles {
	rec := &disabledStyles{logger: logger}

	page, err := url.Parse(s.PageURL())
	if err != nil {
		logger.Warn("Cannot resolve page origin, leaving style sheets enabled", "page", s.PageURL(), "error", err)
		return rec
	}
	pageOrigin := originOf(page)

	sources, err := s.StyleSources(ctx)
	if err != nil {
		logger.Warn("Cannot list style sheets, leaving them enabled", "error", err)
		return rec
	}
	for _, src := range sources {
		if src.Href() == "" || !src.Linked() || src.Disabled() {
			continue
		}
		ref, err := page.Parse(src.Href())
		if err != nil {
			logger.Debug("Skipping style sheet with unparseable href", "href", src.Href(), "error", err)
			continue
		}
		if originOf(ref) == pageOrigin {
			continue
		}
		if err = src.SetDisabled(ctx, true); err != nil {
			logger.Warn("Failed to disable cross-origin style sheet", "href", src.Href(), "error", err)
			continue
		}
		rec.sources = append(rec.sources, src)
	}
	if len(rec.sources) > 0 {
		logger.Debug("Disabled cross-origin style sheets", "count", len(rec.sources))
	}
	return rec
}
