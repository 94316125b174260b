// Package rodcapture implements export surfaces and encoding on top of a
// headless Chromium driven by go-rod.
package rodcapture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/CTAG07/Capyboard/pkg/export"
)

// Config selects the browser to launch.
type Config struct {
	// Bin is the Chromium executable; empty lets the launcher find or
	// download one.
	Bin      string
	Headless bool
}

// Browser is a running Chromium instance shared by capture sessions.
type Browser struct {
	mu      sync.Mutex
	browser *rod.Browser
	logger  *slog.Logger
}

// Launch starts a browser. The process lives until Close.
func Launch(ctx context.Context, cfg Config, logger *slog.Logger) (*Browser, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := launcher.New().Context(ctx).Headless(cfg.Headless).Leakless(false)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err = b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	logger.Info("Browser launched", "control_url", u, "headless", cfg.Headless)
	return &Browser{browser: b, logger: logger}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

// Open loads url in a fresh tab and locates the capture root. It returns
// export.ErrRootNotFound when selector matches nothing once the page has
// loaded.
func (b *Browser) Open(ctx context.Context, url, selector string) (*Session, error) {
	b.mu.Lock()
	browser := b.browser
	b.mu.Unlock()
	if browser == nil {
		return nil, errors.New("browser is closed")
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}
	s := &Session{page: page, selector: selector, logger: b.logger}
	if err = page.WaitLoad(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to load %s: %w", url, err)
	}
	if _, err = s.root(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Session is one loaded page with a capture root. It implements
// export.Surface.
type Session struct {
	page     *rod.Page
	selector string
	logger   *slog.Logger
}

var _ export.Surface = (*Session)(nil)

// Close closes the tab.
func (s *Session) Close() error {
	return s.page.Close()
}

func (s *Session) root(ctx context.Context) (*rod.Element, error) {
	has, el, err := s.page.Context(ctx).Has(s.selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", s.selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %q", export.ErrRootNotFound, s.selector)
	}
	return el, nil
}

// PageURL returns the live document URL.
func (s *Session) PageURL() string {
	info, err := s.page.Info()
	if err != nil {
		s.logger.Debug("Failed to read page info", "error", err)
		return ""
	}
	return info.URL
}

type sheetInfo struct {
	ID       string `json:"id"`
	Href     string `json:"href"`
	Linked   bool   `json:"linked"`
	Disabled bool   `json:"disabled"`
}

// StyleSources lists the page's <link> and <style> sheets.
func (s *Session) StyleSources(ctx context.Context) ([]export.StyleSource, error) {
	var infos []sheetInfo
	if err := s.evalJSON(ctx, listSheetsJS, &infos, sheetAttr); err != nil {
		return nil, fmt.Errorf("failed to list style sheets: %w", err)
	}
	out := make([]export.StyleSource, 0, len(infos))
	for _, info := range infos {
		out = append(out, &sheet{session: s, info: info})
	}
	return out, nil
}

func (s *Session) evalJSON(ctx context.Context, js string, v any, args ...any) error {
	res, err := s.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(res.Value.Str()), v)
}

type sheet struct {
	session *Session
	info    sheetInfo
}

func (sh *sheet) Href() string { return sh.info.Href }

func (sh *sheet) Linked() bool { return sh.info.Linked }

func (sh *sheet) Disabled() bool { return sh.info.Disabled }

func (sh *sheet) SetDisabled(ctx context.Context, disabled bool) error {
	res, err := sh.session.page.Context(ctx).Eval(setSheetDisabledJS, sheetAttr, sh.info.ID, disabled)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("style sheet %s is no longer in the page", sh.info.ID)
	}
	sh.info.Disabled = disabled
	return nil
}

// Encoder encodes Sessions. It implements export.Encoder.
type Encoder struct{}

var _ export.Encoder = Encoder{}

func (Encoder) Encode(ctx context.Context, surface export.Surface, f export.Format, opts export.Options) (export.Image, error) {
	s, ok := surface.(*Session)
	if !ok {
		return export.Image{}, fmt.Errorf("rodcapture cannot encode %T", surface)
	}
	el, err := s.root(ctx)
	if err != nil {
		return export.Image{}, err
	}

	if opts.CacheBust {
		res, err := el.Context(ctx).Eval(cacheBustJS)
		if err != nil {
			return export.Image{}, fmt.Errorf("cache busting failed: %w", err)
		}
		s.logger.Debug("Reloaded images", "count", res.Value.Int())
	}

	switch f {
	case export.Vector:
		res, err := el.Context(ctx).Eval(vectorJS, opts.SkipFonts)
		if err != nil {
			return export.Image{}, fmt.Errorf("vector encode failed: %w", err)
		}
		return export.Image{MIMEType: f.MIMEType(), Data: []byte(res.Value.Str())}, nil
	default:
		if !opts.SkipFonts {
			if _, err = s.page.Context(ctx).Eval(fontsJS); err != nil {
				return export.Image{}, fmt.Errorf("font loading failed: %w", err)
			}
		}
		if err = s.setPixelRatio(ctx, opts.PixelRatio); err != nil {
			return export.Image{}, err
		}
		data, err := el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			return export.Image{}, fmt.Errorf("raster encode failed: %w", err)
		}
		return export.Image{MIMEType: f.MIMEType(), Data: data}, nil
	}
}

func (s *Session) setPixelRatio(ctx context.Context, ratio float64) error {
	if ratio <= 0 {
		ratio = 1
	}
	var vp struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := s.evalJSON(ctx, viewportJS, &vp); err != nil {
		return fmt.Errorf("failed to read viewport: %w", err)
	}
	return s.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: ratio,
	})
}
