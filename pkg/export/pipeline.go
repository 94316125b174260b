package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrRootNotFound is reported by surfaces whose capture root is missing.
// Callers treat it as a reason to skip the export rather than a failure.
var ErrRootNotFound = errors.New("export: capture root not found")

// Options tune a single encode attempt.
type Options struct {
	PixelRatio float64
	// CacheBust re-requests images so cached cross-origin responses do not
	// taint the capture.
	CacheBust bool
	// SkipFonts disables reading font rules and waiting for web fonts.
	SkipFonts bool
}

func (o Options) String() string {
	return fmt.Sprintf("ratio=%g cacheBust=%t skipFonts=%t", o.PixelRatio, o.CacheBust, o.SkipFonts)
}

// DefaultAttempts is the attempt list used when none is configured: one
// full-fidelity encode, then one without font embedding.
func DefaultAttempts() []Options {
	first := Options{PixelRatio: 1, CacheBust: true}
	retry := first
	retry.SkipFonts = true
	return []Options{first, retry}
}

// Image is an encoded export.
type Image struct {
	MIMEType string
	Data     []byte
}

// Encoder turns a live surface into image bytes.
type Encoder interface {
	Encode(ctx context.Context, s Surface, f Format, opts Options) (Image, error)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(ctx context.Context, s Surface, f Format, opts Options) (Image, error)

func (fn EncoderFunc) Encode(ctx context.Context, s Surface, f Format, opts Options) (Image, error) {
	return fn(ctx, s, f, opts)
}

// EncodeError is returned when every attempt failed. The first attempt's
// error is the reported cause; Unwrap exposes all of them.
type EncodeError struct {
	Format   Format
	Attempts []Options
	Errs     []error
}

func (e *EncodeError) Error() string {
	if len(e.Errs) == 0 {
		return fmt.Sprintf("export %s: no encode attempts configured", e.Format)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "export %s: %v", e.Format, e.Errs[0])
	if n := len(e.Errs) - 1; n > 0 {
		fmt.Fprintf(&b, " (%d retries also failed, last: %v)", n, e.Errs[n])
	}
	return b.String()
}

// Cause returns the first attempt's error.
func (e *EncodeError) Cause() error {
	if len(e.Errs) == 0 {
		return nil
	}
	return e.Errs[0]
}

func (e *EncodeError) Unwrap() []error {
	return e.Errs
}

// Hooks receive notifications from a Pipeline. Nil fields are skipped.
type Hooks struct {
	// OnAttempt fires after each encode attempt with its index and result.
	OnAttempt func(f Format, attempt int, err error)
	// OnExport fires once per Export call.
	OnExport func(f Format, err error)
}

// Pipeline captures surfaces with a retrying encoder and hands the results
// to a Deliverer.
type Pipeline struct {
	encoder   Encoder
	deliverer Deliverer
	attempts  []Options
	logger    *slog.Logger
	hooks     Hooks
}

type PipelineOption func(*Pipeline)

// WithAttempts replaces the attempt list. An empty list is ignored.
func WithAttempts(attempts ...Options) PipelineOption {
	return func(p *Pipeline) {
		if len(attempts) > 0 {
			p.attempts = append([]Options(nil), attempts...)
		}
	}
}

func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithPipelineHooks(hooks Hooks) PipelineOption {
	return func(p *Pipeline) {
		p.hooks = hooks
	}
}

// NewPipeline creates a pipeline. deliverer may be nil when only Capture is
// used.
func NewPipeline(enc Encoder, deliverer Deliverer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		encoder:   enc,
		deliverer: deliverer,
		attempts:  DefaultAttempts(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attempts returns a copy of the configured attempt list.
func (p *Pipeline) Attempts() []Options {
	return append([]Options(nil), p.attempts...)
}

// Capture encodes s with cross-origin style sheets switched off, trying each
// attempt in order until one succeeds. The sheets are switched back on
// before Capture returns, whatever the outcome.
func (p *Pipeline) Capture(ctx context.Context, s Surface, f Format) (Image, error) {
	disabled := disableCrossOrigin(ctx, s, p.logger)
	defer disabled.restore(ctx)

	encErr := &EncodeError{Format: f}
	for i, opts := range p.attempts {
		if err := ctx.Err(); err != nil {
			encErr.Errs = append(encErr.Errs, err)
			break
		}
		encErr.Attempts = append(encErr.Attempts, opts)
		img, err := p.encoder.Encode(ctx, s, f, opts)
		if p.hooks.OnAttempt != nil {
			p.hooks.OnAttempt(f, i, err)
		}
		if err == nil {
			if i > 0 {
				p.logger.Info("Export succeeded after retry", "format", f.String(), "attempt", i+1, "options", opts.String())
			}
			if img.MIMEType == "" {
				img.MIMEType = f.MIMEType()
			}
			return img, nil
		}
		p.logger.Warn("Export attempt failed", "format", f.String(), "attempt", i+1, "options", opts.String(), "error", err)
		encErr.Errs = append(encErr.Errs, err)
	}
	return Image{}, encErr
}

// Request asks for one export.
type Request struct {
	Surface Surface
	Format  Format
	Name    string
}

// Export captures req.Surface and delivers it as a one-shot download.
func (p *Pipeline) Export(ctx context.Context, req Request) (Download, error) {
	dl, err := p.export(ctx, req)
	if p.hooks.OnExport != nil {
		p.hooks.OnExport(req.Format, err)
	}
	return dl, err
}

func (p *Pipeline) export(ctx context.Context, req Request) (Download, error) {
	img, err := p.Capture(ctx, req.Surface, req.Format)
	if err != nil {
		return Download{}, err
	}
	dl := Download{
		FileName: NormalizeFileName(req.Name, req.Format),
		Image:    img,
	}
	if p.deliverer == nil {
		return dl, nil
	}
	if err = p.deliverer.Deliver(ctx, dl); err != nil {
		return Download{}, fmt.Errorf("deliver %s: %w", dl.FileName, err)
	}
	return dl, nil
}
