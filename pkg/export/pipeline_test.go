package export

import (
	"context"
	"errors"
	"io/fs"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheet struct {
	href     string
	linked   bool
	disabled bool
	failSet  bool
	toggles  int
}

func (s *fakeSheet) Href() string { return s.href }

func (s *fakeSheet) Linked() bool { return s.linked }

func (s *fakeSheet) Disabled() bool { return s.disabled }

func (s *fakeSheet) SetDisabled(_ context.Context, disabled bool) error {
	if s.failSet {
		return errors.New("sheet is read-only")
	}
	s.toggles++
	s.disabled = disabled
	return nil
}

type fakeSurface struct {
	url     string
	sheets  []*fakeSheet
	listErr error
}

func (s *fakeSurface) PageURL() string { return s.url }

func (s *fakeSurface) StyleSources(context.Context) ([]StyleSource, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]StyleSource, len(s.sheets))
	for i, sh := range s.sheets {
		out[i] = sh
	}
	return out, nil
}

// newSurface returns a page with one same-origin, one cross-origin and one
// inline sheet.
func newSurface() *fakeSurface {
	return &fakeSurface{
		url: "http://localhost:7277/preview/episode-release",
		sheets: []*fakeSheet{
			{href: "/static/app.css", linked: true},
			{href: "https://fonts.example.com/css2?family=Inter", linked: true},
			{href: "", linked: false},
		},
	}
}

// scriptedEncoder fails the first failures calls and records what the
// surface looked like during each call.
type scriptedEncoder struct {
	failures  int
	calls     []Options
	crossSeen []bool
}

func (e *scriptedEncoder) Encode(_ context.Context, s Surface, f Format, opts Options) (Image, error) {
	e.calls = append(e.calls, opts)
	e.crossSeen = append(e.crossSeen, s.(*fakeSurface).sheets[1].disabled)
	if len(e.calls) <= e.failures {
		return Image{}, errors.New("attempt " + opts.String() + " failed")
	}
	return Image{MIMEType: f.MIMEType(), Data: []byte{byte(len(e.calls))}}, nil
}

func TestCaptureSucceedsFirstTime(t *testing.T) {
	surface := newSurface()
	enc := &scriptedEncoder{}
	img, err := NewPipeline(enc, nil).Capture(context.Background(), surface, Raster)
	require.NoError(t, err)

	assert.Equal(t, []byte{1}, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []Options{{PixelRatio: 1, CacheBust: true}}, enc.calls)
	assert.Equal(t, []bool{true}, enc.crossSeen, "cross-origin sheet should be off while encoding")

	assert.False(t, surface.sheets[1].disabled, "cross-origin sheet should be restored")
	assert.Equal(t, 2, surface.sheets[1].toggles)
	assert.Zero(t, surface.sheets[0].toggles, "same-origin sheet must not be touched")
	assert.Zero(t, surface.sheets[2].toggles, "inline sheet must not be touched")
}

func TestCaptureRetriesWithoutFonts(t *testing.T) {
	surface := newSurface()
	enc := &scriptedEncoder{failures: 1}
	var attempts []int
	p := NewPipeline(enc, nil, WithPipelineHooks(Hooks{OnAttempt: func(_ Format, i int, _ error) {
		attempts = append(attempts, i)
	}}))

	img, err := p.Capture(context.Background(), surface, Vector)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, img.Data, "the second attempt's image should be returned")
	require.Len(t, enc.calls, 2)
	assert.False(t, enc.calls[0].SkipFonts)
	assert.True(t, enc.calls[1].SkipFonts)
	assert.Equal(t, []bool{true, true}, enc.crossSeen)
	assert.Equal(t, []int{0, 1}, attempts)
	assert.False(t, surface.sheets[1].disabled)
}

func TestCaptureFailureRestoresAndReportsFirstCause(t *testing.T) {
	surface := newSurface()
	first := errors.New("tainted canvas")
	second := errors.New("font load timeout")
	calls := 0
	enc := EncoderFunc(func(context.Context, Surface, Format, Options) (Image, error) {
		calls++
		if calls == 1 {
			return Image{}, first
		}
		return Image{}, second
	})

	_, err := NewPipeline(enc, nil).Capture(context.Background(), surface, Raster)
	require.Error(t, err)

	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Same(t, first, encErr.Cause())
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Len(t, encErr.Attempts, 2)
	assert.Contains(t, err.Error(), "tainted canvas")
	assert.False(t, surface.sheets[1].disabled, "sheets must be restored after failure")
}

func TestCaptureToleratesStyleFailures(t *testing.T) {
	surface := newSurface()
	surface.sheets[1].failSet = true
	_, err := NewPipeline(&scriptedEncoder{}, nil).Capture(context.Background(), surface, Raster)
	assert.NoError(t, err)

	surface = newSurface()
	surface.listErr = errors.New("page crashed")
	_, err = NewPipeline(&scriptedEncoder{}, nil).Capture(context.Background(), surface, Raster)
	assert.NoError(t, err)
}

func TestCaptureSkipsAlreadyDisabledSheets(t *testing.T) {
	surface := newSurface()
	surface.sheets[1].disabled = true
	_, err := NewPipeline(&scriptedEncoder{}, nil).Capture(context.Background(), surface, Raster)
	require.NoError(t, err)
	assert.True(t, surface.sheets[1].disabled, "a sheet disabled by the page stays disabled")
	assert.Zero(t, surface.sheets[1].toggles)
}

func TestCaptureRestoresOnCancel(t *testing.T) {
	surface := newSurface()
	ctx, cancel := context.WithCancel(context.Background())
	enc := EncoderFunc(func(ctx context.Context, _ Surface, _ Format, _ Options) (Image, error) {
		cancel()
		return Image{}, ctx.Err()
	})
	_, err := NewPipeline(enc, nil).Capture(ctx, surface, Raster)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, surface.sheets[1].disabled)
}

func TestExportDeliversNormalizedDownload(t *testing.T) {
	var got Download
	deliver := DeliverFunc(func(_ context.Context, d Download) error {
		got = d
		return nil
	})
	dl, err := NewPipeline(&scriptedEncoder{}, deliver).Export(context.Background(),
		Request{Surface: newSurface(), Format: Vector, Name: "card"})
	require.NoError(t, err)
	assert.Equal(t, "card.svg", dl.FileName)
	assert.Equal(t, dl, got)
	assert.Equal(t, "data:image/svg+xml;base64,AQ==", dl.DataURL())
}

func TestExportReportsDeliveryFailure(t *testing.T) {
	var exported error
	deliver := DeliverFunc(func(context.Context, Download) error { return fs.ErrPermission })
	p := NewPipeline(&scriptedEncoder{}, deliver, WithPipelineHooks(Hooks{OnExport: func(_ Format, err error) { exported = err }}))
	_, err := p.Export(context.Background(), Request{Surface: newSurface(), Name: "card"})
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.ErrorIs(t, exported, fs.ErrPermission)
}

func TestNormalizeFileName(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   string
	}{
		{"card", Raster, "card.png"},
		{"card", Vector, "card.svg"},
		{"card.png", Raster, "card.png"},
		{"card.PNG", Raster, "card.PNG"},
		{"card.png", Vector, "card.png.svg"},
		{"", Raster, "export.png"},
		{"  ", Vector, "export.svg"},
		{".png", Raster, ".png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeFileName(tt.name, tt.format), "NormalizeFileName(%q, %s)", tt.name, tt.format)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": Raster, "PNG": Raster, "raster": Raster, "svg": Vector, " vector ": Vector} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("gif")
	assert.Error(t, err)
}

func TestOrigin(t *testing.T) {
	tests := map[string]string{
		"http://localhost:80/a":        "http://localhost",
		"HTTPS://Example.com:443/x":    "https://example.com",
		"http://localhost:7277/p?q=1":  "http://localhost:7277",
		"https://fonts.example.com/cs": "https://fonts.example.com",
	}
	for in, want := range tests {
		got, err := Origin(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestTriggerDropsReentrantRuns(t *testing.T) {
	var trig Trigger
	inner := make(chan bool, 1)
	ran, err := trig.Run(func() error {
		again, _ := trig.Run(func() error { return nil })
		inner <- again
		return nil
	})
	assert.True(t, ran)
	assert.NoError(t, err)
	assert.False(t, <-inner, "a run started while busy should be dropped")
	assert.False(t, trig.Busy())
}

func TestTriggerResetsAfterFailure(t *testing.T) {
	var trig Trigger
	boom := errors.New("boom")
	ran, err := trig.Run(func() error { return boom })
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)

	ran, err = trig.Run(func() error { return nil })
	assert.True(t, ran)
	assert.NoError(t, err)
}

func TestTriggerConcurrent(t *testing.T) {
	var trig Trigger
	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = trig.Run(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	ran, _ := trig.Run(func() error { return nil })
	assert.False(t, ran)
	close(release)
	wg.Wait()
}

func TestTriggerSet(t *testing.T) {
	var set TriggerSet
	assert.Same(t, set.Get("episode-release"), set.Get("episode-release"))
	assert.NotSame(t, set.Get("episode-release"), set.Get("viewer-stats"))
}

func TestDirDeliverer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	d := DirDeliverer{Dir: dir}
	dl := Download{FileName: "../escape/card.png", Image: Image{MIMEType: "image/png", Data: []byte("png")}}
	require.NoError(t, d.Deliver(context.Background(), dl))

	data, err := os.ReadFile(filepath.Join(dir, "card.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, filepath.Join(dir, "card.png"), d.Path(dl.FileName))
}

func TestResponseDeliverer(t *testing.T) {
	rec := httptest.NewRecorder()
	dl := Download{FileName: "card.svg", Image: Image{MIMEType: "image/svg+xml", Data: []byte("<svg/>")}}
	require.NoError(t, ResponseDeliverer{W: rec}.Deliver(context.Background(), dl))

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=card.svg`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "<svg/>", rec.Body.String())
}
