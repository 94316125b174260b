package templating

import (
	"bytes"
	"errors"
	"html"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/CTAG07/Capyboard/pkg/studio"
)

// setupTestManager creates a TemplateManager over the embedded layouts and,
// when dir is not empty, the overrides in dir.
func setupTestManager(tb testing.TB, dir string) *TemplateManager {
	tb.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := DefaultConfig()
	tm, err := NewTemplateManager(logger, &config, dir)
	if err != nil {
		tb.Fatalf("NewTemplateManager failed: %v", err)
	}
	return tm
}

func render(tb testing.TB, tm *TemplateManager, l studio.Layout, mascot template.HTML, export bool) string {
	tb.Helper()
	data := NewLayoutData(l, mascot)
	data.Export = export
	var buf bytes.Buffer
	if err := tm.Render(&buf, data); err != nil {
		tb.Fatalf("Render(%s) failed: %v", l.LayoutName(), err)
	}
	return buf.String()
}

func TestNewTemplateManager(t *testing.T) {
	tm := setupTestManager(t, "")
	for _, info := range studio.Layouts() {
		if !tm.HasTemplate(TemplateName(info.Name)) {
			t.Errorf("embedded layouts are missing %s", TemplateName(info.Name))
		}
	}
	if len(tm.templateNames) != len(studio.Layouts()) {
		t.Errorf("expected %d layout templates, got %d", len(studio.Layouts()), len(tm.templateNames))
	}
	names := tm.GetTemplateNames()
	found := false
	for _, n := range names {
		if n == "page.part.html" {
			found = true
		}
	}
	if !found {
		t.Errorf("GetTemplateNames should include partials, got %v", names)
	}
}

func TestManager_RenderDefaults(t *testing.T) {
	tm := setupTestManager(t, "")
	for _, info := range studio.Layouts() {
		t.Run(string(info.Name), func(t *testing.T) {
			l, err := studio.Default(info.Name)
			if err != nil {
				t.Fatalf("Default failed: %v", err)
			}
			out := render(t, tm, l, "", false)
			p := l.Canvas()
			if !strings.HasPrefix(out, "<!DOCTYPE html>") {
				t.Errorf("output should be a full document, starts with %q", out[:min(len(out), 40)])
			}
			if !strings.Contains(out, `id="canvas"`) {
				t.Error("output is missing the capture root")
			}
			if !strings.Contains(out, `data-layout="`+string(info.Name)+`"`) {
				t.Error("output is missing the layout name")
			}
			for _, want := range []string{"width: " + strconv.Itoa(p.Width) + "px", "height: " + strconv.Itoa(p.Height) + "px"} {
				if !strings.Contains(out, want) {
					t.Errorf("output is missing %q", want)
				}
			}
			if strings.Contains(out, "ZgotmplZ") {
				t.Error("output contains a value rejected by the escaper")
			}
		})
	}
}

func TestManager_RenderContent(t *testing.T) {
	tm := setupTestManager(t, "")

	ep := studio.DefaultEpisodeRelease().
		WithGuest(studio.Guest{Name: "<Ada>", Subtitle: "Host", Accent: studio.AccentCyan}).
		WithHeroImage("data:image/png;base64,iVBORw0KGgo=")
	out := render(t, tm, ep, `<div class="mascot">M</div>`, false)
	for _, want := range []string{
		"ragTech • Episode 12",
		"Debugging Burnout with Kawaii Tech",
		"&lt;Ada&gt;",
		"background:#9cd2d0",
		`src="data:image/png;base64,iVBORw0KGgo="`,
		`<div class="mascot">M</div>`,
		"Listen now",
		"Spotify",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("episode release is missing %q", want)
		}
	}

	ep = ep.WithHeroImage("javascript:alert(1)")
	if out = render(t, tm, ep, "", false); strings.Contains(out, `class="er-hero"`) || strings.Contains(out, `class="rt-mascot"`) {
		t.Error("unsafe hero images and empty mascots should not be drawn")
	}

	stats := studio.DefaultViewerStats()
	out = render(t, tm, stats, "", false)
	for _, want := range []string{"12,345", "678", "5m 12s", "47%", "Last 7 days"} {
		if !strings.Contains(out, want) {
			t.Errorf("viewer stats is missing %q", want)
		}
	}
	// html/template escapes the plus sign in text nodes.
	if !strings.Contains(html.UnescapeString(out), `data-stat="new-subs"><p class="vs-value">+128`) {
		t.Error("viewer stats should show new subscribers as +128")
	}

	ev := studio.DefaultEventAnnouncement()
	ev.Theme = ev.Theme.WithBackground(studio.BrandNavy)
	out = render(t, tm, ev, "", false)
	if !strings.Contains(out, "background:"+studio.BrandNavy.Hex()) {
		t.Error("event announcement should draw the theme background")
	}
	if !strings.Contains(out, "color:"+studio.BrandTeal.Hex()) {
		t.Error("title collided with the background and should have moved to teal")
	}
}

func TestManager_RenderExport(t *testing.T) {
	tm := setupTestManager(t, "")
	o := studio.DefaultVideoOverlay()
	o.SafeZones = true

	preview := render(t, tm, o, "", false)
	if !strings.Contains(preview, "data-preview-only") || !strings.Contains(preview, "data-safe-zone") {
		t.Error("preview should draw the checkerboard and safe zones")
	}
	if !strings.Contains(preview, "border-radius: 24px") {
		t.Error("preview should round the canvas")
	}

	export := render(t, tm, o, "", true)
	if strings.Contains(export, "data-preview-only") || strings.Contains(export, "data-safe-zone") {
		t.Error("export should not draw preview chrome")
	}
	if strings.Contains(export, "border-radius: 24px") {
		t.Error("export should not round the canvas")
	}

	frame := render(t, tm, o.WithKind(studio.OverlayFrame).WithFramePadding(40), "", true)
	if !strings.Contains(frame, "border:40px solid #ffa3a6") {
		t.Errorf("frame overlay should draw the padded accent border")
	}
}

func TestManager_RenderUnknown(t *testing.T) {
	tm := setupTestManager(t, "")
	if err := tm.Render(io.Discard, LayoutData{}); err == nil {
		t.Error("expected an error without a layout")
	}

	tm.templateNames = nil
	err := tm.Render(io.Discard, NewLayoutData(studio.DefaultHighlightCover(), ""))
	if !errors.Is(err, studio.ErrUnknownLayout) {
		t.Errorf("expected ErrUnknownLayout, got %v", err)
	}
}

func TestManager_Overrides(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, TemplateName(studio.ViewerStatsLayout))
	if err := os.WriteFile(override, []byte(`custom {{number .Layout.Views}}`), 0644); err != nil {
		t.Fatalf("failed to write override: %v", err)
	}
	tm := setupTestManager(t, dir)

	out := render(t, tm, studio.DefaultViewerStats(), "", false)
	if out != "custom 12,345" {
		t.Errorf("override should replace the embedded layout, got %q", out)
	}

	if err := os.WriteFile(override, []byte(`again {{.Layout.Timeframe}}`), 0644); err != nil {
		t.Fatalf("failed to rewrite override: %v", err)
	}
	if err := tm.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if out = render(t, tm, studio.DefaultViewerStats(), "", false); out != "again Last 7 days" {
		t.Errorf("Refresh should reload overrides, got %q", out)
	}
	if tm.GetTemplateDir() != dir {
		t.Errorf("GetTemplateDir = %q, want %q", tm.GetTemplateDir(), dir)
	}
}

func TestManager_Execute(t *testing.T) {
	tm := setupTestManager(t, "")
	err := tm.Execute(io.Discard, "nonexistent.tmpl.html", nil)
	if err == nil {
		t.Fatal("expected an error for non-existent template, but got nil")
	}
	expectedErrString := `html/template: "nonexistent.tmpl.html" is undefined`
	if !strings.Contains(err.Error(), expectedErrString) {
		t.Errorf("error message mismatch: got '%v', expected to contain '%s'", err, expectedErrString)
	}
	if err := tm.Execute(io.Discard, "", nil); err != nil {
		t.Errorf("empty names should render nothing, got %v", err)
	}
}

func TestManager_ExecuteTemplateString(t *testing.T) {
	tm := setupTestManager(t, "")
	var buf bytes.Buffer
	if err := tm.ExecuteTemplateString(&buf, `{{duration 312}} {{template "decor" "none"}}|`, nil); err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if got := buf.String(); !strings.HasPrefix(got, "5m 12s") || strings.Contains(got, "rt-decor") {
		t.Errorf("unexpected output %q", got)
	}
	if err := tm.ExecuteTemplateString(io.Discard, `{{`, nil); err == nil {
		t.Error("expected a parse error")
	}
}

func TestManager_SetConfig(t *testing.T) {
	tm := setupTestManager(t, "")
	config := DefaultConfig()
	config.Locale = "de"
	config.DecorGrid = 3
	tm.SetConfig(&config)

	if got := tm.GetConfig().DecorGrid; got != 3 {
		t.Errorf("SetConfig failed to update DecorGrid: expected 3, got %d", got)
	}
	if got := tm.number(12345); got != "12.345" {
		t.Errorf("German number formatting: got %q", got)
	}

	config.Locale = "not a locale!"
	tm.SetConfig(&config)
	if got := tm.number(12345); got != "12,345" {
		t.Errorf("unknown locales should fall back to English, got %q", got)
	}

	tm.SetConfig(nil)
	if tm.GetConfig() != DefaultConfig() {
		t.Error("a nil config should restore the defaults")
	}
}

func BenchmarkRender_EpisodeRelease(b *testing.B) {
	tm := setupTestManager(b, "")
	data := NewLayoutData(studio.DefaultEpisodeRelease(), "")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tm.Render(io.Discard, data); err != nil {
			b.Fatal(err)
		}
	}
}
