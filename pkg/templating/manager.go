package templating

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/CTAG07/Capyboard/pkg/studio"
)

//go:embed layouts
var layoutFS embed.FS

const (
	layoutSuffix  = ".tmpl.html"
	partialSuffix = ".part.html"
)

// LayoutData is what every layout template is executed with.
type LayoutData struct {
	Layout   studio.Layout
	Platform studio.Platform
	Scale    studio.TypeScale
	// Mascot is the composited mascot fragment, empty when the layout shows none.
	Mascot template.HTML
	// Export strips preview chrome such as rounded corners and borders.
	Export bool
}

// NewLayoutData fills the platform and type scale for l.
func NewLayoutData(l studio.Layout, mascot template.HTML) LayoutData {
	p := l.Canvas()
	return LayoutData{
		Layout:   l,
		Platform: p,
		Scale:    studio.TypeScaleFor(p.Key),
		Mascot:   mascot,
	}
}

// TemplateName returns the template that renders layout name.
func TemplateName(name studio.LayoutName) string {
	return string(name) + layoutSuffix
}

// TemplateManager is the central controller for the layout renderer.
// It loads the embedded layouts and partials, lets files from an optional
// directory replace them, and executes them in a concurrent-safe manner.
// All methods are concurrent-safe.
type TemplateManager struct {
	logger         *slog.Logger
	config         *TemplateConfig
	printer        *message.Printer
	templates      *template.Template
	cleanTemplates *template.Template
	templateNames  []string
	funcMap        template.FuncMap
	templateDir    string
	mu             sync.RWMutex
}

// NewTemplateManager creates a TemplateManager and performs the initial
// Refresh. templateDir may be empty, in which case only the embedded
// layouts are used.
func NewTemplateManager(logger *slog.Logger, config *TemplateConfig, templateDir string) (*TemplateManager, error) {
	tm := &TemplateManager{
		logger:      logger,
		templateDir: templateDir,
	}
	tm.applyConfig(config)
	tm.funcMap = tm.makeFuncMap()

	if err := tm.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized", "layouts", len(tm.templateNames))
	return tm, nil
}

func (tm *TemplateManager) makeFuncMap() template.FuncMap {
	return template.FuncMap{
		// Formatting (from funcs_content.go)
		"number":   tm.number,
		"signed":   tm.signed,
		"duration": duration,
		"percent":  percent,
		"upper":    strings.ToUpper,

		// Structure (from funcs_structure.go)
		"decorTiles": tm.decorTiles,
		"decorGrid":  tm.decorGrid,
		"dict":       dict,

		// Styling (from funcs_styling.go)
		"accent":     accentColor,
		"brand":      brandColor,
		"px":         px,
		"css":        css,
		"imageURL":   imageURL,
		"fontFamily": tm.fontFamily,
		"assetURL":   tm.assetURL,
		"logoURL":    tm.logoURL,
		"fontSheet":  tm.fontStylesheet,

		// Logic (from funcs_logic.go)
		"add": add,
		"sub": sub,
		"div": div,
		"and": and,
		"or":  or,
		"not": not,
	}
}

// SetConfig applies a new configuration. Templates are not reparsed; the
// helper functions read the configuration at execution time.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.applyConfig(config)
}

func (tm *TemplateManager) applyConfig(config *TemplateConfig) {
	if config == nil {
		def := DefaultConfig()
		config = &def
	}
	tag, err := language.Parse(config.Locale)
	if err != nil {
		if tm.logger != nil {
			tm.logger.Warn("Unknown locale, using English number formatting", "locale", config.Locale, "error", err)
		}
		tag = language.English
	}
	tm.config = config
	tm.printer = message.NewPrinter(tag)
}

// Refresh reparses the embedded layouts and then any *.tmpl.html and
// *.part.html files in the template directory, which replace embedded
// templates of the same name.
func (tm *TemplateManager) Refresh() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.logger.Info("Loading embedded layouts...")
	parsed, err := template.New("").Funcs(tm.funcMap).ParseFS(layoutFS, "layouts/*"+layoutSuffix, "layouts/*"+partialSuffix)
	if err != nil {
		tm.logger.Error("failed to parse embedded layouts", "error", err)
		return err
	}

	if tm.templateDir != "" {
		for _, suffix := range []string{layoutSuffix, partialSuffix} {
			pattern := filepath.Join(tm.templateDir, "*"+suffix)
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return fmt.Errorf("bad template pattern %q: %w", pattern, err)
			}
			if len(matches) == 0 {
				continue
			}
			if parsed, err = parsed.ParseFiles(matches...); err != nil {
				tm.logger.Error("failed to parse template overrides", "pattern", pattern, "error", err)
				return err
			}
			tm.logger.Info("Loaded template overrides", "pattern", pattern, "count", len(matches))
		}
	}

	var names []string
	for _, t := range parsed.Templates() {
		if strings.HasSuffix(t.Name(), layoutSuffix) {
			names = append(names, t.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		tm.logger.Warn("No layout templates found")
	}

	tm.templates = parsed
	tm.templateNames = names
	tm.logger.Info("Loaded layout and partial templates", "count", len(parsed.Templates())-1) // Subtract one for the root template

	// Create a clean clone for string executions after all parsing is complete.
	tm.cleanTemplates, err = tm.templates.Clone()
	if err != nil {
		tm.logger.Error("failed to create a clean clone of templates", "error", err)
		return err
	}
	return nil
}

// Execute renders a specific template by name, writing the output to the provided io.Writer.
func (tm *TemplateManager) Execute(w io.Writer, name string, data any) error {
	if name == "" {
		return nil
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templates.ExecuteTemplate(w, name, data)
}

// Render executes the template of data.Layout.
func (tm *TemplateManager) Render(w io.Writer, data LayoutData) error {
	if data.Layout == nil {
		return fmt.Errorf("no layout to render")
	}
	name := TemplateName(data.Layout.LayoutName())
	if !tm.HasTemplate(name) {
		return fmt.Errorf("%w: no template %s", studio.ErrUnknownLayout, name)
	}
	return tm.Execute(w, name, data)
}

// HasTemplate reports whether name is a loaded layout template.
func (tm *TemplateManager) HasTemplate(name string) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	i := sort.SearchStrings(tm.templateNames, name)
	return i < len(tm.templateNames) && tm.templateNames[i] == name
}

// GetConfig returns a copy of the current configuration.
// This mainly exists for concurrency-safety reasons.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// GetTemplateNames returns the names of every loaded template, partials
// included.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	var names []string
	for _, t := range tm.templates.Templates() {
		// By default, there is a root template with no name. We don't want to return this in the list
		if strings.Contains(t.Name(), ".html") {
			names = append(names, t.Name())
		}
	}
	sort.Strings(names)
	return names
}

// GetTemplateDir returns the override directory, empty when none is used.
func (tm *TemplateManager) GetTemplateDir() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templateDir
}

// ExecuteTemplateString parses and executes a raw template string using the manager's function map
// and partials. This is ideal for testing or previewing templates without saving them to disk.
func (tm *TemplateManager) ExecuteTemplateString(w io.Writer, content string, data any) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	// Clone the clean, unexecuted template set to avoid race conditions and execution state issues.
	tempSet, err := tm.cleanTemplates.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone clean templates for string execution: %w", err)
	}

	t, err := tempSet.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse string template: %w", err)
	}
	return t.Execute(w, data)
}

// EmbeddedFS exposes the built-in layouts, e.g. for copying them into an
// override directory.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(layoutFS, "layouts")
	if err != nil {
		panic(err)
	}
	return sub
}
