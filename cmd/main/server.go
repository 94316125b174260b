package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/CTAG07/Capyboard/pkg/export"
	"github.com/CTAG07/Capyboard/pkg/export/rodcapture"
	"github.com/CTAG07/Capyboard/pkg/herostore"
	"github.com/CTAG07/Capyboard/pkg/mascot"
	"github.com/CTAG07/Capyboard/pkg/templating"
)

// captureSession is an opened preview page ready to be encoded.
type captureSession interface {
	export.Surface
	Close() error
}

// captureOpener loads a preview URL and waits for the capture root.
type captureOpener interface {
	Open(ctx context.Context, url, selector string) (captureSession, error)
}

// Capture is the browser side of exports. The zero value launches Chromium
// on first use.
type Capture struct {
	Opener  captureOpener
	Encoder export.Encoder
}

// lazyBrowser launches the browser on the first export and keeps it for the
// rest of the server cycle.
type lazyBrowser struct {
	cfg     rodcapture.Config
	logger  *slog.Logger
	mu      sync.Mutex
	browser *rodcapture.Browser
}

func (b *lazyBrowser) Open(ctx context.Context, url, selector string) (captureSession, error) {
	b.mu.Lock()
	if b.browser == nil {
		// The browser outlives the request that launched it.
		br, err := rodcapture.Launch(context.Background(), b.cfg, b.logger)
		if err != nil {
			b.mu.Unlock()
			return nil, err
		}
		b.browser = br
	}
	br := b.browser
	b.mu.Unlock()

	s, err := br.Open(ctx, url, selector)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *lazyBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

type Server struct {
	cm          *ConfigManager
	db          *sql.DB
	logger      *slog.Logger
	heroes      *herostore.Store
	tm          *templating.TemplateManager
	compositor  *mascot.Compositor
	assets      mascot.AssetSource
	metrics     *Metrics
	mascotAPI   *MascotAPI
	layoutAPI   *LayoutAPI
	templateAPI *TemplateAPI
	heroAPI     *HeroAPI
	exportAPI   *ExportAPI
	serverAPI   *ServerAPI
	router      chi.Router
	closers     []io.Closer
}

// NewServer wires every component of one server cycle. db must already carry
// the hero store schema.
func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string, capture Capture) (*Server, error) {
	config := cm.Get()

	heroes, err := herostore.New(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create hero store: %w", err)
	}

	tm, err := templating.NewTemplateManager(logger, config.Templates, config.Server.TemplateDir)
	if err != nil {
		heroes.Close()
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}
	cm.SetTemplateManager(tm)

	server := &Server{
		cm:      cm,
		db:      db,
		logger:  logger,
		heroes:  heroes,
		tm:      tm,
		metrics: NewMetrics(),
	}

	source, closer, err := newAssetSource(config.Mascot, logger)
	if err != nil {
		heroes.Close()
		return nil, err
	}
	if closer != nil {
		server.closers = append(server.closers, closer)
	}
	server.assets = source
	server.compositor = mascot.NewCompositor(source,
		mascot.WithLogger(logger),
		mascot.WithHooks(server.metrics.MascotHooks()),
	)

	if capture.Opener == nil {
		lb := &lazyBrowser{
			cfg:    rodcapture.Config{Bin: config.Export.BrowserBin, Headless: config.Export.Headless},
			logger: logger,
		}
		capture.Opener = lb
		server.closers = append(server.closers, lb)
	}
	if capture.Encoder == nil {
		capture.Encoder = rodcapture.Encoder{}
	}

	// api initialization
	server.mascotAPI = NewMascotAPI(server.compositor, source, logger)
	server.layoutAPI = NewLayoutAPI(tm, server.compositor, heroes, logger)
	server.templateAPI = NewTemplateAPI(tm, logger)
	server.heroAPI = NewHeroAPI(heroes, logger)
	server.exportAPI = NewExportAPI(cm, server.layoutAPI, capture, server.metrics, logger)
	server.serverAPI = NewServerAPI(cm, actionChan, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if config.Server.MetricsEnabled {
		r.Use(server.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", server.metrics.Handler())
	}

	r.Get(assetRoute(server.compositor.Assets()), server.mascotAPI.handleAsset)
	server.mascotAPI.RegisterRoutes(r)
	server.layoutAPI.RegisterRoutes(r)
	server.templateAPI.RegisterRoutes(r)
	server.heroAPI.RegisterRoutes(r)
	server.exportAPI.RegisterRoutes(r)
	server.serverAPI.RegisterRoutes(r)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/preview/"+string(firstLayout()), http.StatusFound)
	})
	server.router = r

	return server, nil
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the browser, caches and prepared statements. The database
// is closed by its owner.
func (s *Server) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("Failed to close server resource", "error", err)
		}
	}
	s.heroes.Close()
}

// assetRoute is the chi pattern serving the mascot SVGs under the asset
// prefix layers reference.
func assetRoute(a mascot.Assets) string {
	prefix := a.Prefix
	if prefix == "" {
		prefix = mascot.DefaultAssets().Prefix
	}
	return strings.TrimSuffix(prefix, "/") + "/{name}"
}

// newAssetSource builds the base markup source from cfg: the embedded assets
// or an HTTP origin, wrapped in the configured cache. The returned closer is
// nil when nothing needs closing.
func newAssetSource(cfg *MascotConfig, logger *slog.Logger) (mascot.AssetSource, io.Closer, error) {
	var source mascot.AssetSource = mascot.FSSource{FS: mascot.DefaultFS()}
	if cfg.AssetBaseURL != "" {
		timeout := time.Duration(cfg.AssetTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		source = mascot.HTTPSource{BaseURL: cfg.AssetBaseURL, Client: &http.Client{Timeout: timeout}}
	}

	ttl := time.Duration(cfg.CacheTTLSec) * time.Second
	switch cfg.Cache {
	case "", "none":
		return source, nil, nil
	case "memory":
		logger.Info("Caching mascot markup in memory", "ttl", ttl)
		return mascot.CachedSource{Source: source, Cache: mascot.NewMemoryCache(ttl)}, nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Info("Caching mascot markup in redis", "addr", cfg.RedisAddr, "ttl", ttl)
		cache := mascot.NewRedisCache(client, mascot.WithRedisPrefix(cfg.RedisPrefix), mascot.WithRedisTTL(ttl))
		return mascot.CachedSource{Source: source, Cache: cache}, client, nil
	}
	return nil, nil, fmt.Errorf("unknown mascot cache %q", cfg.Cache)
}
