package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/CTAG07/Capyboard/pkg/export"
	"github.com/CTAG07/Capyboard/pkg/templating"
)

// ServerConfig holds the configuration for the HTTP server and its storage.
type ServerConfig struct {
	Addr         string `json:"addr" yaml:"addr" env:"CAPYBOARD_ADDR"`
	LogLevel     string `json:"log_level" yaml:"log_level" env:"CAPYBOARD_LOG_LEVEL"`
	DataDir      string `json:"data_dir" yaml:"data_dir" env:"CAPYBOARD_DATA_DIR"`
	DatabasePath string `json:"database_path" yaml:"database_path" env:"CAPYBOARD_DATABASE_PATH"`
	// TemplateDir holds layout overrides; files there replace the embedded layouts.
	TemplateDir    string `json:"template_dir" yaml:"template_dir" env:"CAPYBOARD_TEMPLATE_DIR"`
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled" env:"CAPYBOARD_METRICS_ENABLED"`
}

// MascotConfig selects where base markup comes from and how it is cached.
type MascotConfig struct {
	// AssetBaseURL fetches markup over HTTP instead of the embedded assets.
	AssetBaseURL    string `json:"asset_base_url" yaml:"asset_base_url" env:"CAPYBOARD_ASSET_BASE_URL"`
	AssetTimeoutSec int    `json:"asset_timeout_sec" yaml:"asset_timeout_sec" env:"CAPYBOARD_ASSET_TIMEOUT_SEC"`
	// Cache is "none", "memory" or "redis".
	Cache       string `json:"cache" yaml:"cache" env:"CAPYBOARD_CACHE"`
	CacheTTLSec int    `json:"cache_ttl_sec" yaml:"cache_ttl_sec" env:"CAPYBOARD_CACHE_TTL_SEC"`
	RedisAddr   string `json:"redis_addr" yaml:"redis_addr" env:"CAPYBOARD_REDIS_ADDR"`
	RedisPrefix string `json:"redis_prefix" yaml:"redis_prefix" env:"CAPYBOARD_REDIS_PREFIX"`
}

// ExportConfig holds the browser capture settings.
type ExportConfig struct {
	BrowserBin string `json:"browser_bin" yaml:"browser_bin" env:"CAPYBOARD_BROWSER_BIN"`
	Headless   bool   `json:"headless" yaml:"headless" env:"CAPYBOARD_HEADLESS"`
	// PublicURL is the address the browser loads previews from. Empty derives
	// it from the listen address.
	PublicURL  string  `json:"public_url" yaml:"public_url" env:"CAPYBOARD_PUBLIC_URL"`
	Selector   string  `json:"selector" yaml:"selector" env:"CAPYBOARD_CAPTURE_SELECTOR"`
	OutputDir  string  `json:"output_dir" yaml:"output_dir" env:"CAPYBOARD_OUTPUT_DIR"`
	PixelRatio float64 `json:"pixel_ratio" yaml:"pixel_ratio" env:"CAPYBOARD_PIXEL_RATIO"`
	TimeoutSec int     `json:"timeout_sec" yaml:"timeout_sec" env:"CAPYBOARD_EXPORT_TIMEOUT_SEC"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config" yaml:"server_config"`
	Templates *templating.TemplateConfig `json:"template_config" yaml:"template_config"`
	Mascot    *MascotConfig              `json:"mascot_config" yaml:"mascot_config"`
	Export    *ExportConfig              `json:"export_config" yaml:"export_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:           ":7277",
		LogLevel:       "info",
		DataDir:        "./data",
		DatabasePath:   "./data/capyboard.db",
		TemplateDir:    "./data/templates",
		MetricsEnabled: true,
	}
}

func DefaultMascotConfig() *MascotConfig {
	return &MascotConfig{
		AssetTimeoutSec: 5,
		Cache:           "none",
		CacheTTLSec:     300,
		RedisAddr:       "localhost:6379",
		RedisPrefix:     "capyboard:mascot:",
	}
}

func DefaultExportConfig() *ExportConfig {
	return &ExportConfig{
		Headless:   true,
		Selector:   "#canvas",
		OutputDir:  "./data/exports",
		PixelRatio: 1,
		TimeoutSec: 60,
	}
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	tc := templating.DefaultConfig()
	return &Config{
		Server:    DefaultServerConfig(),
		Templates: &tc,
		Mascot:    DefaultMascotConfig(),
		Export:    DefaultExportConfig(),
	}
}

// fillDefaults replaces sections missing from a parsed file.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Templates == nil {
		c.Templates = def.Templates
	}
	if c.Mascot == nil {
		c.Mascot = def.Mascot
	}
	if c.Export == nil {
		c.Export = def.Export
	}
}

// Attempts is the encode attempt list: the configured pixel ratio with cache
// busting, then the same without font embedding.
func (c *ExportConfig) Attempts() []export.Options {
	ratio := c.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	return []export.Options{
		{PixelRatio: ratio, CacheBust: true},
		{PixelRatio: ratio, CacheBust: true, SkipFonts: true},
	}
}

// Timeout bounds one export, browser navigation included.
func (c *ExportConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// BaseURL is the address the capture browser reaches the server on.
func (c *ExportConfig) BaseURL(listenAddr string) string {
	if c.PublicURL != "" {
		return strings.TrimSuffix(c.PublicURL, "/")
	}
	if strings.HasPrefix(listenAddr, ":") {
		return "http://127.0.0.1" + listenAddr
	}
	return "http://" + listenAddr
}

// parseLogLevel maps the log_level config string to a slog level.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func marshalConfig(path string, config *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(config)
	}
	return json.MarshalIndent(config, "", "  ")
}

// LoadConfig reads the configuration from a JSON or YAML file at the given
// path, chosen by extension, then applies CAPYBOARD_* environment overrides.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// If the file doesn't exist, create it with the default config.
		var data []byte
		data, err = marshalConfig(path, config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
			// Log a warning instead of failing, as the server can still run with defaults.
			fmt.Printf("warning: failed to write default config file: %v\n", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	case isYAML(path):
		if err = yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err = json.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	config.fillDefaults()

	if err = env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return config, nil
}

// ConfigManager handles thread-safe access to configuration.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
	tm         *templating.TemplateManager
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		config:     cfg,
		configPath: path,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// newStaticConfigManager wraps an already loaded config that is never persisted.
func newStaticConfigManager(cfg *Config, logger *slog.Logger) *ConfigManager {
	cfg.fillDefaults()
	return &ConfigManager{config: cfg, logger: logger}
}

// SetTemplateManager registers the template manager to receive config updates.
func (cm *ConfigManager) SetTemplateManager(tm *templating.TemplateManager) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.tm = tm
	// Ensure TM starts with current config
	if tm != nil {
		tm.SetConfig(cm.config.Templates)
	}
}

// SetLogger sets the logger. That's about it.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.logger = logger
}

// Get returns a thread-safe copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	// Return a dereferenced copy to prevent external modification of the internal state
	return *cm.config
}

// Path is the file the configuration is persisted to, empty when it is not.
func (cm *ConfigManager) Path() string {
	return cm.configPath
}

// Update updates the configuration and saves it to disk.
func (cm *ConfigManager) Update(newConfig Config) error {
	newConfig.fillDefaults()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	// If we have a TemplateManager, try to apply the new config to it first.
	if cm.tm != nil {
		// Keep reference to old template config
		oldTmplConfig := cm.config.Templates

		cm.tm.SetConfig(newConfig.Templates)
		if err := cm.tm.Refresh(); err != nil {
			// Rollback to old config
			cm.tm.SetConfig(oldTmplConfig)
			_ = cm.tm.Refresh()
			return fmt.Errorf("template configuration rejected: %w", err)
		}
	}

	*cm.config = newConfig
	if cm.configPath == "" {
		return nil
	}

	data, err := marshalConfig(cm.configPath, cm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	cm.logger.Info("Configuration saved", "path", cm.configPath)
	return nil
}
