package templating

// TemplateConfig holds all configuration options for the layout renderer.
type TemplateConfig struct {
	// Locale selects number formatting, e.g. "en" gives 12,345.
	Locale string `json:"locale" yaml:"locale" env:"CAPYBOARD_LOCALE"`

	// FontStylesheet is linked from every page. It is usually cross-origin,
	// which is why exports switch it off before encoding.
	FontStylesheet string `json:"font_stylesheet" yaml:"font_stylesheet" env:"CAPYBOARD_FONT_STYLESHEET"`

	// FontFamily is the CSS font stack used by all layouts.
	FontFamily string `json:"font_family" yaml:"font_family"`

	// LogoURL is the image drawn by layouts that show the logo.
	LogoURL string `json:"logo_url" yaml:"logo_url" env:"CAPYBOARD_LOGO_URL"`

	// AssetPrefix is where the mascot SVGs are served, used by the mascot decor.
	AssetPrefix string `json:"asset_prefix" yaml:"asset_prefix"`

	// DecorGrid is the number of rows and columns of tiled decor.
	DecorGrid int `json:"decor_grid" yaml:"decor_grid"`

	// MaxDecorGrid caps DecorGrid so a bad config cannot produce huge pages.
	MaxDecorGrid int `json:"max_decor_grid" yaml:"max_decor_grid"`
}

// DefaultConfig returns a TemplateConfig with the stock branding.
func DefaultConfig() TemplateConfig {
	return TemplateConfig{
		Locale:         "en",
		FontStylesheet: "https://fonts.googleapis.com/css2?family=Nunito:wght@400;600;800&display=swap",
		FontFamily:     "'Nunito', ui-sans-serif, system-ui, sans-serif",
		LogoURL:        "/assets/transparent-bg-logo.png",
		AssetPrefix:    "/assets/svg/",
		DecorGrid:      5,
		MaxDecorGrid:   12,
	}
}
