package templating

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/CTAG07/Capyboard/pkg/studio"
)

// accentColor returns the CSS color of an accent, falling back to off-white.
func accentColor(a studio.Accent) template.CSS {
	return template.CSS(a.Or(studio.AccentOffWhite).Hex())
}

// brandColor returns the CSS color of a brand color, falling back to navy.
func brandColor(c studio.BrandColor) template.CSS {
	if !c.Valid() {
		c = studio.BrandNavy
	}
	return template.CSS(c.Hex())
}

// px formats a pixel length.
func px(n any) template.CSS {
	return template.CSS(strconv.FormatFloat(toFloat(n), 'f', -1, 64) + "px")
}

// css joins alternating property names and values into an inline style,
// skipping empty values. The result is trusted: values must come from
// layout enums and numbers, never from user text.
func css(pairs ...string) template.CSS {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		b.WriteString(pairs[i])
		b.WriteByte(':')
		b.WriteString(pairs[i+1])
		b.WriteByte(';')
	}
	return template.CSS(b.String())
}

// imageURL marks src as safe for an <img> source when it is an http(s)
// URL, a site-relative path or a base64 image data URI. Anything else
// renders as an empty source.
func imageURL(src string) template.URL {
	src = strings.TrimSpace(src)
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "data:image/") && strings.Contains(lower, ";base64,"):
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
	case strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//"):
	default:
		return ""
	}
	return template.URL(src)
}

// fontFamily is the configured CSS font stack.
func (tm *TemplateManager) fontFamily() template.CSS {
	if tm.config.FontFamily == "" {
		return template.CSS(DefaultConfig().FontFamily)
	}
	return template.CSS(tm.config.FontFamily)
}

// assetURL resolves a mascot asset name against the configured prefix.
func (tm *TemplateManager) assetURL(name string) string {
	prefix := tm.config.AssetPrefix
	if prefix == "" {
		prefix = DefaultConfig().AssetPrefix
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(name, "/")
}

// logoURL is the configured logo image.
func (tm *TemplateManager) logoURL() template.URL {
	if tm.config.LogoURL == "" {
		return imageURL(DefaultConfig().LogoURL)
	}
	return imageURL(tm.config.LogoURL)
}

// fontStylesheet is the configured font stylesheet link, empty to link none.
func (tm *TemplateManager) fontStylesheet() string {
	return tm.config.FontStylesheet
}
