package mascot

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"html/template"
	"strings"
)

var htmlStack = template.Must(template.New("mascot").Funcs(template.FuncMap{
	"inline": func(markup string) template.HTML {
		// Base markup comes from the configured asset set, not from users.
		return template.HTML(inlineMarkup(markup))
	},
}).Parse(`<div class="mascot" style="position:relative;width:{{.Size}}px;height:{{.Size}}px">
{{- range .Layers}}
{{- if eq .Kind "markup"}}<div aria-hidden="true" style="position:absolute;inset:0;width:100%;height:100%">{{inline .Markup}}</div>
{{- else}}<img src="{{.Src}}" alt="mascot {{.Role}}" width="{{$.Size}}" height="{{$.Size}}" style="position:absolute;inset:0;width:100%;height:100%;object-fit:contain">
{{- end}}
{{- end}}</div>`))

// HTML renders the stack as absolutely positioned layers inside a box of
// Size by Size pixels.
func (c Composition) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := htmlStack.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render mascot html: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// inlineMarkup drops anything before the root <svg> tag (XML declaration,
// doctype, comments) so the markup can sit inside another document.
func inlineMarkup(markup string) string {
	if i := strings.Index(markup, "<svg"); i > 0 {
		return markup[i:]
	}
	return markup
}

// SVG flattens the stack into one standalone SVG document. Markup layers are
// always embedded as data URIs. Image layers are embedded from assets when it
// is non-nil and referenced by URL otherwise.
func (c Composition) SVG(ctx context.Context, assets AssetSource) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%[1]d" height="%[1]d" viewBox="0 0 %[1]d %[1]d">`, c.Size)
	buf.WriteByte('\n')
	for _, l := range c.Layers {
		href, err := c.layerHref(ctx, l, assets)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `  <image data-role="%s" x="0" y="0" width="%d" height="%d" preserveAspectRatio="xMidYMid meet" href="%s" xlink:href="%[4]s"/>`,
			escapeAttr(l.Role), c.Size, c.Size, escapeAttr(href))
		buf.WriteByte('\n')
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func (c Composition) layerHref(ctx context.Context, l Layer, assets AssetSource) (string, error) {
	if l.Kind == LayerMarkup {
		return svgDataURI([]byte(l.Markup)), nil
	}
	if assets == nil {
		return l.Src, nil
	}
	data, err := assets.Fetch(ctx, l.Asset)
	if err != nil {
		return "", fmt.Errorf("embed %s layer: %w", l.Role, err)
	}
	return svgDataURI(data), nil
}

func svgDataURI(data []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(data)
}

func escapeAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
