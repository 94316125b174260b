package mascot

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
)

//go:embed assets/*.svg
var embedded embed.FS

// DefaultFS returns the embedded mascot asset set, rooted at the asset files.
func DefaultFS() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return sub
}

// AssetSource retrieves the raw markup of a named asset.
type AssetSource interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Assets names the files making up one mascot and the URL prefix under which
// a browser can load them.
type Assets struct {
	Prefix    string           `json:"prefix"`
	Base      string           `json:"base"`
	ClosedEye string           `json:"closed_eye"`
	AddOns    map[AddOn]string `json:"add_ons"`
}

// DefaultAssets returns the names of the embedded asset set served under
// /assets/svg/.
func DefaultAssets() Assets {
	return Assets{
		Prefix:    "/assets/svg/",
		Base:      "capybara.svg",
		ClosedEye: "closed-eye.svg",
		AddOns: map[AddOn]string{
			AddOnAnger:              "anger-expression.svg",
			AddOnTeardrop:           "teardrop.svg",
			AddOnTeardropExpression: "teardrop-expression.svg",
			AddOnTearsStreaming:     "tears-streaming.svg",
		},
	}
}

// URL returns the browser path of the named asset.
func (a Assets) URL(name string) string {
	if a.Prefix == "" {
		return name
	}
	return strings.TrimSuffix(a.Prefix, "/") + "/" + url.PathEscape(name)
}

// FSSource reads assets from a file system.
type FSSource struct {
	FS fs.FS
}

// Fetch implements AssetSource.
func (s FSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(clean) {
		return nil, fmt.Errorf("invalid asset name %q", name)
	}
	data, err := fs.ReadFile(s.FS, clean)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", clean, err)
	}
	return data, nil
}

// HTTPSource fetches assets from BaseURL with one GET per call and no retry.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// Fetch implements AssetSource.
func (s HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse asset base url: %w", err)
	}
	ref, err := url.Parse(url.PathEscape(strings.TrimPrefix(name, "/")))
	if err != nil {
		return nil, fmt.Errorf("parse asset name %q: %w", name, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	target := base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build asset request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset %s: %w", target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch asset %s: unexpected status %s", target, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", target, err)
	}
	return data, nil
}

// SourceFunc adapts a function to AssetSource.
type SourceFunc func(ctx context.Context, name string) ([]byte, error)

// Fetch implements AssetSource.
func (f SourceFunc) Fetch(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}
