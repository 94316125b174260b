package mascot

import (
	"context"
	"io"
	"log/slog"
)

// LayerKind tells a renderer how to draw a layer.
type LayerKind string

const (
	// LayerMarkup carries inline SVG markup.
	LayerMarkup LayerKind = "markup"
	// LayerImage references an asset by URL.
	LayerImage LayerKind = "image"
)

// Layer is one full-bleed, aspect-preserving slice of the composition.
type Layer struct {
	Kind   LayerKind `json:"kind"`
	Role   string    `json:"role"`
	Asset  string    `json:"asset,omitempty"`
	Src    string    `json:"src,omitempty"`
	Markup string    `json:"markup,omitempty"`
}

// Layer roles.
const (
	RoleBase = "base"
	RoleEye  = "eye"
)

// Composition is the ordered layer stack for one render, bottom first.
type Composition struct {
	Size   int      `json:"size"`
	Eye    EyeState `json:"eyeState"`
	AddOns []AddOn  `json:"addOns"`
	Layers []Layer  `json:"layers"`
}

// Roles lists the role of every layer, bottom first.
func (c Composition) Roles() []string {
	roles := make([]string, len(c.Layers))
	for i, l := range c.Layers {
		roles[i] = l.Role
	}
	return roles
}

// Hooks receive notifications from a Compositor. Nil fields are skipped.
type Hooks struct {
	// OnCompose fires once per render with overlay=false for the fast path.
	OnCompose func(overlay bool)
	// OnBaseFailure fires when the base layer was dropped.
	OnBaseFailure func(err error)
}

// Compositor turns requests into layer stacks. It is safe for concurrent use
// and keeps no per-request state.
type Compositor struct {
	source AssetSource
	assets Assets
	logger *slog.Logger
	hooks  Hooks
}

type Option func(*Compositor)

// WithAssets replaces the default asset names.
func WithAssets(assets Assets) Option {
	return func(c *Compositor) {
		c.assets = assets
	}
}

// WithLogger sets the logger used to report degraded renders.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compositor) {
		c.logger = logger
	}
}

// WithHooks installs observation callbacks.
func WithHooks(hooks Hooks) Option {
	return func(c *Compositor) {
		c.hooks = hooks
	}
}

// NewCompositor creates a compositor reading base markup from source.
func NewCompositor(source AssetSource, opts ...Option) *Compositor {
	c := &Compositor{
		source: source,
		assets: DefaultAssets(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assets returns the asset names the compositor references.
func (c *Compositor) Assets() Assets {
	return c.assets
}

// Compose builds the layer stack for req. A base asset that cannot be
// fetched or parsed is left out silently; the only error returned is the
// cancellation of ctx, checked before the fetched markup is used.
func (c *Compositor) Compose(ctx context.Context, req Request) (Composition, error) {
	r := req.Resolve()
	comp := Composition{
		Size:   r.Size,
		Eye:    r.Eye,
		AddOns: r.AddOns.Slice(),
	}

	if !r.NeedsOverlays() {
		c.notifyCompose(false)
		comp.Layers = []Layer{c.imageLayer(RoleBase, c.assets.Base)}
		return comp, nil
	}
	c.notifyCompose(true)

	base, err := c.source.Fetch(ctx, c.assets.Base)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Composition{}, ctxErr
	}
	if err == nil {
		base, err = transformBase(base, r.Eye)
	}
	if err != nil {
		c.logger.Warn("Rendering mascot without base layer", "asset", c.assets.Base, "request", r.String(), "error", err)
		if c.hooks.OnBaseFailure != nil {
			c.hooks.OnBaseFailure(err)
		}
	} else {
		comp.Layers = append(comp.Layers, Layer{
			Kind:   LayerMarkup,
			Role:   RoleBase,
			Asset:  c.assets.Base,
			Markup: string(base),
		})
	}

	for _, a := range r.AddOns.Slice() {
		comp.Layers = append(comp.Layers, c.imageLayer(string(a), c.assets.AddOns[a]))
	}
	if r.Eye == EyeClosed {
		comp.Layers = append(comp.Layers, c.imageLayer(RoleEye, c.assets.ClosedEye))
	}
	return comp, nil
}

func (c *Compositor) imageLayer(role, asset string) Layer {
	return Layer{
		Kind:  LayerImage,
		Role:  role,
		Asset: asset,
		Src:   c.assets.URL(asset),
	}
}

func (c *Compositor) notifyCompose(overlay bool) {
	if c.hooks.OnCompose != nil {
		c.hooks.OnCompose(overlay)
	}
}
