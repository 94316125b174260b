package studio

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/CTAG07/Capyboard/pkg/mascot"
)

func TestPlatforms(t *testing.T) {
	tests := []struct {
		key      PlatformKey
		w, h     int
		vertical bool
	}{
		{InstagramPost, 1080, 1080, false},
		{InstagramStory, 1080, 1920, true},
		{MeetupBanner, 1200, 675, false},
		{LinkedInCover, 1128, 191, false},
		{YouTubeThumbnail, 1280, 720, false},
		{Vertical1080, 1080, 1920, true},
		{YouTubeBanner, 2560, 1440, false},
	}
	if len(Platforms()) != len(tests) {
		t.Fatalf("expected %d platforms, got %d", len(tests), len(Platforms()))
	}
	for _, tt := range tests {
		p, ok := LookupPlatform(tt.key)
		if !ok {
			t.Errorf("platform %s missing", tt.key)
			continue
		}
		if p.Width != tt.w || p.Height != tt.h {
			t.Errorf("%s: got %dx%d, want %dx%d", tt.key, p.Width, p.Height, tt.w, tt.h)
		}
		if p.IsVertical() != tt.vertical {
			t.Errorf("%s: IsVertical = %v", tt.key, p.IsVertical())
		}
	}
	if got := PlatformFor("fax"); got.Key != DefaultPlatform {
		t.Errorf("unknown platforms should fall back to %s, got %s", DefaultPlatform, got.Key)
	}
}

func TestTypeScaleFor(t *testing.T) {
	if got := TypeScaleFor(InstagramStory); got != (TypeScale{120, 50, 27}) {
		t.Errorf("story scale = %+v", got)
	}
	if got := TypeScaleFor(MeetupBanner); got != (TypeScale{95, 30, 23}) {
		t.Errorf("banner scale = %+v", got)
	}
	if got := TypeScaleFor(YouTubeBanner); got != (TypeScale{110, 44, 27}) {
		t.Errorf("default scale = %+v", got)
	}
}

func TestThemeWithBackground(t *testing.T) {
	theme := DefaultTheme().WithBackground(BrandNavy)
	if theme.Background != BrandNavy {
		t.Fatalf("background = %s", theme.Background)
	}
	// Title, badges and logos were navy and must move to teal, the first
	// brand color that is not navy. The coral CTA is untouched.
	if theme.Title != BrandTeal || theme.Logos.Women != BrandTeal || theme.Badges.NonCoders != BrandTeal {
		t.Errorf("colliding colors were not replaced: %+v", theme)
	}
	if theme.CTA != BrandCoral {
		t.Errorf("CTA = %s, want coral", theme.CTA)
	}

	teal := DefaultTheme().WithBackground(BrandTeal).WithCTA(BrandTeal)
	if teal.CTA != BrandCoral {
		t.Errorf("a CTA equal to a teal background should become coral, got %s", teal.CTA)
	}
	for _, c := range teal.Options() {
		if c == BrandTeal {
			t.Error("options must exclude the background")
		}
	}
}

func TestThemeNormalizeFillsInvalid(t *testing.T) {
	got := Theme{Background: "plaid"}.Normalize()
	if !reflect.DeepEqual(got, DefaultTheme()) {
		t.Errorf("got %+v, want the default theme", got)
	}
}

func TestEpisodeReleaseNormalize(t *testing.T) {
	e := DefaultEpisodeRelease()
	e.Platform = "fax"
	e.Decor = "sparkles"
	e.Expression = "smirk"
	e.CircleAccent = "magenta"
	e.Badges = []EpisodeBadge{BadgeSpotify, "Myspace", BadgeSpotify, BadgeYouTube}
	e.CTA = " "
	for i := 0; i < 5; i++ {
		e.Guests = append(e.Guests, Guest{Name: "extra"})
	}
	e = e.Normalize()

	if e.Platform != DefaultPlatform || e.Decor != DecorPlayful || e.Expression != mascot.ExpressionNone {
		t.Errorf("invalid enums not reset: %s %s %s", e.Platform, e.Decor, e.Expression)
	}
	if e.CircleAccent != AccentOrange {
		t.Errorf("circle accent = %s", e.CircleAccent)
	}
	if !reflect.DeepEqual(e.Badges, []EpisodeBadge{BadgeSpotify, BadgeYouTube}) {
		t.Errorf("badges = %v", e.Badges)
	}
	if len(e.Guests) != MaxGuests {
		t.Errorf("guests = %d, want %d", len(e.Guests), MaxGuests)
	}
	if e.CTA != "Listen now" {
		t.Errorf("CTA = %q", e.CTA)
	}
}

func TestEpisodeReleaseSetters(t *testing.T) {
	base := DefaultEpisodeRelease()
	e := base.WithGuest(Guest{Name: "Ana", Accent: AccentCyan}).WithBadge(BadgeSpotify, false).WithBadge(BadgeAntennaPod, true)
	if len(base.Guests) != 3 || len(base.Badges) != 2 {
		t.Fatal("setters must not mutate the receiver")
	}
	if len(e.Guests) != 4 || e.GuestAccent(3) != AccentCyan || e.GuestAccent(0) != AccentOrange {
		t.Errorf("guest accents wrong: %+v", e.Guests)
	}
	if !reflect.DeepEqual(e.Badges, []EpisodeBadge{BadgeYouTube, BadgeAntennaPod}) {
		t.Errorf("badges = %v", e.Badges)
	}
	if got := e.WithoutGuest(0).Guests[0].Name; got != "Natasha" {
		t.Errorf("first guest after removal = %q", got)
	}
	if got := e.WithHeroImage("data:image/png;base64,AA==").HeroImage; got == "" {
		t.Error("hero image not set")
	}
}

func TestEpisodeReleaseHeading(t *testing.T) {
	e := DefaultEpisodeRelease()
	if got := e.Heading(); got != "ragTech • Episode 12" {
		t.Errorf("heading = %q", got)
	}
	e.Season = "2"
	if got := e.Heading(); got != "ragTech • S2 • Episode 12" {
		t.Errorf("heading = %q", got)
	}
}

func TestMascotRequests(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		show   bool
		size   int
		expr   mascot.Expression
	}{
		{"episode square", DefaultEpisodeRelease(), true, 350, mascot.ExpressionNone},
		{"episode story", DefaultEpisodeRelease().WithPlatform(InstagramStory), true, 500, mascot.ExpressionNone},
		{"episode thumbnail", DefaultEpisodeRelease().WithPlatform(YouTubeThumbnail), false, 0, ""},
		{"highlight", DefaultHighlightCover(), false, 0, ""},
		{"event", DefaultEventAnnouncement(), true, 420, mascot.ExpressionNone},
		{"stats", DefaultViewerStats(), true, 420, mascot.ExpressionNone},
		{"stats celebrate", DefaultViewerStats().WithCelebrate(true), true, 420, mascot.ExpressionTeardropExpression},
		{"overlay lower third", DefaultVideoOverlay(), false, 0, ""},
		{"overlay mascot", DefaultVideoOverlay().WithKind(OverlayMascotOnly), true, 320, mascot.ExpressionNone},
	}
	for _, tt := range tests {
		req, show := tt.layout.MascotRequest()
		if show != tt.show {
			t.Errorf("%s: show = %v", tt.name, show)
			continue
		}
		if show && (req.Size != tt.size || req.Expression != tt.expr) {
			t.Errorf("%s: got size %d expression %q", tt.name, req.Size, req.Expression)
		}
	}
}

func TestMascotControlsWin(t *testing.T) {
	v := DefaultViewerStats().WithCelebrate(true)
	v.MascotControls = MascotControls{Eye: mascot.EyeClosed, AddOns: []mascot.AddOn{mascot.AddOnTearsStreaming, mascot.AddOnAnger, "sparkle"}}
	v = v.Normalize()
	if !reflect.DeepEqual(v.AddOns, []mascot.AddOn{mascot.AddOnAnger, mascot.AddOnTearsStreaming}) {
		t.Errorf("add-ons = %v", v.AddOns)
	}
	req, _ := v.MascotRequest()
	r := req.Resolve()
	if r.Eye != mascot.EyeClosed || !r.AddOns.Has(mascot.AddOnTearsStreaming) || r.AddOns.Has(mascot.AddOnTeardropExpression) {
		t.Errorf("grouped controls should override the celebrate expression: %s", r)
	}
}

func TestVideoOverlayNormalize(t *testing.T) {
	o := DefaultVideoOverlay()
	o.Platform = InstagramPost
	o.FramePadding = 900
	o.Variant = "rounded-99"
	o.CircleAccent = ""
	o = o.WithAccent(AccentCyan)
	if o.Platform != YouTubeThumbnail {
		t.Errorf("overlays must render on the YouTube thumbnail canvas, got %s", o.Platform)
	}
	if o.FramePadding != MaxFramePad || o.Variant != Rounded16 || o.CircleAccent != AccentCyan {
		t.Errorf("unexpected overlay: %+v", o)
	}
	if o.Variant.Radius() != 16 || Rounded8.Radius() != 8 || Rounded24.Radius() != 24 {
		t.Error("radius mapping wrong")
	}
	if o.WithFramePadding(-3).FramePadding != 0 {
		t.Error("negative padding should clamp to zero")
	}
}

func TestViewerStatsNormalize(t *testing.T) {
	v := ViewerStats{Views: -1, RetentionPct: 140}.Normalize()
	if v.Views != 0 || v.RetentionPct != 100 || v.Timeframe != "Last 7 days" || v.Platform != DefaultPlatform {
		t.Errorf("unexpected stats: %+v", v)
	}
}

func TestEventAnnouncementNormalize(t *testing.T) {
	e := DefaultEventAnnouncement()
	e.Kind = "Bake Sale"
	e.CohostLogos = []string{"", " https://a.example/logo.png ", ""}
	for i := 0; i < 10; i++ {
		e = e.WithCohostLogo("https://b.example/logo.png")
	}
	if e.Kind != EventLivestream {
		t.Errorf("kind = %s", e.Kind)
	}
	if len(e.CohostLogos) != MaxCohostLogos || e.CohostLogos[0] != "https://a.example/logo.png" {
		t.Errorf("logos = %v", e.CohostLogos)
	}
}

func TestDecode(t *testing.T) {
	l, err := Decode(EpisodeReleaseLayout, []byte(`{"number":"13","badges":["Spotify"],"eyeState":"white","addOns":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	e := l.(EpisodeRelease)
	if e.Number != "13" || e.Title != DefaultEpisodeRelease().Title {
		t.Errorf("fields should overlay the defaults: %+v", e)
	}
	if !reflect.DeepEqual(e.Badges, []EpisodeBadge{BadgeSpotify}) {
		t.Errorf("badges = %v", e.Badges)
	}
	if e.Eye != mascot.EyeWhite || e.AddOns == nil || len(e.AddOns) != 0 {
		t.Errorf("mascot controls = %+v", e.MascotControls)
	}

	if _, err = Decode("poster", nil); !errors.Is(err, ErrUnknownLayout) {
		t.Errorf("expected ErrUnknownLayout, got %v", err)
	}
	if _, err = Decode(ViewerStatsLayout, []byte(`{"views":`)); err == nil {
		t.Error("expected a syntax error")
	}
	for _, info := range Layouts() {
		l, err := Default(info.Name)
		if err != nil || l.LayoutName() != info.Name {
			t.Errorf("Default(%s) = %v, %v", info.Name, l, err)
		}
	}
}

func TestDecodeValues(t *testing.T) {
	l, err := DecodeValues(ViewerStatsLayout, map[string]any{
		"views":     "999",
		"celebrate": "true",
		"platform":  "instagram-story",
		"addOns":    "anger",
		"unknown":   "ignored",
	})
	if err != nil {
		t.Fatal(err)
	}
	v := l.(ViewerStats)
	if v.Views != 999 || !v.Celebrate || v.Platform != InstagramStory {
		t.Errorf("unexpected stats: %+v", v)
	}
	if !reflect.DeepEqual(v.AddOns, []mascot.AddOn{mascot.AddOnAnger}) {
		t.Errorf("add-ons = %v", v.AddOns)
	}
	if v.NewSubs != DefaultViewerStats().NewSubs {
		t.Error("absent values should keep their defaults")
	}

	l, err = DecodeValues(EpisodeReleaseLayout, map[string]any{"badges": []string{"AntennaPod"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := l.(EpisodeRelease).Badges; !reflect.DeepEqual(got, []EpisodeBadge{BadgeAntennaPod}) {
		t.Errorf("lists should replace the defaults, got %v", got)
	}

	if _, err = DecodeValues(ViewerStatsLayout, map[string]any{"views": "lots"}); err == nil {
		t.Error("expected an error for a non-numeric count")
	}
}

func TestPreviewScale(t *testing.T) {
	tests := []struct {
		name                      string
		w, h                      int
		containerW, viewportH, vh float64
		want                      float64
	}{
		{"never upscales", 100, 100, 2000, 2000, 0.8, 1},
		{"width bound", 1080, 1080, 540, 4000, 0.8, 0.5},
		{"height bound", 1080, 1920, 2000, 1200, 0.8, 0.5},
		{"unknown container", 1080, 1080, 0, 900, 0.8, 1},
		{"default vh", 1000, 1000, 5000, 1000, 0, 0.8},
	}
	for _, tt := range tests {
		got := PreviewScale(tt.w, tt.h, tt.containerW, tt.viewportH, tt.vh)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAccents(t *testing.T) {
	if AccentCyan.Hex() != "#9cd2d0" || AccentLemon.Label() != "Light Lemon" {
		t.Error("accent table wrong")
	}
	if Accent("plum").Or(AccentGray) != AccentGray {
		t.Error("Or should fall back for unknown accents")
	}
	if len(Accents()) != 6 || len(BrandPalette()) != 5 {
		t.Error("palette sizes wrong")
	}
}

func TestHighlightCircleSize(t *testing.T) {
	if got := DefaultHighlightCover().CircleSize(); got != 540 {
		t.Errorf("circle = %d", got)
	}
	h := DefaultHighlightCover()
	h.Platform = LinkedInCover
	if got := h.Normalize().CircleSize(); got != 95 {
		t.Errorf("circle = %d", got)
	}
}
