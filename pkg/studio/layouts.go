package studio

import (
	"strings"

	"github.com/CTAG07/Capyboard/pkg/mascot"
)

// LayoutName identifies a layout template.
type LayoutName string

const (
	EpisodeReleaseLayout    LayoutName = "episode-release"
	HighlightCoverLayout    LayoutName = "ig-highlight"
	EventAnnouncementLayout LayoutName = "event-announcement"
	ViewerStatsLayout       LayoutName = "viewer-stats"
	VideoOverlayLayout      LayoutName = "video-overlays"
)

// LayoutInfo describes a layout for listings.
type LayoutInfo struct {
	Name  LayoutName `json:"name"`
	Label string     `json:"label"`
	// FixedPlatform is set for layouts that always render on one platform.
	FixedPlatform PlatformKey `json:"fixedPlatform,omitempty"`
	Decor         bool        `json:"decor"`
}

var layouts = []LayoutInfo{
	{Name: EpisodeReleaseLayout, Label: "Episode Release", Decor: true},
	{Name: HighlightCoverLayout, Label: "IG Highlight Cover", Decor: true},
	{Name: EventAnnouncementLayout, Label: "Event Announcement", Decor: true},
	{Name: ViewerStatsLayout, Label: "Viewer Stats", Decor: true},
	{Name: VideoOverlayLayout, Label: "Video Overlays", FixedPlatform: YouTubeThumbnail},
}

// Layouts lists every layout in display order.
func Layouts() []LayoutInfo {
	return append([]LayoutInfo(nil), layouts...)
}

// Layout is a normalized, render-ready layout value.
type Layout interface {
	LayoutName() LayoutName
	Canvas() Platform
	// MascotRequest returns the mascot to draw and false when the layout
	// shows none.
	MascotRequest() (mascot.Request, bool)
}

// Decor is the background decoration drawn between the background and the content.
type Decor string

const (
	DecorNone    Decor = "none"
	DecorPlayful Decor = "playful"
	DecorTech    Decor = "tech"
	DecorGames   Decor = "games"
	DecorMascot  Decor = "mascot"
)

func (d Decor) Valid() bool {
	switch d {
	case DecorNone, DecorPlayful, DecorTech, DecorGames, DecorMascot:
		return true
	}
	return false
}

// Emojis returns the tiles used by the emoji decor variants.
func (d Decor) Emojis() []string {
	switch d {
	case DecorTech:
		return []string{"🤖", "💻", "🖱️", "⌨️", "👩‍💻", "🖥️"}
	case DecorGames:
		return []string{"👾", "🕹️", "🃏", "🎱", "🀄"}
	}
	return nil
}

// MascotControls are the grouped mascot fields shared by mascot layouts.
// Left empty they defer to the layout's legacy expression.
type MascotControls struct {
	Eye    mascot.EyeState `json:"eyeState,omitempty" mapstructure:"eyeState"`
	AddOns []mascot.AddOn  `json:"addOns,omitempty" mapstructure:"addOns"`
}

func (m MascotControls) normalize() MascotControls {
	if m.Eye != "" && !m.Eye.Valid() {
		m.Eye = ""
	}
	if m.AddOns != nil {
		m.AddOns = mascot.NewAddOnSet(m.AddOns...).Slice()
		if m.AddOns == nil {
			m.AddOns = []mascot.AddOn{}
		}
	}
	return m
}

func (m MascotControls) request(x mascot.Expression, size int) mascot.Request {
	return mascot.Request{Expression: x, Eye: m.Eye, AddOns: m.AddOns, Size: size}
}

// Limits applied by Normalize.
const (
	MaxGuests      = 4
	MaxCohostLogos = 6
	MaxFramePad    = 200
)

// EpisodeBadge is a listening platform shown under the call to action.
type EpisodeBadge string

const (
	BadgeYouTube       EpisodeBadge = "YouTube"
	BadgeSpotify       EpisodeBadge = "Spotify"
	BadgeApplePodcasts EpisodeBadge = "Apple Podcasts"
	BadgeAntennaPod    EpisodeBadge = "AntennaPod"
	BadgeICatcher      EpisodeBadge = "iCatcher!"
)

// EpisodeBadges lists the badges in display order.
func EpisodeBadges() []EpisodeBadge {
	return []EpisodeBadge{BadgeYouTube, BadgeSpotify, BadgeApplePodcasts, BadgeAntennaPod, BadgeICatcher}
}

func (b EpisodeBadge) Valid() bool {
	for _, v := range EpisodeBadges() {
		if v == b {
			return true
		}
	}
	return false
}

// Guest is one person on an episode.
type Guest struct {
	Name     string `json:"name" mapstructure:"name"`
	Subtitle string `json:"subtitle,omitempty" mapstructure:"subtitle"`
	// Accent overrides the episode's circle accent.
	Accent Accent `json:"accent,omitempty" mapstructure:"accent"`
}

// EpisodeRelease announces a podcast episode.
type EpisodeRelease struct {
	Platform     PlatformKey       `json:"platform" mapstructure:"platform"`
	Decor        Decor             `json:"decor" mapstructure:"decor"`
	Number       string            `json:"number" mapstructure:"number"`
	Season       string            `json:"season,omitempty" mapstructure:"season"`
	Title        string            `json:"title" mapstructure:"title"`
	Guests       []Guest           `json:"guests" mapstructure:"guests"`
	Description  string            `json:"description" mapstructure:"description"`
	CTA          string            `json:"cta" mapstructure:"cta"`
	Badges       []EpisodeBadge    `json:"badges" mapstructure:"badges"`
	Expression   mascot.Expression `json:"expression" mapstructure:"expression"`
	HeroImage    string            `json:"heroImageUrl,omitempty" mapstructure:"heroImageUrl"`
	CircleAccent Accent            `json:"circleAccent" mapstructure:"circleAccent"`

	MascotControls `mapstructure:",squash"`
}

// DefaultEpisodeRelease returns the starting episode card.
func DefaultEpisodeRelease() EpisodeRelease {
	return EpisodeRelease{
		Platform: DefaultPlatform,
		Decor:    DecorPlayful,
		Number:   "12",
		Title:    "Debugging Burnout with Kawaii Tech",
		Guests: []Guest{
			{Name: "Victoria"},
			{Name: "Natasha"},
			{Name: "Saloni"},
		},
		Description:  "We share relatable stories on juggling code, creativity, and community.",
		CTA:          "Listen now",
		Badges:       []EpisodeBadge{BadgeYouTube, BadgeSpotify},
		Expression:   mascot.ExpressionNone,
		CircleAccent: AccentOrange,
	}
}

func (e EpisodeRelease) LayoutName() LayoutName { return EpisodeReleaseLayout }

func (e EpisodeRelease) Canvas() Platform { return PlatformFor(e.Platform) }

// MascotRequest hides the mascot on YouTube thumbnails so it does not cover
// the hero image.
func (e EpisodeRelease) MascotRequest() (mascot.Request, bool) {
	p := e.Canvas()
	if p.Key == YouTubeThumbnail {
		return mascot.Request{}, false
	}
	size := 350
	if p.IsVertical() {
		size = 500
	}
	return e.MascotControls.request(e.Expression, size), true
}

// Heading is the small line above the title.
func (e EpisodeRelease) Heading() string {
	var b strings.Builder
	b.WriteString("ragTech • ")
	if e.Season != "" {
		b.WriteString("S" + e.Season + " • ")
	}
	b.WriteString("Episode " + e.Number)
	return b.String()
}

// GuestAccent is the circle color drawn next to guest i.
func (e EpisodeRelease) GuestAccent(i int) Accent {
	if i >= 0 && i < len(e.Guests) && e.Guests[i].Accent.Valid() {
		return e.Guests[i].Accent
	}
	return e.CircleAccent.Or(AccentOrange)
}

func (e EpisodeRelease) WithPlatform(p PlatformKey) EpisodeRelease {
	e.Platform = p
	return e.Normalize()
}

func (e EpisodeRelease) WithTitle(title string) EpisodeRelease {
	e.Title = title
	return e
}

// WithGuest appends a guest, ignoring it once MaxGuests is reached.
func (e EpisodeRelease) WithGuest(g Guest) EpisodeRelease {
	e.Guests = append(append([]Guest(nil), e.Guests...), g)
	return e.Normalize()
}

// WithoutGuest removes guest i.
func (e EpisodeRelease) WithoutGuest(i int) EpisodeRelease {
	if i < 0 || i >= len(e.Guests) {
		return e
	}
	guests := make([]Guest, 0, len(e.Guests)-1)
	guests = append(guests, e.Guests[:i]...)
	e.Guests = append(guests, e.Guests[i+1:]...)
	return e
}

// WithBadge toggles badge b.
func (e EpisodeRelease) WithBadge(b EpisodeBadge, on bool) EpisodeRelease {
	var badges []EpisodeBadge
	for _, v := range e.Badges {
		if v != b {
			badges = append(badges, v)
		}
	}
	if on {
		badges = append(badges, b)
	}
	e.Badges = badges
	return e.Normalize()
}

func (e EpisodeRelease) WithHeroImage(src string) EpisodeRelease {
	e.HeroImage = src
	return e
}

func (e EpisodeRelease) WithMascot(m MascotControls) EpisodeRelease {
	e.MascotControls = m
	return e.Normalize()
}

// Normalize replaces invalid enum values with defaults, caps the guest list
// and drops unknown or repeated badges.
func (e EpisodeRelease) Normalize() EpisodeRelease {
	if !e.Platform.Valid() {
		e.Platform = DefaultPlatform
	}
	if !e.Decor.Valid() {
		e.Decor = DecorPlayful
	}
	if !e.Expression.Valid() {
		e.Expression = mascot.ExpressionNone
	}
	e.CircleAccent = e.CircleAccent.Or(AccentOrange)
	if len(e.Guests) > MaxGuests {
		e.Guests = e.Guests[:MaxGuests]
	}
	seen := make(map[EpisodeBadge]bool, len(e.Badges))
	badges := make([]EpisodeBadge, 0, len(e.Badges))
	for _, b := range e.Badges {
		if b.Valid() && !seen[b] {
			seen[b] = true
			badges = append(badges, b)
		}
	}
	e.Badges = badges
	if strings.TrimSpace(e.CTA) == "" {
		e.CTA = "Listen now"
	}
	e.MascotControls = e.MascotControls.normalize()
	return e
}

// HighlightCover is a round Instagram highlight cover.
type HighlightCover struct {
	Platform   PlatformKey `json:"platform" mapstructure:"platform"`
	Decor      Decor       `json:"decor" mapstructure:"decor"`
	Label      string      `json:"label" mapstructure:"label"`
	Emoji      string      `json:"emoji" mapstructure:"emoji"`
	Background Accent      `json:"background" mapstructure:"background"`
}

func DefaultHighlightCover() HighlightCover {
	return HighlightCover{
		Platform:   DefaultPlatform,
		Decor:      DecorPlayful,
		Label:      "Guests",
		Emoji:      "👩‍💻",
		Background: AccentLemon,
	}
}

func (h HighlightCover) LayoutName() LayoutName { return HighlightCoverLayout }

func (h HighlightCover) Canvas() Platform { return PlatformFor(h.Platform) }

func (h HighlightCover) MascotRequest() (mascot.Request, bool) { return mascot.Request{}, false }

// CircleSize is the diameter of the emoji circle: half the shorter edge.
func (h HighlightCover) CircleSize() int {
	p := h.Canvas()
	return min(p.Width, p.Height) / 2
}

func (h HighlightCover) WithBackground(a Accent) HighlightCover {
	h.Background = a
	return h.Normalize()
}

func (h HighlightCover) WithLabel(label string) HighlightCover {
	h.Label = label
	return h
}

func (h HighlightCover) WithEmoji(emoji string) HighlightCover {
	h.Emoji = emoji
	return h
}

func (h HighlightCover) Normalize() HighlightCover {
	if !h.Platform.Valid() {
		h.Platform = DefaultPlatform
	}
	if !h.Decor.Valid() {
		h.Decor = DecorPlayful
	}
	h.Background = h.Background.Or(AccentLemon)
	return h
}

// EventKind is the kind of event being announced.
type EventKind string

const (
	EventLivestream EventKind = "Livestream"
	EventGamesNight EventKind = "Games Night"
)

func (k EventKind) Valid() bool {
	return k == EventLivestream || k == EventGamesNight
}

// EventAnnouncement promotes a livestream or games night.
type EventAnnouncement struct {
	Platform     PlatformKey       `json:"platform" mapstructure:"platform"`
	Decor        Decor             `json:"decor" mapstructure:"decor"`
	Kind         EventKind         `json:"kind" mapstructure:"kind"`
	Title        string            `json:"title" mapstructure:"title"`
	Subtitle     string            `json:"subtitle,omitempty" mapstructure:"subtitle"`
	DateTime     string            `json:"dateTime" mapstructure:"dateTime"`
	PlatformName string            `json:"platformName" mapstructure:"platformName"`
	CTA          string            `json:"cta" mapstructure:"cta"`
	Description  string            `json:"description,omitempty" mapstructure:"description"`
	Expression   mascot.Expression `json:"expression" mapstructure:"expression"`
	CohostLogos  []string          `json:"cohostLogos" mapstructure:"cohostLogos"`
	Theme        Theme             `json:"theme" mapstructure:"theme"`

	MascotControls `mapstructure:",squash"`
}

func DefaultEventAnnouncement() EventAnnouncement {
	return EventAnnouncement{
		Platform:     DefaultPlatform,
		Decor:        DecorPlayful,
		Kind:         EventLivestream,
		Title:        "Live Q&A: Ship Your First AI App",
		Subtitle:     "with ragTech hosts",
		DateTime:     "Fri, 1 Nov · 8:00 PM SGT",
		PlatformName: "YouTube",
		CTA:          "Set reminder",
		Description:  "Tune in for a friendly, kawaii walkthrough with live questions!",
		Expression:   mascot.ExpressionNone,
		Theme:        DefaultTheme(),
	}
}

func (e EventAnnouncement) LayoutName() LayoutName { return EventAnnouncementLayout }

func (e EventAnnouncement) Canvas() Platform { return PlatformFor(e.Platform) }

func (e EventAnnouncement) MascotRequest() (mascot.Request, bool) {
	size := 420
	if e.Canvas().IsVertical() {
		size = 360
	}
	return e.MascotControls.request(e.Expression, size), true
}

func (e EventAnnouncement) WithKind(k EventKind) EventAnnouncement {
	e.Kind = k
	return e.Normalize()
}

func (e EventAnnouncement) WithTheme(t Theme) EventAnnouncement {
	e.Theme = t.Normalize()
	return e
}

// WithCohostLogo appends a logo URL, ignoring it once MaxCohostLogos is reached.
func (e EventAnnouncement) WithCohostLogo(src string) EventAnnouncement {
	e.CohostLogos = append(append([]string(nil), e.CohostLogos...), src)
	return e.Normalize()
}

func (e EventAnnouncement) WithMascot(m MascotControls) EventAnnouncement {
	e.MascotControls = m
	return e.Normalize()
}

// Normalize drops empty logo URLs and caps the rest.
func (e EventAnnouncement) Normalize() EventAnnouncement {
	if !e.Platform.Valid() {
		e.Platform = DefaultPlatform
	}
	if !e.Decor.Valid() {
		e.Decor = DecorPlayful
	}
	if !e.Kind.Valid() {
		e.Kind = EventLivestream
	}
	if !e.Expression.Valid() {
		e.Expression = mascot.ExpressionNone
	}
	if e.PlatformName == "" {
		e.PlatformName = "YouTube"
	}
	if e.CTA == "" {
		e.CTA = "Set reminder"
	}
	logos := make([]string, 0, len(e.CohostLogos))
	for _, src := range e.CohostLogos {
		if src = strings.TrimSpace(src); src != "" && len(logos) < MaxCohostLogos {
			logos = append(logos, src)
		}
	}
	e.CohostLogos = logos
	e.Theme = e.Theme.Normalize()
	e.MascotControls = e.MascotControls.normalize()
	return e
}

// ViewerStats summarizes channel analytics for a timeframe.
type ViewerStats struct {
	Platform           PlatformKey `json:"platform" mapstructure:"platform"`
	Decor              Decor       `json:"decor" mapstructure:"decor"`
	Views              int         `json:"views" mapstructure:"views"`
	WatchHours         int         `json:"watchTimeHours" mapstructure:"watchTimeHours"`
	AvgViewDurationSec int         `json:"avgViewDurationSec" mapstructure:"avgViewDurationSec"`
	RetentionPct       int         `json:"retentionPct" mapstructure:"retentionPct"`
	NewSubs            int         `json:"newSubs" mapstructure:"newSubs"`
	Timeframe          string      `json:"timeframe" mapstructure:"timeframe"`
	Celebrate          bool        `json:"celebrate" mapstructure:"celebrate"`

	MascotControls `mapstructure:",squash"`
}

func DefaultViewerStats() ViewerStats {
	return ViewerStats{
		Platform:           DefaultPlatform,
		Decor:              DecorPlayful,
		Views:              12345,
		WatchHours:         678,
		AvgViewDurationSec: 312,
		RetentionPct:       47,
		NewSubs:            128,
		Timeframe:          "Last 7 days",
	}
}

func (v ViewerStats) LayoutName() LayoutName { return ViewerStatsLayout }

func (v ViewerStats) Canvas() Platform { return PlatformFor(v.Platform) }

// MascotRequest cries happy tears when celebrating.
func (v ViewerStats) MascotRequest() (mascot.Request, bool) {
	x := mascot.ExpressionNone
	if v.Celebrate {
		x = mascot.ExpressionTeardropExpression
	}
	size := 420
	if v.Canvas().IsVertical() {
		size = 360
	}
	return v.MascotControls.request(x, size), true
}

func (v ViewerStats) WithCelebrate(on bool) ViewerStats {
	v.Celebrate = on
	return v
}

func (v ViewerStats) WithViews(n int) ViewerStats {
	v.Views = n
	return v.Normalize()
}

// Normalize clamps counts to zero and retention to a percentage.
func (v ViewerStats) Normalize() ViewerStats {
	if !v.Platform.Valid() {
		v.Platform = DefaultPlatform
	}
	if !v.Decor.Valid() {
		v.Decor = DecorPlayful
	}
	v.Views = max(v.Views, 0)
	v.WatchHours = max(v.WatchHours, 0)
	v.AvgViewDurationSec = max(v.AvgViewDurationSec, 0)
	v.NewSubs = max(v.NewSubs, 0)
	v.RetentionPct = min(max(v.RetentionPct, 0), 100)
	if v.Timeframe == "" {
		v.Timeframe = "Last 7 days"
	}
	v.MascotControls = v.MascotControls.normalize()
	return v
}

// OverlayKind selects the video overlay element.
type OverlayKind string

const (
	OverlayLowerThird OverlayKind = "lower-third"
	OverlayTitleCard  OverlayKind = "title-card"
	OverlayMascotOnly OverlayKind = "mascot-only"
	OverlayFrame      OverlayKind = "frame"
)

func (k OverlayKind) Valid() bool {
	switch k {
	case OverlayLowerThird, OverlayTitleCard, OverlayMascotOnly, OverlayFrame:
		return true
	}
	return false
}

// PanelVariant is the corner radius of overlay panels.
type PanelVariant string

const (
	Rounded8  PanelVariant = "rounded-8"
	Rounded16 PanelVariant = "rounded-16"
	Rounded24 PanelVariant = "rounded-24"
)

// Radius returns the corner radius in pixels.
func (v PanelVariant) Radius() int {
	switch v {
	case Rounded8:
		return 8
	case Rounded16:
		return 16
	}
	return 24
}

func (v PanelVariant) Valid() bool {
	return v == Rounded8 || v == Rounded16 || v == Rounded24
}

// VideoOverlay is a transparent overlay for video editing.
type VideoOverlay struct {
	Platform      PlatformKey       `json:"platform" mapstructure:"platform"`
	Kind          OverlayKind       `json:"kind" mapstructure:"kind"`
	PrimaryText   string            `json:"primaryText" mapstructure:"primaryText"`
	SecondaryText string            `json:"secondaryText" mapstructure:"secondaryText"`
	ShowLogo      bool              `json:"showLogo" mapstructure:"showLogo"`
	Expression    mascot.Expression `json:"expression" mapstructure:"expression"`
	Accent        Accent            `json:"accent" mapstructure:"accent"`
	CircleAccent  Accent            `json:"circleAccent" mapstructure:"circleAccent"`
	FramePadding  int               `json:"framePadding" mapstructure:"framePadding"`
	Variant       PanelVariant      `json:"variant" mapstructure:"variant"`
	Shadow        bool              `json:"shadow" mapstructure:"shadow"`
	Stroke        bool              `json:"stroke" mapstructure:"stroke"`
	SafeZones     bool              `json:"safeZones" mapstructure:"safeZones"`

	MascotControls `mapstructure:",squash"`
}

func DefaultVideoOverlay() VideoOverlay {
	return VideoOverlay{
		Platform:      YouTubeThumbnail,
		Kind:          OverlayLowerThird,
		PrimaryText:   "Speaker Name",
		SecondaryText: "Title / Handle",
		ShowLogo:      true,
		Expression:    mascot.ExpressionNone,
		Accent:        AccentRed,
		CircleAccent:  AccentRed,
		FramePadding:  24,
		Variant:       Rounded16,
		Shadow:        true,
		Stroke:        true,
	}
}

func (o VideoOverlay) LayoutName() LayoutName { return VideoOverlayLayout }

func (o VideoOverlay) Canvas() Platform { return PlatformFor(YouTubeThumbnail) }

// MascotRequest only draws the mascot for the mascot-only kind.
func (o VideoOverlay) MascotRequest() (mascot.Request, bool) {
	if o.Kind != OverlayMascotOnly {
		return mascot.Request{}, false
	}
	return o.MascotControls.request(o.Expression, 320), true
}

// PanelShadow is the CSS box-shadow of overlay panels.
func (o VideoOverlay) PanelShadow() string {
	if o.Shadow {
		return "0 8px 24px rgba(17,24,39,0.18)"
	}
	return "none"
}

// PanelBorder is the CSS border of overlay panels.
func (o VideoOverlay) PanelBorder() string {
	if o.Stroke {
		return "2px solid rgba(17, 24, 39, 0.12)"
	}
	return "1px solid rgba(17, 24, 39, 0.08)"
}

func (o VideoOverlay) WithKind(k OverlayKind) VideoOverlay {
	o.Kind = k
	return o.Normalize()
}

func (o VideoOverlay) WithAccent(a Accent) VideoOverlay {
	o.Accent = a
	return o.Normalize()
}

func (o VideoOverlay) WithFramePadding(px int) VideoOverlay {
	o.FramePadding = px
	return o.Normalize()
}

func (o VideoOverlay) WithMascot(m MascotControls) VideoOverlay {
	o.MascotControls = m
	return o.Normalize()
}

// Normalize forces the YouTube thumbnail canvas, clamps the frame padding
// and lets the circle follow the accent when it names none.
func (o VideoOverlay) Normalize() VideoOverlay {
	o.Platform = YouTubeThumbnail
	if !o.Kind.Valid() {
		o.Kind = OverlayLowerThird
	}
	if !o.Expression.Valid() {
		o.Expression = mascot.ExpressionNone
	}
	o.Accent = o.Accent.Or(AccentRed)
	o.CircleAccent = o.CircleAccent.Or(o.Accent)
	if !o.Variant.Valid() {
		o.Variant = Rounded16
	}
	o.FramePadding = min(max(o.FramePadding, 0), MaxFramePad)
	o.MascotControls = o.MascotControls.normalize()
	return o
}
