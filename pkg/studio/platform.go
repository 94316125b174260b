package studio

import "fmt"

// PlatformKey names a publishing target with a fixed canvas size.
type PlatformKey string

const (
	InstagramPost    PlatformKey = "instagram-post"
	InstagramStory   PlatformKey = "instagram-story"
	MeetupBanner     PlatformKey = "meetup-banner"
	LinkedInCover    PlatformKey = "linkedin-cover"
	YouTubeThumbnail PlatformKey = "youtube-thumbnail"
	Vertical1080     PlatformKey = "vertical-1080x1920"
	YouTubeBanner    PlatformKey = "youtube-banner"
)

// DefaultPlatform is used when a layout names an unknown platform.
const DefaultPlatform = InstagramPost

// Platform is the canvas of one publishing target.
type Platform struct {
	Key    PlatformKey `json:"key"`
	Label  string      `json:"label"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

// IsVertical reports whether the canvas is taller than it is wide.
func (p Platform) IsVertical() bool {
	return p.Height > p.Width
}

// IsStory reports whether the canvas is one of the full-screen vertical story formats.
func (p Platform) IsStory() bool {
	return p.Key == InstagramStory || p.Key == Vertical1080
}

func (p Platform) String() string {
	return fmt.Sprintf("%s (%dx%d)", p.Key, p.Width, p.Height)
}

var platforms = []Platform{
	{InstagramPost, "Instagram Post (1080×1080)", 1080, 1080},
	{InstagramStory, "Instagram Story (1080×1920)", 1080, 1920},
	{MeetupBanner, "Meetup Banner (1200×675)", 1200, 675},
	{LinkedInCover, "LinkedIn Cover (1128×191)", 1128, 191},
	{YouTubeThumbnail, "YouTube Thumbnail (1280×720)", 1280, 720},
	{Vertical1080, "TikTok/Reel/Shorts (1080×1920)", 1080, 1920},
	{YouTubeBanner, "YouTube Banner (2560×1440)", 2560, 1440},
}

// Platforms lists every known platform in display order.
func Platforms() []Platform {
	return append([]Platform(nil), platforms...)
}

// LookupPlatform returns the platform for key.
func LookupPlatform(key PlatformKey) (Platform, bool) {
	for _, p := range platforms {
		if p.Key == key {
			return p, true
		}
	}
	return Platform{}, false
}

// PlatformFor returns the platform for key, falling back to DefaultPlatform.
func PlatformFor(key PlatformKey) Platform {
	if p, ok := LookupPlatform(key); ok {
		return p
	}
	p, _ := LookupPlatform(DefaultPlatform)
	return p
}

// Valid reports whether k names a known platform.
func (k PlatformKey) Valid() bool {
	_, ok := LookupPlatform(k)
	return ok
}

// TypeScale holds the base font sizes in pixels for a platform.
type TypeScale struct {
	Headline int `json:"headline"`
	Body     int `json:"body"`
	Caption  int `json:"caption"`
}

// TypeScaleFor returns the font sizes tuned for key.
func TypeScaleFor(key PlatformKey) TypeScale {
	switch key {
	case InstagramStory:
		return TypeScale{Headline: 120, Body: 50, Caption: 27}
	case MeetupBanner:
		return TypeScale{Headline: 95, Body: 30, Caption: 23}
	default:
		return TypeScale{Headline: 110, Body: 44, Caption: 27}
	}
}
