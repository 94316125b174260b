package studio

// Accent is one of the pastel accent colors used for backgrounds, circles,
// frames and pills.
type Accent string

const (
	AccentLemon    Accent = "lemon"
	AccentRed      Accent = "red"
	AccentCyan     Accent = "cyan"
	AccentOrange   Accent = "orange"
	AccentOffWhite Accent = "offwhite"
	AccentGray     Accent = "gray"
)

var accentHex = map[Accent]string{
	AccentLemon:    "#fff3c2",
	AccentRed:      "#ffa3a6",
	AccentCyan:     "#9cd2d0",
	AccentOrange:   "#eebf89",
	AccentOffWhite: "#faf9f5",
	AccentGray:     "#7d7c78",
}

var accentLabels = map[Accent]string{
	AccentLemon:    "Light Lemon",
	AccentRed:      "Light Red",
	AccentCyan:     "Pastel Gray Cyan",
	AccentOrange:   "Pastel Orange",
	AccentOffWhite: "Off White",
	AccentGray:     "Gray",
}

// Accents lists the accent palette in display order.
func Accents() []Accent {
	return []Accent{AccentLemon, AccentRed, AccentCyan, AccentOrange, AccentOffWhite, AccentGray}
}

func (a Accent) Valid() bool {
	_, ok := accentHex[a]
	return ok
}

// Hex returns the CSS color of a, or the empty string for unknown accents.
func (a Accent) Hex() string {
	return accentHex[a]
}

func (a Accent) Label() string {
	return accentLabels[a]
}

// Or returns a if it is valid and fallback otherwise.
func (a Accent) Or(fallback Accent) Accent {
	if a.Valid() {
		return a
	}
	return fallback
}

// BrandColor is one of the partner brand colors used by themed layouts.
type BrandColor string

const (
	BrandTeal     BrandColor = "teal"
	BrandCoral    BrandColor = "coral"
	BrandYellow   BrandColor = "yellow"
	BrandNavy     BrandColor = "navy"
	BrandOffWhite BrandColor = "offwhite"
)

var brandHex = map[BrandColor]string{
	BrandTeal:     "#2a9d8f",
	BrandCoral:    "#f25f5c",
	BrandYellow:   "#ffd23f",
	BrandNavy:     "#1d3557",
	BrandOffWhite: "#faf9f5",
}

// BrandPalette lists the brand colors in their canonical order. The order
// decides the replacement picked by Theme.WithBackground.
func BrandPalette() []BrandColor {
	return []BrandColor{BrandTeal, BrandCoral, BrandYellow, BrandNavy, BrandOffWhite}
}

func (c BrandColor) Valid() bool {
	_, ok := brandHex[c]
	return ok
}

func (c BrandColor) Hex() string {
	return brandHex[c]
}

// Ink is the dark text color shared by every layout.
const Ink = "#111827"

// InkMuted is used for secondary text.
const InkMuted = "#374151"
