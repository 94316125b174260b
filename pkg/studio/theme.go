package studio

// Theme colors the partner branding on themed layouts.
type Theme struct {
	Background BrandColor `json:"background" mapstructure:"background"`
	CTA        BrandColor `json:"cta" mapstructure:"cta"`
	Title      BrandColor `json:"title" mapstructure:"title"`
	Badges     Badges     `json:"badges" mapstructure:"badges"`
	Logos      Logos      `json:"logos" mapstructure:"logos"`
}

// Badges holds the color of each audience badge.
type Badges struct {
	Allies    BrandColor `json:"allies" mapstructure:"allies"`
	Nursing   BrandColor `json:"nursing" mapstructure:"nursing"`
	Parents   BrandColor `json:"parents" mapstructure:"parents"`
	NonCoders BrandColor `json:"nonCoders" mapstructure:"nonCoders"`
}

// Logos holds the color of each word of the partner logo.
type Logos struct {
	Women     BrandColor `json:"women" mapstructure:"women"`
	Devs      BrandColor `json:"devs" mapstructure:"devs"`
	Singapore BrandColor `json:"singapore" mapstructure:"singapore"`
}

// DefaultTheme returns the initial theme: off-white background, coral call
// to action and navy everywhere else.
func DefaultTheme() Theme {
	return Theme{
		Background: BrandOffWhite,
		CTA:        BrandCoral,
		Title:      BrandNavy,
		Badges:     Badges{Allies: BrandNavy, Nursing: BrandNavy, Parents: BrandNavy, NonCoders: BrandNavy},
		Logos:      Logos{Women: BrandNavy, Devs: BrandNavy, Singapore: BrandNavy},
	}
}

// WithBackground returns a copy of t on background bg. Every other color
// equal to bg is replaced by the first brand color that differs from it.
func (t Theme) WithBackground(bg BrandColor) Theme {
	t.Background = bg
	return t.Normalize()
}

// WithCTA returns a copy of t with a new call to action color.
func (t Theme) WithCTA(c BrandColor) Theme {
	t.CTA = c
	return t.Normalize()
}

func (t Theme) WithTitle(c BrandColor) Theme {
	t.Title = c
	return t.Normalize()
}

func (t Theme) WithLogos(l Logos) Theme {
	t.Logos = l
	return t.Normalize()
}

// Normalize fills invalid colors from DefaultTheme and resolves every
// collision with the background.
func (t Theme) Normalize() Theme {
	def := DefaultTheme()
	fill := func(c *BrandColor, d BrandColor) {
		if !c.Valid() {
			*c = d
		}
	}
	fill(&t.Background, def.Background)
	fill(&t.CTA, def.CTA)
	fill(&t.Title, def.Title)
	fill(&t.Badges.Allies, def.Badges.Allies)
	fill(&t.Badges.Nursing, def.Badges.Nursing)
	fill(&t.Badges.Parents, def.Badges.Parents)
	fill(&t.Badges.NonCoders, def.Badges.NonCoders)
	fill(&t.Logos.Women, def.Logos.Women)
	fill(&t.Logos.Devs, def.Logos.Devs)
	fill(&t.Logos.Singapore, def.Logos.Singapore)

	alt := t.Contrast()
	for _, c := range []*BrandColor{
		&t.CTA, &t.Title,
		&t.Badges.Allies, &t.Badges.Nursing, &t.Badges.Parents, &t.Badges.NonCoders,
		&t.Logos.Women, &t.Logos.Devs, &t.Logos.Singapore,
	} {
		if *c == t.Background {
			*c = alt
		}
	}
	return t
}

// Contrast returns the first brand color that differs from the background.
func (t Theme) Contrast() BrandColor {
	for _, c := range BrandPalette() {
		if c != t.Background {
			return c
		}
	}
	return BrandNavy
}

// Options lists the brand colors that may be used on top of the background.
func (t Theme) Options() []BrandColor {
	var out []BrandColor
	for _, c := range BrandPalette() {
		if c != t.Background {
			out = append(out, c)
		}
	}
	return out
}
