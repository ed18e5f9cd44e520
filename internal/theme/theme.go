package theme

var (
	DefaultPrimary   = MustParseHex("#c4dbef")
	DefaultSecondary = MustParseHex("#8ab4f8")
	DefaultProfile   = MustParseHex("#eaf6ff")

	darkText  = MustParseHex("#1f1f1f")
	lightText = MustParseHex("#f5f5f5")
)

// Theme is the set of colors derived from a base color.
type Theme struct {
	Primary         Color
	Secondary       Color
	GradientStart   Color
	GradientEnd     Color
	ButtonPrimary   Color
	ButtonSecondary Color
	Text            Color
	Muted           Color
}

// Derive builds a [Theme] from a base hex color.
//
// An empty or malformed base falls back to the default primary. The secondary color
// is the base shifted darker so both gradient ends stay related.
func Derive(base string) Theme {
	primary, err := ParseHex(base)
	if err != nil {
		primary = DefaultPrimary
	}
	secondary := DefaultSecondary
	if err == nil {
		secondary = Adjust(primary, -40)
	}
	return DeriveFrom(primary, secondary)
}

// DeriveFrom builds a [Theme] from explicit primary and secondary colors.
func DeriveFrom(primary, secondary Color) Theme {
	t := Theme{
		Primary:         primary,
		Secondary:       secondary,
		GradientStart:   Brighten(primary, BrightenFactor, BrightenOffset),
		GradientEnd:     Brighten(secondary, BrightenFactor, BrightenOffset),
		ButtonPrimary:   SoftComplement(primary),
		ButtonSecondary: SoftComplement(secondary),
		Text:            ReadableOn(primary),
	}
	t.Muted = Blend(t.Text, primary, 0.45)
	return t
}

// ReadableOn returns a near-black or near-white text color for legibility on bg.
func ReadableOn(bg Color) Color {
	if bg.Lightness() > 0.6 {
		return darkText
	}
	return lightText
}

// Hex returns the theme as a map of role name to "#rrggbb", for JSON output.
func (t Theme) Hex() map[string]string {
	return map[string]string{
		"primary":         t.Primary.Hex(),
		"secondary":       t.Secondary.Hex(),
		"gradientStart":   t.GradientStart.Hex(),
		"gradientEnd":     t.GradientEnd.Hex(),
		"buttonPrimary":   t.ButtonPrimary.Hex(),
		"buttonSecondary": t.ButtonSecondary.Hex(),
		"text":            t.Text.Hex(),
		"muted":           t.Muted.Hex(),
	}
}
