package theme

// BrightenHex brightens a hex color with the default factor and offset.
// Malformed input is returned unchanged.
func BrightenHex(hex string) string {
	return mapHex(hex, func(c Color) Color { return Brighten(c, BrightenFactor, BrightenOffset) })
}

// ComplementHex inverts a hex color. Malformed input is returned unchanged.
func ComplementHex(hex string) string {
	return mapHex(hex, Complement)
}

// SoftComplementHex returns the button contrast color for a hex color.
// Malformed input is returned unchanged.
func SoftComplementHex(hex string) string {
	return mapHex(hex, SoftComplement)
}

// AdjustHex adds amount to every channel of a hex color. Malformed input is returned unchanged.
func AdjustHex(hex string, amount int) string {
	return mapHex(hex, func(c Color) Color { return Adjust(c, amount) })
}

// RGBAHex formats a hex color as rgba() with the given alpha.
// Malformed input yields the default profile color.
func RGBAHex(hex string, alpha float64) string {
	c, err := ParseHex(hex)
	if err != nil {
		c = DefaultProfile
	}
	return RGBA(c, alpha)
}

// HexToInt converts a hex color to its integer form, or the default profile color when malformed.
func HexToInt(hex string) int {
	c, err := ParseHex(hex)
	if err != nil {
		return DefaultProfile.Int()
	}
	return c.Int()
}

// IntToHex converts the integer form to "#rrggbb", or the default profile color when out of range.
func IntToHex(n int) string {
	c, err := FromInt(n)
	if err != nil {
		return DefaultProfile.Hex()
	}
	return c.Hex()
}

func mapHex(hex string, fn func(Color) Color) string {
	c, err := ParseHex(hex)
	if err != nil {
		return hex
	}
	return fn(c).Hex()
}
