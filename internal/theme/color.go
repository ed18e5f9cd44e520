// Package theme derives profile theme colors from a single base color.
//
// All arithmetic transforms clamp every channel to [0,255]. The *Hex variants are
// fail-soft: malformed input is returned unchanged so a bad stored color never
// breaks rendering.
package theme

import (
	"fmt"
	"math"
	"strings"

	"github.com/desertthunder/moody/internal/shared"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	BrightenFactor = 1.4
	BrightenOffset = 60.0

	softScale  = 0.7
	softOffset = 76.0

	hexDigits = "0123456789abcdefABCDEF"
)

// Color is a 24-bit RGB value, 0xRRGGBB.
type Color uint32

// RGB builds a [Color] from channel values, clamping each to [0,255].
func RGB(r, g, b int) Color {
	return Color(clamp(r)<<16 | clamp(g)<<8 | clamp(b))
}

// FromInt converts the integer form used by the API into a [Color].
func FromInt(n int) (Color, error) {
	if n < 0 || n > 0xffffff {
		return 0, fmt.Errorf("%w: color %d out of range", shared.ErrInvalidInput, n)
	}
	return Color(n), nil
}

// ParseHex parses "#rrggbb", "rrggbb", "#rgb" or "#rrggbbaa". Alpha is dropped.
func ParseHex(s string) (Color, error) {
	h := strings.TrimSpace(s)
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}
	if (len(h) != 4 && len(h) != 7 && len(h) != 9) || strings.Trim(h[1:], hexDigits) != "" {
		return 0, fmt.Errorf("%w: %q is not a hex color", shared.ErrInvalidInput, s)
	}
	if len(h) == 9 {
		h = h[:7]
	}

	c, err := colorful.Hex(strings.ToLower(h))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a hex color", shared.ErrInvalidInput, s)
	}
	r, g, b := c.RGB255()
	return RGB(int(r), int(g), int(b)), nil
}

// MustParseHex is [ParseHex] for constants. It panics on malformed input.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Channels returns the red, green and blue components.
func (c Color) Channels() (r, g, b int) {
	return int(c>>16) & 0xff, int(c>>8) & 0xff, int(c) & 0xff
}

// Int returns the integer form, 0 to 0xFFFFFF.
func (c Color) Int() int { return int(c) & 0xffffff }

// Hex returns the lowercase "#rrggbb" form.
func (c Color) Hex() string {
	return c.colorful().Hex()
}

func (c Color) String() string { return c.Hex() }

func (c Color) colorful() colorful.Color {
	r, g, b := c.Channels()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return RGB(int(r), int(g), int(b))
}

// Brighten maps every channel to floor(ch*factor + offset).
func Brighten(c Color, factor, offset float64) Color {
	return c.mapChannels(func(ch int) int {
		return int(math.Floor(float64(ch)*factor + offset))
	})
}

// Complement inverts every channel. Applying it twice returns the input.
func Complement(c Color) Color {
	return c.mapChannels(func(ch int) int { return 255 - ch })
}

// SoftComplement inverts every channel and blends it toward the middle for legible button contrast.
func SoftComplement(c Color) Color {
	return c.mapChannels(func(ch int) int {
		return int(math.Floor(float64(255-ch)*softScale + softOffset))
	})
}

// Adjust adds amount to every channel.
func Adjust(c Color, amount int) Color {
	return c.mapChannels(func(ch int) int { return ch + amount })
}

// RGBA formats the color as a CSS rgba() value.
func RGBA(c Color, alpha float64) string {
	r, g, b := c.Channels()
	alpha = math.Max(0, math.Min(1, alpha))
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, trimFloat(alpha))
}

// Lightness returns the CIE L* lightness in [0,1].
func (c Color) Lightness() float64 {
	l, _, _ := c.colorful().Lab()
	return l
}

// Blend mixes c toward other in Lab space; t=0 is c and t=1 is other.
func Blend(c, other Color, t float64) Color {
	t = math.Max(0, math.Min(1, t))
	return fromColorful(c.colorful().BlendLab(other.colorful(), t))
}

// Gradient returns steps colors evenly spaced from start to end, inclusive.
func Gradient(start, end Color, steps int) []Color {
	if steps <= 0 {
		return nil
	}
	if steps == 1 {
		return []Color{start}
	}
	out := make([]Color, steps)
	for i := range steps {
		out[i] = Blend(start, end, float64(i)/float64(steps-1))
	}
	out[steps-1] = end
	return out
}

func (c Color) mapChannels(fn func(int) int) Color {
	r, g, b := c.Channels()
	return RGB(fn(r), fn(g), fn(b))
}

func clamp(v int) Color {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return Color(v)
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	if s == "" {
		return "0"
	}
	return s
}
