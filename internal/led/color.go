package led

import (
	"encoding"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// RGBColor is a 24-bit color in wire order.
type RGBColor [3]uint8

var (
	_ encoding.TextUnmarshaler = (*RGBColor)(nil)
	_ encoding.TextMarshaler   = RGBColor{}
)

// RGB creates a new RGBColor.
func RGB(r, g, b uint8) RGBColor {
	return RGBColor{r, g, b}
}

// FromColorful converts a go-colorful color, clamping it into gamut first.
func FromColorful(c colorful.Color) RGBColor {
	r, g, b := c.Clamped().RGB255()
	return RGBColor{r, g, b}
}

// Colorful converts the color into a go-colorful color.
func (c RGBColor) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c[0]) / 255,
		G: float64(c[1]) / 255,
		B: float64(c[2]) / 255,
	}
}

// R returns the red channel.
func (c RGBColor) R() uint8 { return c[0] }

// G returns the green channel.
func (c RGBColor) G() uint8 { return c[1] }

// B returns the blue channel.
func (c RGBColor) B() uint8 { return c[2] }

// IsBlack returns true if all channels are zero.
func (c RGBColor) IsBlack() bool { return c == RGBColor{} }

// Add returns the channel-wise saturating sum of c and o.
func (c RGBColor) Add(o RGBColor) RGBColor {
	return RGBColor{QAdd8(c[0], o[0]), QAdd8(c[1], o[1]), QAdd8(c[2], o[2])}
}

// Sub returns the channel-wise saturating difference of c and o.
func (c RGBColor) Sub(o RGBColor) RGBColor {
	return RGBColor{QSub8(c[0], o[0]), QSub8(c[1], o[1]), QSub8(c[2], o[2])}
}

// Scale scales each channel by s/256. A scale of 255 keeps the color
// unchanged.
func (c RGBColor) Scale(s uint8) RGBColor {
	return RGBColor{Scale8(c[0], s), Scale8(c[1], s), Scale8(c[2], s)}
}

// Lerp blends c towards o by frac/256.
func (c RGBColor) Lerp(o RGBColor, frac uint8) RGBColor {
	return RGBColor{Lerp8(c[0], o[0], frac), Lerp8(c[1], o[1], frac), Lerp8(c[2], o[2], frac)}
}

// UnmarshalText parses a hex color such as "#ff8800".
func (c *RGBColor) UnmarshalText(text []byte) error {
	col, err := colorful.Hex(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid color %q", text)
	}
	*c = FromColorful(col)
	return nil
}

// MarshalText formats the color as a hex string.
func (c RGBColor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c RGBColor) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
