package zone

import (
	"encoding"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"libdb.so/lightwave/internal/led"
)

// BlendMode is how a zone's pixels combine with what is already in the
// output buffer.
type BlendMode uint8

const (
	// Overwrite replaces the output.
	Overwrite BlendMode = iota
	// Additive adds channels, saturating at 255.
	Additive
	// Alpha mixes zone and output half and half.
	Alpha
	// Multiply darkens the output by the zone.
	Multiply
	// Screen brightens the output by the zone.
	Screen
	// Lighten keeps the brighter channel.
	Lighten
	// Darken keeps the darker channel.
	Darken
)

var blendNames = [...]string{
	Overwrite: "overwrite",
	Additive:  "additive",
	Alpha:     "alpha",
	Multiply:  "multiply",
	Screen:    "screen",
	Lighten:   "lighten",
	Darken:    "darken",
}

var (
	_ encoding.TextUnmarshaler = (*BlendMode)(nil)
	_ encoding.TextMarshaler   = Overwrite
)

func (m BlendMode) String() string {
	if int(m) < len(blendNames) {
		return blendNames[m]
	}
	return fmt.Sprintf("BlendMode(%d)", m)
}

// UnmarshalText parses a blend mode name.
func (m *BlendMode) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range blendNames {
		if n == name {
			*m = BlendMode(i)
			return nil
		}
	}
	return errors.Errorf("unknown blend mode %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Blend combines src onto dst.
func (m BlendMode) Blend(dst, src led.RGBColor) led.RGBColor {
	switch m {
	case Overwrite:
		return src
	case Additive:
		return dst.Add(src)
	case Alpha:
		return dst.Lerp(src, 128)
	}

	var out led.RGBColor
	for i := range out {
		d, s := dst[i], src[i]
		switch m {
		case Multiply:
			out[i] = uint8(uint16(d) * uint16(s) / 255)
		case Screen:
			out[i] = 255 - uint8(uint16(255-d)*uint16(255-s)/255)
		case Lighten:
			out[i] = max(d, s)
		case Darken:
			out[i] = min(d, s)
		default:
			out[i] = s
		}
	}
	return out
}
