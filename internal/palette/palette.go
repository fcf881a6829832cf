// Package palette provides the 16-entry gradient palettes effects draw their
// colors from.
package palette

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"libdb.so/lightwave/internal/led"
)

// Size is the number of entries in a palette.
const Size = 16

// Palette is a precomputed 16-entry gradient. Lookups interpolate linearly
// between neighboring entries and wrap around at the end.
type Palette struct {
	name    string
	entries [Size]led.RGBColor
}

// New creates a palette from a list of hex color stops. The stops are spread
// evenly across the palette and blended in HCL space.
func New(name string, stops ...string) (*Palette, error) {
	if len(stops) == 0 {
		return nil, errors.New("palette needs at least one color stop")
	}

	colors := make([]colorful.Color, len(stops))
	for i, stop := range stops {
		c, err := colorful.Hex(stop)
		if err != nil {
			return nil, errors.Wrapf(err, "palette %q: invalid stop %q", name, stop)
		}
		colors[i] = c
	}

	p := &Palette{name: name}
	for i := range p.entries {
		p.entries[i] = led.FromColorful(gradientAt(colors, float64(i)/float64(Size-1)))
	}
	return p, nil
}

// FromEntries creates a palette from exactly Size colors.
func FromEntries(name string, entries [Size]led.RGBColor) *Palette {
	return &Palette{name: name, entries: entries}
}

func gradientAt(colors []colorful.Color, t float64) colorful.Color {
	if len(colors) == 1 {
		return colors[0]
	}

	pos := t * float64(len(colors)-1)
	i := int(pos)
	if i >= len(colors)-1 {
		return colors[len(colors)-1]
	}
	return colors[i].BlendHcl(colors[i+1], pos-float64(i)).Clamped()
}

// Name returns the palette name.
func (p *Palette) Name() string { return p.name }

// Entry returns the raw palette entry i modulo Size.
func (p *Palette) Entry(i int) led.RGBColor {
	return p.entries[((i%Size)+Size)%Size]
}

// Color returns the color at index (0-255 around the palette) scaled by
// brightness.
func (p *Palette) Color(index, brightness uint8) led.RGBColor {
	hi := index >> 4
	lo := index & 0x0F

	c := p.entries[hi]
	if lo != 0 {
		next := p.entries[(hi+1)%Size]
		c = c.Lerp(next, lo<<4)
	}

	if brightness != 255 {
		c = c.Scale(brightness)
	}
	return c
}

var builtins = map[string][]string{
	"sunset": {"#120458", "#7a04eb", "#ff2975", "#ff901f", "#ffd319"},
	"ocean":  {"#001322", "#00335c", "#0077b6", "#00b4d8", "#90e0ef", "#00335c"},
	"forest": {"#0b1d0e", "#1b4d1f", "#3f8f29", "#a3c940", "#1b4d1f"},
	"lava":   {"#000000", "#5c0000", "#c21500", "#ff5e00", "#ffc300", "#5c0000"},
	"aurora": {"#03071e", "#0b6e4f", "#08a045", "#6bbf59", "#8338ec", "#03071e"},
	"ember":  {"#1a0000", "#800000", "#ff4000", "#800000"},
	"ice":    {"#ffffff", "#caf0f8", "#48cae4", "#0077b6", "#caf0f8"},
	"neon":   {"#ff00a0", "#7a00ff", "#00e5ff", "#00ff85", "#ff00a0"},
}

// Default is the name of the palette used when none is configured.
const Default = "sunset"

// Lookup returns a built-in palette by name.
func Lookup(name string) (*Palette, bool) {
	stops, ok := builtins[name]
	if !ok {
		return nil, false
	}
	p, err := New(name, stops...)
	if err != nil {
		// Built-in stops are constants.
		panic(err)
	}
	return p, true
}

// MustLookup is like Lookup, but panics if the palette does not exist.
func MustLookup(name string) *Palette {
	p, ok := Lookup(name)
	if !ok {
		panic("palette: unknown palette " + name)
	}
	return p
}

// Names returns the sorted names of all built-in palettes.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
