package effect

import (
	"math"

	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/internal/smooth"
)

// NoZone is the ZoneID of a full-strip render.
const NoZone uint8 = 0xFF

// Palette is the color source effects draw from. Index wraps around the
// palette; brightness scales the result.
type Palette interface {
	Color(index, brightness uint8) led.RGBColor
}

// Params are the global user dials. All of them span 0..255.
type Params struct {
	Brightness uint8
	Speed      uint8
	Intensity  uint8
	Saturation uint8
	Complexity uint8
	Variation  uint8
	// Mood moves smoothing from reactive (0) to smooth (255).
	Mood uint8
}

// DefaultParams are the dial positions used when nothing is configured.
var DefaultParams = Params{
	Brightness: 192,
	Speed:      128,
	Intensity:  128,
	Saturation: 255,
	Complexity: 128,
	Variation:  0,
	Mood:       128,
}

// Unit converts a dial into [0, 1].
func Unit(v uint8) float64 {
	return float64(v) / 255
}

// Context is everything an effect sees during a frame. It is owned by the
// scheduler and reused between frames; effects must not retain it.
type Context struct {
	// LEDs is the output buffer. It spans both strips: strip 2 starts at
	// StripLength().
	LEDs led.LEDs
	// CenterPoint is the index of the first LED right of the center on
	// strip 1. Distance 0 is the pair CenterPoint-1 and CenterPoint.
	CenterPoint int

	Palette Palette
	// Hue is a slowly advancing palette offset shared by all effects.
	Hue uint8

	Params

	DeltaTimeMs uint32 // clamped
	TotalTimeMs uint32
	FrameNumber uint32

	ZoneID     uint8
	ZoneStart  int
	ZoneLength int

	Audio AudioContext
}

// LEDCount returns the length of the output buffer.
func (c *Context) LEDCount() int { return len(c.LEDs) }

// HalfLength returns the number of LEDs on each side of the center.
func (c *Context) HalfLength() int { return c.CenterPoint }

// StripLength returns the length of a single strip.
func (c *Context) StripLength() int { return 2 * c.CenterPoint }

// IsZoneRender returns true if the effect is rendering into a zone.
func (c *Context) IsZoneRender() bool { return c.ZoneID != NoZone }

// DeltaSeconds returns the frame delta in seconds, clamped for integrators.
func (c *Context) DeltaSeconds() float64 {
	return smooth.SafeDelta(float64(c.DeltaTimeMs))
}

// MoodNorm returns the mood dial in [0, 1].
func (c *Context) MoodNorm() float64 { return Unit(c.Mood) }

// SpeedNorm returns the speed dial in [0, 1].
func (c *Context) SpeedNorm() float64 { return Unit(c.Speed) }

// IntensityNorm returns the intensity dial in [0, 1].
func (c *Context) IntensityNorm() float64 { return Unit(c.Intensity) }

// Color looks up the palette at index offset by the global hue and scales it
// by brightness.
func (c *Context) Color(index, brightness uint8) led.RGBColor {
	if c.Palette == nil {
		return led.RGBColor{brightness, brightness, brightness}
	}
	return c.Palette.Color(index+c.Hue, brightness)
}

// stripLocal maps any buffer index into the first strip.
func (c *Context) stripLocal(i int) int {
	n := c.StripLength()
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// CenterDistance returns how many LEDs i is away from the center pair. Both
// LEDs of the innermost pair are at distance 0. Indices on strip 2 measure
// against strip 2's center.
func (c *Context) CenterDistance(i int) int {
	local := c.stripLocal(i)
	if local >= c.CenterPoint {
		return local - c.CenterPoint
	}
	return c.CenterPoint - 1 - local
}

// NormalizedDistance returns CenterDistance scaled to 0 at the center and 1
// at the outermost LED.
func (c *Context) NormalizedDistance(i int) float64 {
	if c.CenterPoint <= 1 {
		return 0
	}
	return float64(c.CenterDistance(i)) / float64(c.CenterPoint-1)
}

// SignedPosition is like NormalizedDistance, but negative left of the center.
func (c *Context) SignedPosition(i int) float64 {
	d := c.NormalizedDistance(i)
	if c.stripLocal(i) < c.CenterPoint {
		return -d
	}
	return d
}

// MirrorIndex returns the index mirrored across the center of the same
// strip.
func (c *Context) MirrorIndex(i int) int {
	n := c.StripLength()
	if n == 0 {
		return i
	}
	local := c.stripLocal(i)
	return i - local + (n - 1 - local)
}

// PairIndices returns the two strip 1 indices at distance d from the center.
func (c *Context) PairIndices(d int) (left, right int) {
	return c.CenterPoint - 1 - d, c.CenterPoint + d
}

// SetCenterPair sets both LEDs at distance d on both strips.
func (c *Context) SetCenterPair(d int, color led.RGBColor) {
	c.SetCenterPairs(d, color, color)
}

// SetCenterPairs sets the pair at distance d to c1 on strip 1 and c2 on
// strip 2.
func (c *Context) SetCenterPairs(d int, c1, c2 led.RGBColor) {
	if d < 0 || d >= c.CenterPoint {
		return
	}
	left, right := c.PairIndices(d)
	n := c.StripLength()
	c.LEDs.Set(left, c1)
	c.LEDs.Set(right, c1)
	c.LEDs.Set(left+n, c2)
	c.LEDs.Set(right+n, c2)
}

// AddCenterPair adds color onto both LEDs at distance d on both strips,
// saturating.
func (c *Context) AddCenterPair(d int, color led.RGBColor) {
	if d < 0 || d >= c.CenterPoint {
		return
	}
	left, right := c.PairIndices(d)
	n := c.StripLength()
	c.LEDs.Add(left, color)
	c.LEDs.Add(right, color)
	c.LEDs.Add(left+n, color)
	c.LEDs.Add(right+n, color)
}

// Phase returns the phase in [0, 1) of an oscillator running at hz since the
// scheduler started.
func (c *Context) Phase(hz float64) float64 {
	_, frac := math.Modf(float64(c.TotalTimeMs) / 1000 * hz)
	if frac < 0 {
		frac++
	}
	return frac
}

// Sine returns sin(2*pi*Phase(hz)).
func (c *Context) Sine(hz float64) float64 {
	return math.Sin(2 * math.Pi * c.Phase(hz))
}
