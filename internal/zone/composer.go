package zone

import (
	"github.com/pkg/errors"
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
)

// Zone configures one ring of the composition.
type Zone struct {
	Effect     effect.ID
	Enabled    bool
	Brightness uint8
	Speed      uint8
	Blend      BlendMode
	// Band limits the audio bands the zone's effect sees.
	Band AudioBand
	// Palette overrides the global palette when set.
	Palette effect.Palette
}

type zoneState struct {
	Zone
	segment  Segment
	instance *effect.Instance
	buffer   led.LEDs
	// ctx is reused every frame so rendering does not allocate.
	ctx effect.Context
}

// Composer renders one effect per zone and blends the zones into a single
// output buffer.
type Composer struct {
	registry *effect.Registry
	zones    []zoneState
}

// NewComposer creates a composer over the given layout. All zones start
// disabled.
func NewComposer(registry *effect.Registry, layout []Segment) *Composer {
	zones := make([]zoneState, len(layout))
	for i, seg := range layout {
		zones[i].segment = seg
	}
	return &Composer{
		registry: registry,
		zones:    zones,
	}
}

// Len returns the number of zones.
func (c *Composer) Len() int { return len(c.zones) }

// Segment returns the layout of zone i.
func (c *Composer) Segment(i int) Segment { return c.zones[i].segment }

// Zone returns the configuration of zone i.
func (c *Composer) Zone(i int) Zone { return c.zones[i].Zone }

// Instance returns the effect instance running in zone i, if any.
func (c *Composer) Instance(i int) *effect.Instance { return c.zones[i].instance }

// SetZone configures zone i. A new effect instance is created and
// initialized when the effect changes. If initialization fails, the zone is
// disabled and the error is returned.
func (c *Composer) SetZone(i int, z Zone, ctx *effect.Context) error {
	if i < 0 || i >= len(c.zones) {
		return errors.Errorf("zone %d out of range", i)
	}

	zs := &c.zones[i]
	if len(zs.buffer) != len(ctx.LEDs) {
		zs.buffer = led.NewLEDs(len(ctx.LEDs))
	}

	if zs.instance == nil || zs.instance.ID() != z.Effect || !zs.instance.Ready() {
		if zs.instance != nil {
			zs.instance.Cleanup()
			zs.instance = nil
		}

		instance, err := c.registry.NewInstance(z.Effect)
		if err != nil {
			zs.Enabled = false
			return errors.Wrapf(err, "zone %d", i)
		}

		zs.buffer.Clear()
		zs.prepare(ctx, z)
		if err := instance.Init(&zs.ctx); err != nil {
			instance.Cleanup()
			zs.Zone = z
			zs.Enabled = false
			return errors.Wrapf(err, "zone %d", i)
		}
		zs.instance = instance
	}

	zs.Zone = z
	return nil
}

// SetEnabled toggles zone i without touching its effect.
func (c *Composer) SetEnabled(i int, enabled bool) {
	if i < 0 || i >= len(c.zones) {
		return
	}
	c.zones[i].Enabled = enabled && c.zones[i].instance != nil
}

// prepare copies the frame context into the zone's own context and applies
// the zone overrides.
func (zs *zoneState) prepare(ctx *effect.Context, z Zone) {
	zs.ctx = *ctx
	zs.ctx.LEDs = zs.buffer
	zs.ctx.ZoneID = zs.segment.ID
	zs.ctx.ZoneStart = zs.segment.LeftStart
	zs.ctx.ZoneLength = zs.segment.Len()
	zs.ctx.Speed = z.Speed
	if z.Palette != nil {
		zs.ctx.Palette = z.Palette
	}
	z.Band.Filter(&zs.ctx.Audio)
}

// Render renders every enabled zone and composites them into ctx.LEDs.
func (c *Composer) Render(ctx *effect.Context) {
	out := ctx.LEDs
	n := ctx.StripLength()

	first := -1
	for i := range c.zones {
		if c.zones[i].active() {
			first = i
			break
		}
	}

	// An overwriting first zone replaces its own segments, so only the rest
	// of the buffer needs clearing.
	if first >= 0 && c.zones[first].Blend == Overwrite {
		for i := range c.zones {
			if i != first {
				clearSegment(out, c.zones[i].segment, n)
			}
		}
	} else {
		out.Clear()
	}

	for i := range c.zones {
		zs := &c.zones[i]
		if !zs.active() {
			continue
		}

		zs.prepare(ctx, zs.Zone)
		if !zs.instance.Render(&zs.ctx) {
			continue
		}

		for _, offset := range [2]int{0, n} {
			zs.composite(out, zs.segment.LeftStart+offset, zs.segment.LeftEnd+offset)
			zs.composite(out, zs.segment.RightStart+offset, zs.segment.RightEnd+offset)
		}
	}
}

func (zs *zoneState) active() bool {
	return zs.Enabled && zs.instance != nil && zs.instance.Ready()
}

func (zs *zoneState) composite(out led.LEDs, start, end int) {
	end = min(end, len(out)-1, len(zs.buffer)-1)
	for i := max(start, 0); i <= end; i++ {
		src := zs.buffer[i]
		if zs.Brightness != 255 {
			src = src.Scale(zs.Brightness)
		}
		out[i] = zs.Blend.Blend(out[i], src)
	}
}

func clearSegment(out led.LEDs, seg Segment, stripLength int) {
	for _, offset := range [2]int{0, stripLength} {
		out.SetRange(seg.LeftStart+offset, seg.LeftEnd+offset+1, led.RGBColor{})
		out.SetRange(seg.RightStart+offset, seg.RightEnd+offset+1, led.RGBColor{})
	}
}

// Cleanup cleans up every zone's effect.
func (c *Composer) Cleanup() {
	for i := range c.zones {
		if c.zones[i].instance != nil {
			c.zones[i].instance.Cleanup()
			c.zones[i].instance = nil
		}
		c.zones[i].Enabled = false
	}
}
