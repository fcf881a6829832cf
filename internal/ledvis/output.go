package ledvis

import (
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
)

// radialBuffer is a half-strip buffer indexed by distance from the center.
// Effects accumulate into it across frames and blit it onto the mirrored
// center pairs.
type radialBuffer struct {
	leds led.LEDs
}

func (o *radialBuffer) reset(ctx *effect.Context) {
	if len(o.leds) != ctx.HalfLength() {
		o.leds = led.NewLEDs(ctx.HalfLength())
	} else {
		o.leds.Clear()
	}
}

// addFalloff adds c around distance center with a linear falloff over width
// LEDs on either side.
func (o *radialBuffer) addFalloff(center, width float64, c led.RGBColor) {
	if width <= 0 {
		width = 1
	}
	lo := int(center - width)
	hi := int(center+width) + 1
	for d := max(lo, 0); d < min(hi, len(o.leds)); d++ {
		dist := float64(d) - center
		if dist < 0 {
			dist = -dist
		}
		falloff := 1 - dist/width
		if falloff <= 0 {
			continue
		}
		o.leds.Add(d, c.Scale(led.Unit8(falloff)))
	}
}

// blit writes the buffer onto both strips scaled by the global brightness.
func (o *radialBuffer) blit(ctx *effect.Context) {
	for d, c := range o.leds {
		ctx.SetCenterPair(d, c.Scale(ctx.Brightness))
	}
}
