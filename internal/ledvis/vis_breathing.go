package ledvis

import (
	"math"

	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/internal/smooth"
)

// Breathing expands and contracts a glow around the center. The radius is
// carried by a critically damped spring so audio pushes never overshoot.
type Breathing struct {
	radius smooth.Spring
	level  smooth.AsymmetricFollower
	hop    smooth.HopGate

	rmsTarget float64
}

// NewBreathing creates a new Breathing effect.
func NewBreathing() *Breathing {
	return &Breathing{}
}

// Init implements effect.Effect.
func (b *Breathing) Init(ctx *effect.Context) bool {
	if ctx.HalfLength() < 1 {
		return false
	}
	b.radius = smooth.NewSpring(40, 1)
	b.level = smooth.NewAsymmetricFollower(0, 0.08, 0.6)
	b.hop.Reset()
	b.rmsTarget = 0
	return true
}

// Render implements effect.Effect.
func (b *Breathing) Render(ctx *effect.Context) {
	dt := ctx.DeltaSeconds()
	half := float64(ctx.HalfLength())

	if ctx.Audio.Available {
		if b.hop.Advance(ctx.Audio.HopSeq) {
			b.rmsTarget = ctx.Audio.RMS
		}
	} else {
		b.rmsTarget = 0
	}
	b.level.UpdateWithMood(b.rmsTarget, dt, ctx.MoodNorm())

	// 0.1 Hz at the slowest, 0.5 Hz at the fastest.
	rate := 0.1 + 0.4*ctx.SpeedNorm()
	breath := (ctx.Sine(rate) + 1) / 2

	target := half * (0.25 + 0.55*breath + 0.35*b.level.Value)
	radius := math.Max(1, math.Min(half, b.radius.Update(target, dt)))

	for d := 0; d < ctx.HalfLength(); d++ {
		x := float64(d) / radius
		var v float64
		if x < 1 {
			v = 1 - x*x
		} else {
			// Soft tail past the edge.
			v = math.Max(0, 0.15-(x-1)*0.3)
		}

		brightness := led.Scale8(led.Unit8(v), ctx.Brightness)
		ctx.SetCenterPair(d, ctx.Color(uint8(d*2), brightness))
	}
}

// Cleanup implements effect.Effect.
func (b *Breathing) Cleanup() {}

// Metadata implements effect.Effect.
func (b *Breathing) Metadata() effect.Metadata {
	return effect.Metadata{
		Name:        "Breathing",
		Description: "A slow glow swelling from the center, pushed wider by loudness",
		Category:    effect.Ambient,
		Version:     1,
	}
}
