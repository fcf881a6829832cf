package ledvis

import (
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/internal/smooth"
)

// pulseIdleBPM is the tempo Pulse keeps when there is no audio.
const pulseIdleBPM = 72

// Pulse glows the whole strip with the smoothed loudness and flashes on
// every beat. The flash is brightest at the center.
type Pulse struct {
	hop   smooth.HopGate
	level smooth.AsymmetricFollower
	flash smooth.ExpDecay

	rmsTarget float64
	idleBeat  float64 // seconds until the next idle beat
}

// NewPulse creates a new Pulse effect.
func NewPulse() *Pulse {
	return &Pulse{}
}

// Init implements effect.Effect.
func (p *Pulse) Init(ctx *effect.Context) bool {
	if ctx.HalfLength() < 1 {
		return false
	}
	p.hop.Reset()
	p.level = smooth.NewAsymmetricFollower(0, 0.03, 0.25)
	p.flash = smooth.NewExpDecay(6)
	p.rmsTarget = 0
	p.idleBeat = 0
	return true
}

// Render implements effect.Effect.
func (p *Pulse) Render(ctx *effect.Context) {
	dt := ctx.DeltaSeconds()
	audio := &ctx.Audio

	if audio.Available {
		if p.hop.Advance(audio.HopSeq) {
			p.rmsTarget = audio.RMS
		}
		if audio.OnDownbeat {
			p.flash.Trigger(1)
		} else if audio.OnBeat {
			p.flash.Trigger(0.7)
		}
	} else {
		p.rmsTarget = 0.15
		p.idleBeat -= dt
		if p.idleBeat <= 0 {
			p.flash.Trigger(0.6)
			p.idleBeat = 60.0 / pulseIdleBPM
		}
	}

	level := p.level.UpdateWithMood(p.rmsTarget, dt, ctx.MoodNorm())
	flash := p.flash.Update(dt)

	for d := 0; d < ctx.HalfLength(); d++ {
		falloff := 1 - ctx.NormalizedDistance(ctx.CenterPoint+d)*0.7
		v := level*0.6 + flash*falloff
		brightness := led.Scale8(led.Unit8(v), ctx.Brightness)
		ctx.SetCenterPair(d, ctx.Color(uint8(d)+uint8(flash*64), brightness))
	}
}

// Cleanup implements effect.Effect.
func (p *Pulse) Cleanup() {}

// Metadata implements effect.Effect.
func (p *Pulse) Metadata() effect.Metadata {
	return effect.Metadata{
		Name:        "Pulse",
		Description: "Glows with loudness and flashes on every beat",
		Category:    effect.Party,
		Version:     1,
	}
}
