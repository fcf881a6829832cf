package ledvis

import (
	"math"

	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/internal/smooth"
)

// Spectrum glows each LED with the level of its frequency band. Low bands
// sit at the center and high bands at the edges. Peaks are held and decay
// slowly.
type Spectrum struct {
	hop     smooth.HopGate
	bands   [effect.NumBands]smooth.AsymmetricFollower
	peaks   [effect.NumBands]smooth.ExpDecay
	targets [effect.NumBands]float64
}

// NewSpectrum creates a new Spectrum effect.
func NewSpectrum() *Spectrum {
	return &Spectrum{}
}

// Init implements effect.Effect.
func (s *Spectrum) Init(ctx *effect.Context) bool {
	if ctx.HalfLength() < effect.NumBands {
		return false
	}
	s.hop.Reset()
	for i := range s.bands {
		s.bands[i] = smooth.NewAsymmetricFollower(0, 0.04, 0.25)
		s.peaks[i] = smooth.NewExpDecayHalfLife(0.5)
		s.targets[i] = 0
	}
	return true
}

// Render implements effect.Effect.
func (s *Spectrum) Render(ctx *effect.Context) {
	dt := ctx.DeltaSeconds()
	mood := ctx.MoodNorm()

	if ctx.Audio.Available {
		if s.hop.Advance(ctx.Audio.HopSeq) {
			s.targets = ctx.Audio.Bands
		}
	} else {
		// Drift on slow, detuned sines so the strip is never dead.
		for i := range s.targets {
			hz := 0.11 + 0.07*float64(i)
			s.targets[i] = 0.3 + 0.25*ctx.Sine(hz)
		}
	}

	for i := range s.bands {
		v := s.bands[i].UpdateWithMood(s.targets[i], dt, mood)
		s.peaks[i].Update(dt)
		s.peaks[i].Trigger(v)
	}

	half := ctx.HalfLength()
	perBand := float64(half) / effect.NumBands

	for d := 0; d < half; d++ {
		band := min(int(float64(d)/perBand), effect.NumBands-1)
		pos := float64(d)/perBand - float64(band) // 0..1 within the band

		level := s.bands[band].Value
		peak := s.peaks[band].Value

		// Each band lights from its inner edge outward, proportional to its
		// level, with the held peak marked at its position.
		v := 0.15 * level
		if pos <= level {
			v = level
		}
		if math.Abs(pos-peak) < 1/perBand {
			v = math.Max(v, 0.8*peak)
		}

		brightness := led.Scale8(led.Unit8(v), ctx.Brightness)
		ctx.SetCenterPair(d, ctx.Color(uint8(band*32), brightness))
	}
}

// Cleanup implements effect.Effect.
func (s *Spectrum) Cleanup() {}

// Metadata implements effect.Effect.
func (s *Spectrum) Metadata() effect.Metadata {
	return effect.Metadata{
		Name:        "Spectrum",
		Description: "Mirrored band meter with bass at the center and held peaks",
		Category:    effect.Geometric,
		Version:     1,
	}
}
