// Package ledvis contains the built-in effects. Every effect draws outward
// from the center pair and mirrors both strips, and every effect keeps
// animating when no audio is available.
package ledvis

import "libdb.so/lightwave/internal/effect"

// Built-in effect IDs.
const (
	RippleID effect.ID = iota
	BreathingID
	PulseID
	SpectrumID
)

// Register registers all built-in effects.
func Register(r *effect.Registry) error {
	effects := []struct {
		id      effect.ID
		factory effect.Factory
	}{
		{RippleID, func() effect.Effect { return NewRipple() }},
		{BreathingID, func() effect.Effect { return NewBreathing() }},
		{PulseID, func() effect.Effect { return NewPulse() }},
		{SpectrumID, func() effect.Effect { return NewSpectrum() }},
	}

	for _, e := range effects {
		if err := r.Register(e.id, e.factory); err != nil {
			return err
		}
	}

	return nil
}

// NewRegistry returns a registry with all built-in effects.
func NewRegistry() *effect.Registry {
	r := effect.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}

// noiseRand is a tiny xorshift generator. Effects use it so Render never
// allocates and runs are reproducible.
type noiseRand uint32

func (r *noiseRand) next() uint32 {
	x := uint32(*r)
	if x == 0 {
		x = 0x9E3779B9
	}
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	*r = noiseRand(x)
	return x
}

// float returns a number in [0, 1).
func (r *noiseRand) float() float64 {
	return float64(r.next()>>8) / (1 << 24)
}
