// Package smooth implements the frame-rate independent smoothing primitives
// used by audio-reactive effects.
//
// All primitives take the elapsed frame time in seconds and use the exact
// exponential form alpha = 1 - exp(-dt/tau), so the same time constant gives
// the same response at 60 or 120 frames per second.
package smooth

import (
	"math"
	"time"
)

const (
	// MinDelta is the smallest frame delta the primitives will integrate.
	MinDelta = time.Millisecond
	// MaxDelta is the largest frame delta the primitives will integrate.
	// Anything larger is treated as a stall and clamped so the integrators
	// do not jump.
	MaxDelta = 50 * time.Millisecond
)

// minTau is substituted for non-positive time constants.
const minTau = 1e-4

// SafeDelta converts a frame delta in milliseconds into seconds, clamped to
// [MinDelta, MaxDelta].
func SafeDelta(ms float64) float64 {
	if ms != ms {
		return MinDelta.Seconds()
	}
	s := ms / 1000
	return math.Max(MinDelta.Seconds(), math.Min(MaxDelta.Seconds(), s))
}

// Alpha returns the smoothing coefficient for a time constant tau after dt
// seconds.
func Alpha(dt, tau float64) float64 {
	if dt <= 0 {
		return 0
	}
	if tau <= 0 || tau != tau {
		tau = minTau
	}
	return 1 - math.Exp(-dt/tau)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// AsymmetricFollower tracks a target with separate attack (rise) and release
// (fall) time constants.
type AsymmetricFollower struct {
	Value   float64
	RiseTau float64 // seconds
	FallTau float64 // seconds
}

// NewAsymmetricFollower creates a follower starting at initial.
func NewAsymmetricFollower(initial, riseTau, fallTau float64) AsymmetricFollower {
	return AsymmetricFollower{
		Value:   initial,
		RiseTau: riseTau,
		FallTau: fallTau,
	}
}

// Update moves the value towards target and returns the new value.
func (f *AsymmetricFollower) Update(target, dt float64) float64 {
	return f.update(target, dt, f.RiseTau, f.FallTau)
}

// UpdateWithMood is like Update, but stretches both time constants by the
// mood dial in [0, 1]: 0 is reactive, 1 is smooth.
func (f *AsymmetricFollower) UpdateWithMood(target, dt, mood float64) float64 {
	mood = clamp01(mood)
	rise := f.RiseTau * (1 + mood*0.5)
	fall := f.FallTau * (0.6 + mood*0.8)
	return f.update(target, dt, rise, fall)
}

func (f *AsymmetricFollower) update(target, dt, rise, fall float64) float64 {
	if !isFinite(target) {
		return f.Value
	}
	if !isFinite(f.Value) {
		f.Value = target
		return f.Value
	}

	tau := fall
	if target > f.Value {
		tau = rise
	}

	f.Value += (target - f.Value) * Alpha(dt, tau)
	return f.Value
}

// Reset sets the value directly.
func (f *AsymmetricFollower) Reset(value float64) {
	f.Value = value
}

// ExpDecay is a percussive envelope: it snaps up on Trigger and decays
// exponentially towards zero.
type ExpDecay struct {
	Value  float64
	Lambda float64 // 1/seconds
}

// decayFloor is the value below which a decaying envelope is snapped to zero.
const decayFloor = 1e-4

// NewExpDecay creates a decay with the given rate in 1/seconds.
func NewExpDecay(lambda float64) ExpDecay {
	return ExpDecay{Lambda: lambda}
}

// NewExpDecayHalfLife creates a decay that halves every halfLife seconds.
func NewExpDecayHalfLife(halfLife float64) ExpDecay {
	if halfLife <= 0 {
		halfLife = minTau
	}
	return ExpDecay{Lambda: math.Ln2 / halfLife}
}

// Trigger raises the value to strength. It never lowers the value.
func (d *ExpDecay) Trigger(strength float64) {
	if !isFinite(strength) {
		return
	}
	if strength > d.Value {
		d.Value = strength
	}
}

// Update decays the value towards zero and returns it.
func (d *ExpDecay) Update(dt float64) float64 {
	if !isFinite(d.Value) {
		d.Value = 0
	}
	if dt <= 0 || d.Value == 0 {
		return d.Value
	}
	d.Value *= math.Exp(-math.Max(d.Lambda, 0) * dt)
	if math.Abs(d.Value) < decayFloor {
		d.Value = 0
	}
	return d.Value
}

// Toward moves the value towards target with the decay rate as the smoothing
// speed.
func (d *ExpDecay) Toward(target, dt float64) float64 {
	if !isFinite(target) {
		return d.Value
	}
	if !isFinite(d.Value) {
		d.Value = target
		return d.Value
	}
	if dt <= 0 {
		return d.Value
	}
	d.Value = target + (d.Value-target)*math.Exp(-math.Max(d.Lambda, 0)*dt)
	return d.Value
}

// Reset sets the value directly.
func (d *ExpDecay) Reset(value float64) {
	d.Value = value
}

func clamp01(f float64) float64 {
	switch {
	case f != f || f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
