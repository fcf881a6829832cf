package ledvis

import (
	"math"

	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/internal/smooth"
)

const (
	maxRipples = 8

	// rippleFade is how much of the radial trail fades per frame.
	rippleFade = 45
	// rippleFloor is the intensity below which a ripple is dropped.
	rippleFloor = 0.02
	// rippleWidth is the half width of a wavefront in LEDs.
	rippleWidth = 3.0

	// rippleCooldown is the minimum time between audio-driven spawns.
	rippleCooldown = 0.12
	// rippleIdleSpawn is the spawn interval without audio at default speed.
	rippleIdleSpawn = 0.9
	// rippleQuietLimit is the longest the effect stays dark with audio
	// present before it spawns anyway.
	rippleQuietLimit = 2.5

	noveltyThreshold = 0.015
	kickThreshold    = 0.45
	kickSpawn        = 0.5
)

type ripple struct {
	active    bool
	radius    float64 // LEDs from center
	speed     float64 // LEDs per second
	intensity float64 // 0..1
	decay     float64 // 1/seconds
	hue       uint8
}

// Ripple spawns rings that travel outward from the center. Spawns follow
// chroma novelty and bass kicks; without audio it spawns on a timer.
type Ripple struct {
	ripples [maxRipples]ripple
	trail   radialBuffer

	hop     smooth.HopGate
	chroma  smooth.RollingAverage
	energy  smooth.AsymmetricFollower
	treble  smooth.AsymmetricFollower
	kick    smooth.ExpDecay
	novelty float64

	// latest hop targets
	energyTarget float64
	trebleTarget float64

	cooldown   float64
	sinceSpawn float64
	rand       noiseRand
}

// NewRipple creates a new Ripple effect.
func NewRipple() *Ripple {
	return &Ripple{}
}

// Init implements effect.Effect.
func (r *Ripple) Init(ctx *effect.Context) bool {
	if ctx.HalfLength() < 2 {
		return false
	}

	r.ripples = [maxRipples]ripple{}
	r.trail.reset(ctx)
	r.hop.Reset()
	r.chroma = smooth.NewRollingAverage(smooth.DefaultHistory)
	r.energy = smooth.NewAsymmetricFollower(0, 0.05, 0.30)
	r.treble = smooth.NewAsymmetricFollower(0, 0.02, 0.15)
	r.kick = smooth.NewExpDecayHalfLife(0.12)
	r.novelty = 0
	r.energyTarget = 0
	r.trebleTarget = 0
	r.cooldown = 0
	r.sinceSpawn = 0
	r.rand = noiseRand(0x5EED + uint32(ctx.ZoneID))
	return true
}

// Render implements effect.Effect.
func (r *Ripple) Render(ctx *effect.Context) {
	dt := ctx.DeltaSeconds()
	mood := ctx.MoodNorm()
	audio := &ctx.Audio

	r.cooldown = math.Max(0, r.cooldown-dt)
	r.sinceSpawn += dt

	if audio.Available && r.hop.Advance(audio.HopSeq) {
		r.onHop(ctx)
	}

	if audio.Available {
		r.energy.UpdateWithMood(r.energyTarget, dt, mood)
		r.treble.UpdateWithMood(r.trebleTarget, dt, mood)
	} else {
		r.energy.Update(0, dt)
		r.treble.Update(0, dt)
	}
	r.kick.Update(dt)

	switch {
	case !audio.Available && r.sinceSpawn >= r.idleInterval(ctx):
		r.spawn(ctx, 0.55+0.35*r.rand.float())
	case audio.Available && r.sinceSpawn >= rippleQuietLimit:
		r.spawn(ctx, 0.4)
	}

	r.step(ctx, dt)
	r.draw(ctx)
}

// onHop recomputes audio targets. It runs once per analysis hop.
func (r *Ripple) onHop(ctx *effect.Context) {
	audio := &ctx.Audio

	r.energyTarget = audio.ChromaEnergy()
	r.trebleTarget = audio.Treble()
	_, r.novelty = r.chroma.Push(r.energyTarget)

	if bass := audio.Bass(); bass > kickThreshold || audio.OnBeat {
		r.kick.Trigger(math.Max(bass, 0.6))
	}

	if r.cooldown > 0 {
		return
	}

	// A strong kick spawns a full strength ring ahead of anything the
	// chroma history would pick up.
	if r.kick.Value > kickSpawn {
		if r.spawn(ctx, 1) {
			r.cooldown = rippleCooldown
		}
		return
	}

	// Onsets always spawn. Novelty spawns with a probability that grows
	// with how far the chroma energy jumped above its recent average.
	chance := r.novelty * 12 * (0.5 + ctx.IntensityNorm())
	if audio.OnBeat || (r.novelty > noveltyThreshold && r.rand.float() < chance) {
		strength := 0.5 + math.Min(0.5, r.novelty*8+r.kick.Value*0.3)
		r.spawn(ctx, strength)
		r.cooldown = rippleCooldown
	}
}

func (r *Ripple) idleInterval(ctx *effect.Context) float64 {
	return rippleIdleSpawn * (1.5 - ctx.SpeedNorm())
}

// spawn starts a ring in a free slot. When every slot is taken the spawn is
// dropped; rings in flight are never restarted.
func (r *Ripple) spawn(ctx *effect.Context, intensity float64) bool {
	r.sinceSpawn = 0

	slot := -1
	for i := range r.ripples {
		if !r.ripples[i].active {
			slot = i
			break
		}
	}
	if slot < 0 {
		return false
	}

	half := float64(ctx.HalfLength())
	speed := half * (0.35 + 1.2*ctx.SpeedNorm()) * (0.8 + 0.4*r.rand.float())

	r.ripples[slot] = ripple{
		active:    true,
		radius:    0,
		speed:     speed,
		intensity: math.Min(1, intensity),
		decay:     0.8 + 0.8*(1-ctx.IntensityNorm()),
		hue:       uint8(r.rand.next()),
	}
	return true
}

func (r *Ripple) step(ctx *effect.Context, dt float64) {
	edge := float64(ctx.HalfLength()) + rippleWidth
	for i := range r.ripples {
		rp := &r.ripples[i]
		if !rp.active {
			continue
		}
		rp.radius += rp.speed * dt
		rp.intensity *= math.Exp(-rp.decay * dt)
		if rp.radius > edge || rp.intensity < rippleFloor {
			rp.active = false
		}
	}
}

func (r *Ripple) draw(ctx *effect.Context) {
	r.trail.leds.FadeToBlackBy(rippleFade)

	lift := 0.6 + 0.4*r.energy.Value
	for i := range r.ripples {
		rp := &r.ripples[i]
		if !rp.active {
			continue
		}

		c := ctx.Color(rp.hue+uint8(rp.radius), led.Unit8(rp.intensity*lift))
		r.trail.addFalloff(rp.radius, rippleWidth, c)

		if r.treble.Value > 0.05 {
			shimmer := ctx.Color(rp.hue+128, led.Unit8(r.treble.Value*rp.intensity))
			r.trail.leds.Add(int(rp.radius), shimmer)
		}
	}

	if r.kick.Value > 0 {
		glow := ctx.Color(0, led.Unit8(r.kick.Value))
		r.trail.addFalloff(0, 1+r.kick.Value*6, glow)
	}

	r.trail.blit(ctx)
}

// Cleanup implements effect.Effect.
func (r *Ripple) Cleanup() {
	r.trail.leds = nil
}

// Metadata implements effect.Effect.
func (r *Ripple) Metadata() effect.Metadata {
	return effect.Metadata{
		Name:        "Ripple",
		Description: "Rings spawned by chroma novelty and kicks travel outward from the center",
		Category:    effect.Water,
		Version:     2,
	}
}

// ActiveRipples returns the number of rings currently traveling.
func (r *Ripple) ActiveRipples() int {
	var n int
	for _, rp := range r.ripples {
		if rp.active {
			n++
		}
	}
	return n
}
