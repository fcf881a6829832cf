package ledvis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/internal/palette"
)

const testHalf = 80

func newContext() *effect.Context {
	return &effect.Context{
		LEDs:        led.NewLEDs(4 * testHalf),
		CenterPoint: testHalf,
		Palette:     palette.MustLookup(palette.Default),
		Params:      effect.DefaultParams,
		ZoneID:      effect.NoZone,
		DeltaTimeMs: 16,
	}
}

func advance(ctx *effect.Context) {
	ctx.FrameNumber++
	ctx.TotalTimeMs += ctx.DeltaTimeMs
	ctx.Hue++
}

// fakeAudio publishes a new hop every other frame with a beat twice per
// second at 60 fps.
func fakeAudio(ctx *effect.Context, rng *noiseRand) {
	frame := ctx.FrameNumber
	a := &ctx.Audio
	a.Available = true
	a.OnBeat = frame%30 == 0
	a.OnDownbeat = frame%120 == 0
	if frame%2 == 0 {
		a.HopSeq++
		a.RMS = rng.float()
		for i := range a.Bands {
			a.Bands[i] = rng.float()
		}
		for i := range a.Chroma {
			a.Chroma[i] = rng.float()
		}
	}
}

func assertSymmetric(t *testing.T, ctx *effect.Context, name string) {
	t.Helper()

	n := ctx.StripLength()
	for d := 0; d < ctx.HalfLength(); d++ {
		left, right := ctx.PairIndices(d)
		if ctx.LEDs[left] != ctx.LEDs[right] {
			t.Fatalf("%s: frame %d: pair %d differs: %v != %v",
				name, ctx.FrameNumber, d, ctx.LEDs[left], ctx.LEDs[right])
		}
		if ctx.LEDs[left] != ctx.LEDs[left+n] || ctx.LEDs[right] != ctx.LEDs[right+n] {
			t.Fatalf("%s: frame %d: strip 2 differs at distance %d", name, ctx.FrameNumber, d)
		}
	}
}

func lit(leds led.LEDs) bool {
	for _, c := range leds {
		if !c.IsBlack() {
			return true
		}
	}
	return false
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Equal(t, []string{"Breathing", "Pulse", "Ripple", "Spectrum"}, r.Names())
	assert.Error(t, Register(r), "registering twice must fail")

	id, ok := r.LookupName("ripple")
	require.True(t, ok)
	assert.Equal(t, RippleID, id)
}

func TestEffectsWithoutAudio(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, id := range r.IDs() {
		in, err := r.NewInstance(id)
		require.NoError(t, err)

		name := in.Metadata().Name
		t.Run(name, func(t *testing.T) {
			ctx := newContext()
			require.NoError(t, in.Init(ctx))
			defer in.Cleanup()

			var litFrames int
			for i := 0; i < 1000; i++ {
				advance(ctx)
				require.True(t, in.Render(ctx))
				assertSymmetric(t, ctx, name)
				if lit(ctx.LEDs) {
					litFrames++
				}
			}

			assert.Greater(t, litFrames, 100, "effect must animate without audio")
		})
	}
}

func TestEffectsWithAudio(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, id := range r.IDs() {
		in, err := r.NewInstance(id)
		require.NoError(t, err)

		name := in.Metadata().Name
		t.Run(name, func(t *testing.T) {
			ctx := newContext()
			require.NoError(t, in.Init(ctx))
			defer in.Cleanup()

			rng := noiseRand(42)
			for i := 0; i < 1000; i++ {
				advance(ctx)
				fakeAudio(ctx, &rng)
				// Stalls and zero deltas must be survivable.
				switch i % 97 {
				case 0:
					ctx.DeltaTimeMs = 0
				case 1:
					ctx.DeltaTimeMs = 400
				default:
					ctx.DeltaTimeMs = 16
				}
				in.Render(ctx)
				assertSymmetric(t, ctx, name)
			}
		})
	}
}

func TestEffectsRejectEmptyStrip(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, id := range r.IDs() {
		in, err := r.NewInstance(id)
		require.NoError(t, err)

		ctx := &effect.Context{ZoneID: effect.NoZone}
		assert.ErrorIs(t, in.Init(ctx), effect.ErrInitFailed, in.Metadata().Name)
		assert.False(t, in.Render(ctx))
		in.Cleanup()
	}
}

func TestEffectsDoNotAllocate(t *testing.T) {
	r := NewRegistry()
	for _, id := range r.IDs() {
		in, err := r.NewInstance(id)
		require.NoError(t, err)

		ctx := newContext()
		require.NoError(t, in.Init(ctx))

		rng := noiseRand(7)
		allocs := testing.AllocsPerRun(200, func() {
			advance(ctx)
			fakeAudio(ctx, &rng)
			in.Render(ctx)
		})
		assert.Zero(t, allocs, in.Metadata().Name)
		in.Cleanup()
	}
}

func TestRippleHopGating(t *testing.T) {
	t.Parallel()

	ctx := newContext()
	r := NewRipple()
	require.True(t, r.Init(ctx))

	ctx.Audio.Available = true
	ctx.Audio.HopSeq = 1
	for i := range ctx.Audio.Chroma {
		ctx.Audio.Chroma[i] = 0.5
	}

	for i := 0; i < 10; i++ {
		advance(ctx)
		r.Render(ctx)
	}
	assert.InDelta(t, 0.5, r.energyTarget, 1e-12)
	avg := r.chroma.Average()
	assert.InDelta(t, 0.5/4, avg, 1e-12, "only one hop pushed into the history")

	// New values without a new hop are not read.
	for i := range ctx.Audio.Chroma {
		ctx.Audio.Chroma[i] = 0.9
	}
	prevEnergy := r.energy.Value
	advance(ctx)
	r.Render(ctx)
	assert.InDelta(t, 0.5, r.energyTarget, 1e-12)
	assert.InDelta(t, avg, r.chroma.Average(), 1e-12)
	assert.Greater(t, r.energy.Value, prevEnergy, "smoothing continues between hops")

	ctx.Audio.HopSeq = 2
	advance(ctx)
	r.Render(ctx)
	assert.InDelta(t, 0.9, r.energyTarget, 1e-12)
}

func TestRippleSpawnsOnBeat(t *testing.T) {
	t.Parallel()

	ctx := newContext()
	r := NewRipple()
	require.True(t, r.Init(ctx))

	ctx.Audio.Available = true
	ctx.Audio.HopSeq = 1
	ctx.Audio.OnBeat = true
	advance(ctx)
	r.Render(ctx)
	assert.Equal(t, 1, r.ActiveRipples())

	// The cooldown keeps the next hop from spawning again.
	ctx.Audio.HopSeq = 2
	advance(ctx)
	r.Render(ctx)
	assert.Equal(t, 1, r.ActiveRipples())
}

func TestRippleIdleSpawn(t *testing.T) {
	t.Parallel()

	ctx := newContext()
	r := NewRipple()
	require.True(t, r.Init(ctx))

	var spawned bool
	for i := 0; i < 120 && !spawned; i++ {
		advance(ctx)
		r.Render(ctx)
		spawned = r.ActiveRipples() > 0
	}
	assert.True(t, spawned, "no audio must still spawn ripples")
}

func TestRippleQuietFailsafe(t *testing.T) {
	t.Parallel()

	ctx := newContext()
	r := NewRipple()
	require.True(t, r.Init(ctx))

	// Audio is present but silent and never produces novelty.
	ctx.Audio.Available = true
	ctx.Audio.HopSeq = 1

	frames := int(rippleQuietLimit*1000/float64(ctx.DeltaTimeMs)) + 2
	var spawned bool
	for i := 0; i < frames && !spawned; i++ {
		advance(ctx)
		r.Render(ctx)
		spawned = r.ActiveRipples() > 0
	}
	assert.True(t, spawned)
}

func TestRippleSlotsBounded(t *testing.T) {
	t.Parallel()

	ctx := newContext()
	r := NewRipple()
	require.True(t, r.Init(ctx))

	for i := 0; i < maxRipples; i++ {
		require.True(t, r.spawn(ctx, 1), "slot %d", i)
	}
	r.step(ctx, 0.05)

	inFlight := r.ripples
	r.sinceSpawn = 1

	for i := 0; i < 2*maxRipples; i++ {
		assert.False(t, r.spawn(ctx, 1))
	}
	assert.Equal(t, maxRipples, r.ActiveRipples())
	assert.Equal(t, inFlight, r.ripples, "rings in flight are left alone")
	assert.Zero(t, r.sinceSpawn, "a dropped spawn still restarts the quiet timer")
}

func TestRippleRadiusOutward(t *testing.T) {
	t.Parallel()

	ctx := newContext()
	ctx.Params.Speed = 0
	ctx.Params.Intensity = 255

	r := NewRipple()
	require.True(t, r.Init(ctx))

	var (
		rng  = noiseRand(7)
		prev = r.ripples
		full bool
	)
	for i := 0; i < 600; i++ {
		advance(ctx)
		fakeAudio(ctx, &rng)
		ctx.Audio.HopSeq++
		ctx.Audio.OnBeat = ctx.FrameNumber%10 == 0
		r.Render(ctx)

		for j, rp := range r.ripples {
			if prev[j].active && rp.active {
				require.GreaterOrEqual(t, rp.radius, prev[j].radius,
					"frame %d: ripple %d moved inward", ctx.FrameNumber, j)
			}
		}
		prev = r.ripples
		full = full || r.ActiveRipples() == maxRipples
	}
	assert.True(t, full, "every slot was in use at some point")
}

func TestRippleKickSpawn(t *testing.T) {
	t.Parallel()

	ctx := newContext()
	r := NewRipple()
	require.True(t, r.Init(ctx))

	// Quiet chroma and no onset: only the bass can spawn.
	ctx.Audio.Available = true
	ctx.Audio.HopSeq = 1
	ctx.Audio.Bands[0] = 0.9
	ctx.Audio.Bands[1] = 0.9
	advance(ctx)
	r.Render(ctx)

	require.Equal(t, 1, r.ActiveRipples())
	assert.Greater(t, r.cooldown, 0.0)

	var spawned ripple
	for _, rp := range r.ripples {
		if rp.active {
			spawned = rp
		}
	}
	assert.Greater(t, spawned.intensity, 0.9, "kicks spawn at full strength")

	// A weak bass does not.
	r2 := NewRipple()
	require.True(t, r2.Init(ctx))
	ctx.Audio.Bands[0] = 0.2
	ctx.Audio.Bands[1] = 0.2
	ctx.Audio.HopSeq++
	advance(ctx)
	r2.Render(ctx)
	assert.Zero(t, r2.ActiveRipples())
}

func TestBreathingCenterBrightest(t *testing.T) {
	t.Parallel()

	ctx := newContext()
	b := NewBreathing()
	require.True(t, b.Init(ctx))

	for i := 0; i < 120; i++ {
		advance(ctx)
		b.Render(ctx)
	}

	center := ctx.LEDs[ctx.CenterPoint]
	edge := ctx.LEDs[ctx.StripLength()-1]
	sum := func(c led.RGBColor) int { return int(c.R()) + int(c.G()) + int(c.B()) }
	assert.Greater(t, sum(center), sum(edge))
}
