package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
)

func TestLayoutReference(t *testing.T) {
	t.Parallel()

	three, err := Layout(80, 3)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{ID: 0, LeftStart: 65, LeftEnd: 79, RightStart: 80, RightEnd: 94},
		{ID: 1, LeftStart: 20, LeftEnd: 64, RightStart: 95, RightEnd: 139},
		{ID: 2, LeftStart: 0, LeftEnd: 19, RightStart: 140, RightEnd: 159},
	}, three)

	four, err := Layout(80, 4)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{ID: 0, LeftStart: 60, LeftEnd: 79, RightStart: 80, RightEnd: 99},
		{ID: 1, LeftStart: 40, LeftEnd: 59, RightStart: 100, RightEnd: 119},
		{ID: 2, LeftStart: 20, LeftEnd: 39, RightStart: 120, RightEnd: 139},
		{ID: 3, LeftStart: 0, LeftEnd: 19, RightStart: 140, RightEnd: 159},
	}, four)
}

func TestLayoutCoversEveryLEDOnce(t *testing.T) {
	t.Parallel()

	for _, half := range []int{4, 7, 30, 80, 144} {
		for count := 1; count <= MaxZones; count++ {
			segments, err := Layout(half, count)
			require.NoError(t, err)

			for i := 0; i < 2*half; i++ {
				var owners int
				for _, seg := range segments {
					if seg.Contains(i) {
						owners++
					}
				}
				require.Equal(t, 1, owners, "half %d, %d zones, index %d", half, count, i)
			}

			for _, seg := range segments {
				assert.GreaterOrEqual(t, seg.Width(), 1)
				// Segments are mirrored around the center.
				assert.Equal(t, 2*half-1-seg.LeftStart, seg.RightEnd, seg.String())
			}
		}
	}
}

func TestLayoutErrors(t *testing.T) {
	t.Parallel()

	_, err := Layout(80, 0)
	assert.Error(t, err)
	_, err = Layout(80, MaxZones+1)
	assert.Error(t, err)
	_, err = Layout(2, 3)
	assert.Error(t, err)
}

func TestBlendModes(t *testing.T) {
	t.Parallel()

	dst := led.RGB(200, 100, 0)
	src := led.RGB(100, 200, 255)

	tests := []struct {
		mode BlendMode
		want led.RGBColor
	}{
		{Overwrite, src},
		{Additive, led.RGB(255, 255, 255)},
		{Alpha, led.RGB(150, 150, 128)},
		{Multiply, led.RGB(78, 78, 0)},
		{Screen, led.RGB(222, 222, 255)},
		{Lighten, led.RGB(200, 200, 255)},
		{Darken, led.RGB(100, 100, 0)},
	}

	for _, test := range tests {
		t.Run(test.mode.String(), func(t *testing.T) {
			assert.Equal(t, test.want, test.mode.Blend(dst, src))
		})
	}
}

func TestBlendModeText(t *testing.T) {
	t.Parallel()

	var m BlendMode
	require.NoError(t, m.UnmarshalText([]byte(" Additive ")))
	assert.Equal(t, Additive, m)

	text, err := Screen.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "screen", string(text))

	assert.EqualError(t, m.UnmarshalText([]byte("xor")), `unknown blend mode "xor"`)
	assert.Equal(t, "BlendMode(42)", BlendMode(42).String())
}

// solid fills the whole buffer with one color.
type solid struct {
	name    string
	color   led.RGBColor
	fail    bool
	renders int
	zones   []uint8
	audio   effect.AudioContext
}

func (s *solid) Init(*effect.Context) bool { return !s.fail }
func (s *solid) Cleanup()                  {}
func (s *solid) Metadata() effect.Metadata { return effect.Metadata{Name: s.name} }

func (s *solid) Render(ctx *effect.Context) {
	s.renders++
	s.zones = append(s.zones, ctx.ZoneID)
	s.audio = ctx.Audio
	ctx.LEDs.Fill(s.color)
}

const (
	redID effect.ID = iota
	greenID
	brokenID
)

type testRig struct {
	registry *effect.Registry
	effects  map[effect.ID][]*solid
}

func newRig(t *testing.T) *testRig {
	rig := &testRig{
		registry: effect.NewRegistry(),
		effects:  make(map[effect.ID][]*solid),
	}

	add := func(id effect.ID, name string, c led.RGBColor, fail bool) {
		require.NoError(t, rig.registry.Register(id, func() effect.Effect {
			s := &solid{name: name, color: c, fail: fail}
			rig.effects[id] = append(rig.effects[id], s)
			return s
		}))
	}
	add(redID, "red", led.RGB(200, 0, 0), false)
	add(greenID, "green", led.RGB(0, 200, 0), false)
	add(brokenID, "broken", led.RGB(255, 255, 255), true)

	return rig
}

func newFrame() *effect.Context {
	return &effect.Context{
		LEDs:        led.NewLEDs(320),
		CenterPoint: 80,
		ZoneID:      effect.NoZone,
		Params:      effect.DefaultParams,
	}
}

func newComposer(t *testing.T, rig *testRig, count int) *Composer {
	layout, err := Layout(80, count)
	require.NoError(t, err)
	return NewComposer(rig.registry, layout)
}

func TestComposerOverwrite(t *testing.T) {
	t.Parallel()

	rig := newRig(t)
	c := newComposer(t, rig, 3)
	ctx := newFrame()

	require.NoError(t, c.SetZone(0, Zone{Effect: redID, Enabled: true, Brightness: 255, Blend: Overwrite}, ctx))
	require.NoError(t, c.SetZone(2, Zone{Effect: greenID, Enabled: true, Brightness: 255, Blend: Overwrite}, ctx))

	// Stale data everywhere must not survive a frame.
	ctx.LEDs.Fill(led.RGB(9, 9, 9))
	c.Render(ctx)

	for i, px := range ctx.LEDs {
		local := i % 160
		switch {
		case c.Segment(0).Contains(local):
			assert.Equal(t, led.RGB(200, 0, 0), px, "index %d", i)
		case c.Segment(2).Contains(local):
			assert.Equal(t, led.RGB(0, 200, 0), px, "index %d", i)
		default:
			assert.True(t, px.IsBlack(), "disabled zone index %d must be black", i)
		}
	}
}

func TestComposerAdditiveSaturates(t *testing.T) {
	t.Parallel()

	rig := newRig(t)
	c := newComposer(t, rig, 1)
	ctx := newFrame()

	require.NoError(t, c.SetZone(0, Zone{Effect: redID, Enabled: true, Brightness: 255, Blend: Additive}, ctx))

	ctx.LEDs.Fill(led.RGB(100, 100, 100))
	c.Render(ctx)

	// Additive first zone starts from a cleared buffer.
	assert.Equal(t, led.RGB(200, 0, 0), ctx.LEDs[0])

	// Saturation through the blend itself.
	assert.Equal(t, led.RGB(255, 0, 0), Additive.Blend(led.RGB(200, 0, 0), led.RGB(200, 0, 0)))
}

func TestComposerBrightness(t *testing.T) {
	t.Parallel()

	rig := newRig(t)
	c := newComposer(t, rig, 2)
	ctx := newFrame()

	require.NoError(t, c.SetZone(0, Zone{Effect: redID, Enabled: true, Brightness: 127, Blend: Overwrite}, ctx))
	require.NoError(t, c.SetZone(1, Zone{Effect: greenID, Enabled: true, Brightness: 0, Blend: Additive}, ctx))

	c.Render(ctx)
	assert.Equal(t, led.RGB(100, 0, 0), ctx.LEDs[80])
	assert.True(t, ctx.LEDs[0].IsBlack())
	assert.Equal(t, led.RGB(100, 0, 0), ctx.LEDs[160+79], "strip 2 is composited too")
}

func TestComposerZoneContext(t *testing.T) {
	t.Parallel()

	rig := newRig(t)
	c := newComposer(t, rig, 4)
	ctx := newFrame()

	for i := 0; i < c.Len(); i++ {
		require.NoError(t, c.SetZone(i, Zone{Effect: redID, Enabled: true, Brightness: 255, Blend: Additive}, ctx))
	}
	c.Render(ctx)

	instances := rig.effects[redID][1:] // the first one is the registry's
	require.Len(t, instances, 4)
	for i, s := range instances {
		assert.Equal(t, []uint8{uint8(i)}, s.zones, "each zone has its own instance")
	}
	assert.Equal(t, effect.NoZone, ctx.ZoneID, "the frame context is untouched")
}

func TestComposerAudioBand(t *testing.T) {
	t.Parallel()

	rig := newRig(t)
	c := newComposer(t, rig, 4)
	ctx := newFrame()

	bands := []AudioBand{FullBand, BassBand, MidBand, TrebleBand}
	for i, band := range bands {
		z := Zone{Effect: redID, Enabled: true, Brightness: 255, Blend: Additive, Band: band}
		require.NoError(t, c.SetZone(i, z, ctx))
	}

	ctx.Audio.Available = true
	ctx.Audio.OnBeat = true
	ctx.Audio.RMS = 0.7
	for i := range ctx.Audio.Bands {
		ctx.Audio.Bands[i] = 1
	}
	c.Render(ctx)

	instances := rig.effects[redID][1:]
	require.Len(t, instances, 4)

	full := instances[0].audio
	assert.Equal(t, ctx.Audio, full)

	bass := instances[1].audio
	assert.Equal(t, 1.0, bass.Bass())
	assert.Zero(t, bass.Mid())
	assert.Zero(t, bass.Treble())

	mid := instances[2].audio
	assert.Zero(t, mid.Bass())
	assert.Equal(t, 1.0, mid.Mid())
	assert.Zero(t, mid.Treble())

	treble := instances[3].audio
	assert.Zero(t, treble.Bass())
	assert.Zero(t, treble.Mid())
	assert.Equal(t, 1.0, treble.Treble())

	for _, s := range instances {
		assert.True(t, s.audio.OnBeat, "beats pass every band")
		assert.Equal(t, 0.7, s.audio.RMS)
	}
	assert.Equal(t, 1.0, ctx.Audio.Bands[0], "the frame context is untouched")
	assert.Equal(t, 1.0, ctx.Audio.Bands[effect.NumBands-1])
}

func TestAudioBandText(t *testing.T) {
	t.Parallel()

	var b AudioBand
	require.NoError(t, b.UnmarshalText([]byte(" Treble")))
	assert.Equal(t, TrebleBand, b)

	text, err := MidBand.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "mid", string(text))

	assert.EqualError(t, b.UnmarshalText([]byte("sub")), `unknown audio band "sub"`)
	assert.Equal(t, "AudioBand(9)", AudioBand(9).String())
}

func TestComposerInitFailure(t *testing.T) {
	t.Parallel()

	rig := newRig(t)
	c := newComposer(t, rig, 2)
	ctx := newFrame()

	err := c.SetZone(0, Zone{Effect: brokenID, Enabled: true, Brightness: 255}, ctx)
	require.ErrorIs(t, err, effect.ErrInitFailed)
	assert.False(t, c.Zone(0).Enabled)

	c.SetEnabled(0, true)
	assert.False(t, c.Zone(0).Enabled, "a zone without a running effect stays off")

	for i := 0; i < 5; i++ {
		c.Render(ctx)
	}
	for _, s := range rig.effects[brokenID] {
		assert.Zero(t, s.renders)
	}
	for _, px := range ctx.LEDs {
		assert.True(t, px.IsBlack())
	}

	assert.Error(t, c.SetZone(5, Zone{}, ctx))
	assert.Error(t, c.SetZone(1, Zone{Effect: 99}, ctx))
}

func TestComposerSwapEffect(t *testing.T) {
	t.Parallel()

	rig := newRig(t)
	c := newComposer(t, rig, 1)
	ctx := newFrame()

	require.NoError(t, c.SetZone(0, Zone{Effect: redID, Enabled: true, Brightness: 255}, ctx))
	first := c.Instance(0)

	// Changing only the dials keeps the instance.
	require.NoError(t, c.SetZone(0, Zone{Effect: redID, Enabled: true, Brightness: 10}, ctx))
	assert.Same(t, first, c.Instance(0))

	require.NoError(t, c.SetZone(0, Zone{Effect: greenID, Enabled: true, Brightness: 255}, ctx))
	assert.Equal(t, effect.StateCleanedUp, first.State())

	c.Render(ctx)
	assert.Equal(t, led.RGB(0, 200, 0), ctx.LEDs[80])

	c.Cleanup()
	assert.Nil(t, c.Instance(0))
}
