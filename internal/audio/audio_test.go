package audio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"libdb.so/lightwave/internal/effect"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestBusSnapshot(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	bus := NewBusWithClock(clock.Now)

	a := bus.Snapshot()
	assert.False(t, a.Available, "nothing published")
	assert.Zero(t, a.HopSeq)

	var in effect.AudioContext
	in.RMS = 0.5
	in.HopSeq = 1000 // overwritten
	assert.Equal(t, uint32(1), bus.Publish(in))
	assert.Equal(t, uint32(2), bus.Publish(in))

	a = bus.Snapshot()
	assert.True(t, a.Available)
	assert.Equal(t, uint32(2), a.HopSeq)
	assert.Equal(t, 0.5, a.RMS)

	// Snapshots are copies.
	a.RMS = 0.9
	assert.Equal(t, 0.5, bus.Snapshot().RMS)

	clock.Advance(StaleAfter + time.Millisecond)
	stale := bus.Snapshot()
	assert.False(t, stale.Available)
	assert.Equal(t, uint32(2), stale.HopSeq, "stale data keeps its sequence")
}

func TestBusLatchesBeats(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	bus := NewBusWithClock(clock.Now)

	// Several hops land between two reads; only the first carries the beat.
	bus.Publish(effect.AudioContext{OnBeat: true, OnDownbeat: true})
	bus.Publish(effect.AudioContext{})
	bus.Publish(effect.AudioContext{RMS: 0.3})

	a := bus.Snapshot()
	assert.True(t, a.OnBeat)
	assert.True(t, a.OnDownbeat)
	assert.Equal(t, uint32(3), a.HopSeq)
	assert.Equal(t, 0.3, a.RMS, "the rest of the snapshot is the latest hop")

	a = bus.Snapshot()
	assert.False(t, a.OnBeat, "a beat is reported once")
	assert.False(t, a.OnDownbeat)

	bus.Publish(effect.AudioContext{OnBeat: true})
	a = bus.Snapshot()
	assert.True(t, a.OnBeat)
	assert.False(t, a.OnDownbeat)

	// A beat that went stale is dropped with the rest of the analysis.
	bus.Publish(effect.AudioContext{OnBeat: true})
	clock.Advance(StaleAfter + time.Millisecond)
	a = bus.Snapshot()
	assert.False(t, a.Available)
	assert.False(t, a.OnBeat)
}

func TestBusConcurrent(t *testing.T) {
	t.Parallel()

	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var a effect.AudioContext
		for i := 0; i < 1000; i++ {
			// Every field carries the same value so torn reads are visible.
			v := float64(i)
			a.RMS = v
			a.Flux = v
			for j := range a.Bands {
				a.Bands[j] = v
			}
			bus.Publish(a)
		}
	}()

	for i := 0; i < 1000; i++ {
		a := bus.Snapshot()
		for _, b := range a.Bands {
			require.Equal(t, a.RMS, b)
		}
		require.Equal(t, a.RMS, a.Flux)
	}

	wg.Wait()
	assert.Equal(t, uint32(1000), bus.Seq())
}

func TestMetronomeBeats(t *testing.T) {
	t.Parallel()

	m := NewMetronome(120, DefaultHop)

	var beats, downbeats int
	for tm := time.Duration(0); tm < 4*time.Second; tm += DefaultHop {
		a := m.Analyze(tm)
		require.GreaterOrEqual(t, a.BeatPhase, 0.0)
		require.Less(t, a.BeatPhase, 1.0)
		if a.OnBeat {
			beats++
		}
		if a.OnDownbeat {
			downbeats++
			assert.True(t, a.OnBeat)
		}
		for _, b := range a.Bands {
			require.GreaterOrEqual(t, b, 0.0)
			require.LessOrEqual(t, b, 1.0)
		}
	}

	assert.Equal(t, 8, beats)
	assert.Equal(t, 2, downbeats)
}

func TestMetronomeEnvelope(t *testing.T) {
	t.Parallel()

	m := NewMetronome(60, DefaultHop)
	onBeat := m.Analyze(0)
	offBeat := m.Analyze(800 * time.Millisecond)

	assert.Greater(t, onBeat.RMS, offBeat.RMS)
	assert.Greater(t, onBeat.Bass(), offBeat.Bass())

	idx, _ := onBeat.DominantChroma()
	assert.Equal(t, 0, idx)
}

func TestMetronomeRun(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	m := NewMetronome(120, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, bus) }()

	require.Eventually(t, func() bool { return bus.Seq() >= 3 }, time.Second, time.Millisecond)
	assert.True(t, bus.Snapshot().Available)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
