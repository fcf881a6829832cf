package audio

import (
	"context"
	"math"
	"time"

	"libdb.so/lightwave/internal/effect"
)

// DefaultHop is the analysis hop interval of the Metronome.
const DefaultHop = 20 * time.Millisecond

// Metronome synthesizes analysis for a steady four-on-the-floor beat. It
// stands in for a real analysis pipeline when demoing or testing.
type Metronome struct {
	BPM float64
	Hop time.Duration

	lastBeat int
	noise    uint32
}

// NewMetronome creates a metronome at the given tempo.
func NewMetronome(bpm float64, hop time.Duration) *Metronome {
	if bpm <= 0 {
		bpm = 120
	}
	if hop <= 0 {
		hop = DefaultHop
	}
	return &Metronome{BPM: bpm, Hop: hop, lastBeat: -1, noise: 0x1234567}
}

// Run publishes one hop every m.Hop until ctx is canceled.
func (m *Metronome) Run(ctx context.Context, bus *Bus) error {
	ticker := time.NewTicker(m.Hop)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			bus.Publish(m.Analyze(now.Sub(start)))
		}
	}
}

// Analyze returns the analysis at time t since the metronome started.
// Calls must have non-decreasing t for beat ticks to be reported.
func (m *Metronome) Analyze(t time.Duration) effect.AudioContext {
	beatLen := 60 / m.BPM
	pos := t.Seconds() / beatLen
	beat := int(pos)
	phase := pos - float64(beat)

	var a effect.AudioContext
	a.BPM = m.BPM
	a.TempoConfidence = 1
	a.BeatPhase = phase

	if beat != m.lastBeat {
		a.OnBeat = true
		a.OnDownbeat = beat%4 == 0
		m.lastBeat = beat
	}

	env := math.Exp(-phase * 6)
	a.RMS = 0.2 + 0.6*env
	a.Flux = env * env

	for i := range a.Bands {
		switch {
		case i < 2:
			a.Bands[i] = 0.1 + 0.85*env
		case i < 5:
			a.Bands[i] = 0.3 + 0.2*math.Sin(2*math.Pi*(t.Seconds()*0.25+float64(i)/5))
		default:
			a.Bands[i] = 0.1 + 0.3*m.rand()
		}
	}

	// One chord per bar, walking around the circle of fifths.
	root := (beat / 4 * 7) % effect.NumChroma
	for _, step := range [...]int{0, 4, 7} {
		a.Chroma[(root+step)%effect.NumChroma] = 0.5 + 0.4*env
	}

	freq := 110 * math.Pow(2, float64(root)/12)
	for i := range a.Waveform {
		s := math.Sin(2 * math.Pi * freq * (t.Seconds() + float64(i)/44100))
		a.Waveform[i] = int16(s * a.RMS * 32767)
	}

	return a
}

func (m *Metronome) rand() float64 {
	x := m.noise
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	m.noise = x
	return float64(x>>8) / (1 << 24)
}
