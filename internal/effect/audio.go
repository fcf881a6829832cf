package effect

// Audio analysis dimensions.
const (
	NumBands     = 8
	NumChroma    = 12
	WaveformSize = 128
)

// AudioContext is a by-value snapshot of the latest audio analysis. The
// scheduler copies it into the Context once per frame, so effects never
// observe a partially updated analysis.
type AudioContext struct {
	// Available is false when there is no audio source or the last analysis
	// is stale. Effects must still animate when it is false.
	Available bool
	// HopSeq increments exactly when a new analysis hop has been published.
	// Effects recompute audio-derived targets only when it changes.
	HopSeq uint32

	RMS  float64 // 0..1
	Flux float64 // 0..1, spectral novelty

	Bands  [NumBands]float64  // 0..1, low to high
	Chroma [NumChroma]float64 // 0..1, pitch classes starting at C

	// BeatPhase is the position within the current beat in [0, 1).
	BeatPhase float64
	// OnBeat and OnDownbeat are true for exactly one rendered frame.
	OnBeat     bool
	OnDownbeat bool

	BPM             float64
	TempoConfidence float64 // 0..1

	Waveform [WaveformSize]int16
}

// Band returns band i, or 0 if i is out of range.
func (a *AudioContext) Band(i int) float64 {
	if i < 0 || i >= NumBands {
		return 0
	}
	return a.Bands[i]
}

// Bass returns the mean of the two lowest bands.
func (a *AudioContext) Bass() float64 {
	return (a.Bands[0] + a.Bands[1]) / 2
}

// Mid returns the mean of the middle bands.
func (a *AudioContext) Mid() float64 {
	return (a.Bands[2] + a.Bands[3] + a.Bands[4]) / 3
}

// Treble returns the mean of the highest bands.
func (a *AudioContext) Treble() float64 {
	return (a.Bands[5] + a.Bands[6] + a.Bands[7]) / 3
}

// ChromaEnergy returns the sum of all chroma bins divided by the bin count.
func (a *AudioContext) ChromaEnergy() float64 {
	var sum float64
	for _, c := range a.Chroma {
		sum += c
	}
	return sum / NumChroma
}

// DominantChroma returns the index of the strongest pitch class and its
// strength.
func (a *AudioContext) DominantChroma() (int, float64) {
	best := 0
	for i, c := range a.Chroma {
		if c > a.Chroma[best] {
			best = i
		}
	}
	return best, a.Chroma[best]
}

// WaveformAmplitude returns the absolute sample value at i, or 0 if out of
// range.
func (a *AudioContext) WaveformAmplitude(i int) int {
	if i < 0 || i >= WaveformSize {
		return 0
	}
	s := int(a.Waveform[i])
	if s < 0 {
		return -s
	}
	return s
}

// WaveformNormalized returns sample i scaled to [-1, 1].
func (a *AudioContext) WaveformNormalized(i int) float64 {
	if i < 0 || i >= WaveformSize {
		return 0
	}
	return float64(a.Waveform[i]) / 32768
}

// PeakAmplitude returns the largest absolute sample in the waveform.
func (a *AudioContext) PeakAmplitude() int {
	var peak int
	for i := range a.Waveform {
		peak = max(peak, a.WaveformAmplitude(i))
	}
	return peak
}
