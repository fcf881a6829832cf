package smooth

// DefaultHistory is the ring size most effects use for novelty detection.
const DefaultHistory = 4

// RollingAverage is a fixed-size moving average used to detect novelty: how
// far a new sample sits above its recent history.
type RollingAverage struct {
	ring []float64
	sum  float64
	idx  int
}

// NewRollingAverage creates a rolling average over n samples, all starting
// at zero. n is clamped to at least 1.
func NewRollingAverage(n int) RollingAverage {
	return RollingAverage{ring: make([]float64, max(n, 1))}
}

// Push records x and returns the updated average and the positive deviation
// of x above it.
func (r *RollingAverage) Push(x float64) (avg, delta float64) {
	if len(r.ring) == 0 {
		r.ring = make([]float64, DefaultHistory)
	}
	if !isFinite(x) {
		x = 0
	}

	r.sum -= r.ring[r.idx]
	r.ring[r.idx] = x
	r.sum += x
	r.idx = (r.idx + 1) % len(r.ring)

	avg = r.Average()
	delta = max(0, x-avg)
	return avg, delta
}

// Average returns the current mean.
func (r *RollingAverage) Average() float64 {
	if len(r.ring) == 0 {
		return 0
	}
	return r.sum / float64(len(r.ring))
}

// Len returns the ring size.
func (r *RollingAverage) Len() int { return len(r.ring) }

// Reset zeroes the history.
func (r *RollingAverage) Reset() {
	clear(r.ring)
	r.sum = 0
	r.idx = 0
}

// HopGate reports when a new audio analysis hop has been published.
// Targets derived from audio should only be recomputed when Advance returns
// true, while smoothing keeps running every frame.
type HopGate struct {
	last uint32
	seen bool
}

// Advance records seq and returns true if it differs from the previously
// observed sequence. The first call always returns true.
func (g *HopGate) Advance(seq uint32) bool {
	if g.seen && seq == g.last {
		return false
	}
	g.last = seq
	g.seen = true
	return true
}

// Reset forgets the last observed sequence.
func (g *HopGate) Reset() {
	*g = HopGate{}
}
