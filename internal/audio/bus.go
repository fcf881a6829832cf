// Package audio hands audio analysis from the analysis goroutine to the
// render loop.
package audio

import (
	"context"
	"sync"
	"time"

	"libdb.so/lightwave/internal/effect"
)

// StaleAfter is how old the last analysis may be before it is reported as
// unavailable.
const StaleAfter = 100 * time.Millisecond

// Source produces audio analysis until ctx is canceled.
type Source interface {
	Run(ctx context.Context, bus *Bus) error
}

// Bus holds the latest published analysis. Publish and Snapshot may be
// called from different goroutines; Snapshot always returns a complete
// copy.
//
// Beat ticks are latched: a beat published in any hop is reported by the
// next Snapshot, even if later hops without a beat were published in
// between. The bus has a single reader, the render loop.
type Bus struct {
	mu      sync.Mutex
	latest  effect.AudioContext
	seq     uint32
	updated time.Time
	now     func() time.Time

	pendingBeat     bool
	pendingDownbeat bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{now: time.Now}
}

// NewBusWithClock creates an empty bus that reads time from now.
func NewBusWithClock(now func() time.Time) *Bus {
	return &Bus{now: now}
}

// Publish stores a new analysis hop and returns its sequence number. The
// HopSeq and Available fields of a are overwritten.
func (b *Bus) Publish(a effect.AudioContext) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	a.HopSeq = b.seq
	a.Available = true

	b.pendingBeat = b.pendingBeat || a.OnBeat
	b.pendingDownbeat = b.pendingDownbeat || a.OnDownbeat

	b.latest = a
	b.updated = b.now()
	return b.seq
}

// Snapshot returns a copy of the latest analysis. Available is false if
// nothing was published yet or the last hop is older than StaleAfter.
// OnBeat and OnDownbeat report the beats published since the previous
// Snapshot and are cleared by it.
func (b *Bus) Snapshot() effect.AudioContext {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := b.latest
	a.OnBeat = b.pendingBeat
	a.OnDownbeat = b.pendingDownbeat
	b.pendingBeat = false
	b.pendingDownbeat = false

	if b.seq == 0 || b.now().Sub(b.updated) > StaleAfter {
		a.Available = false
		a.OnBeat = false
		a.OnDownbeat = false
	}
	return a
}

// Seq returns the sequence number of the latest hop.
func (b *Bus) Seq() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
