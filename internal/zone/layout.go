// Package zone splits the strip into concentric rings around the center and
// composites an independent effect into each one.
package zone

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxZones is the largest supported zone count.
const MaxZones = 4

// referenceHalf is the half length the width tables are written for.
const referenceHalf = 80

// widths lists per-side zone widths for an 80 LED half, innermost first.
var widths = [MaxZones + 1][]int{
	1: {80},
	2: {40, 40},
	3: {15, 45, 20},
	4: {20, 20, 20, 20},
}

// Segment is a zone's share of strip 1: a range left of the center and its
// mirror right of it. Bounds are inclusive. Strip 2 uses the same ranges
// offset by the strip length.
type Segment struct {
	ID         uint8
	LeftStart  int
	LeftEnd    int
	RightStart int
	RightEnd   int
}

// Width returns the number of LEDs on each side.
func (s Segment) Width() int { return s.LeftEnd - s.LeftStart + 1 }

// Len returns the number of LEDs of the segment on one strip.
func (s Segment) Len() int { return 2 * s.Width() }

// Contains returns true if strip-local index i belongs to the segment.
func (s Segment) Contains(i int) bool {
	return (i >= s.LeftStart && i <= s.LeftEnd) || (i >= s.RightStart && i <= s.RightEnd)
}

func (s Segment) String() string {
	return fmt.Sprintf("zone %d [%d-%d | %d-%d]", s.ID, s.LeftStart, s.LeftEnd, s.RightStart, s.RightEnd)
}

// Layout returns the segments for count concentric zones over a strip with
// the given half length. Widths are scaled from the 80 LED reference layout.
func Layout(half, count int) ([]Segment, error) {
	if count < 1 || count > MaxZones {
		return nil, errors.Errorf("zone count %d out of range [1, %d]", count, MaxZones)
	}
	if half < count {
		return nil, errors.Errorf("half length %d too short for %d zones", half, count)
	}

	ref := widths[count]
	segments := make([]Segment, count)

	inner := 0 // distance from center where the zone starts
	for i, w := range ref {
		width := (w*half + referenceHalf/2) / referenceHalf
		if i == count-1 {
			width = half - inner
		}
		// Keep at least one LED for every zone further out.
		width = max(1, min(width, half-inner-(count-1-i)))

		segments[i] = Segment{
			ID:         uint8(i),
			LeftStart:  half - inner - width,
			LeftEnd:    half - 1 - inner,
			RightStart: half + inner,
			RightEnd:   half + inner + width - 1,
		}
		inner += width
	}

	return segments, nil
}
