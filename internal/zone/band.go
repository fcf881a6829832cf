package zone

import (
	"encoding"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"libdb.so/lightwave/internal/effect"
)

// AudioBand selects the part of the spectrum a zone reacts to.
type AudioBand uint8

const (
	// FullBand passes every band through.
	FullBand AudioBand = iota
	// BassBand keeps the two lowest bands.
	BassBand
	// MidBand keeps the middle bands.
	MidBand
	// TrebleBand keeps the top bands.
	TrebleBand
)

var bandNames = [...]string{
	FullBand:   "full",
	BassBand:   "bass",
	MidBand:    "mid",
	TrebleBand: "treble",
}

// bandRanges are the [lo, hi) band indices kept by each AudioBand. They
// match AudioContext's Bass, Mid and Treble.
var bandRanges = [...][2]int{
	FullBand:   {0, effect.NumBands},
	BassBand:   {0, 2},
	MidBand:    {2, 5},
	TrebleBand: {5, effect.NumBands},
}

var (
	_ encoding.TextUnmarshaler = (*AudioBand)(nil)
	_ encoding.TextMarshaler   = FullBand
)

func (b AudioBand) String() string {
	if int(b) < len(bandNames) {
		return bandNames[b]
	}
	return fmt.Sprintf("AudioBand(%d)", b)
}

// UnmarshalText parses a band name.
func (b *AudioBand) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range bandNames {
		if n == name {
			*b = AudioBand(i)
			return nil
		}
	}
	return errors.Errorf("unknown audio band %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (b AudioBand) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Filter zeroes every band of a outside b. Everything else in a, beats and
// chroma included, is left alone.
func (b AudioBand) Filter(a *effect.AudioContext) {
	if b == FullBand || int(b) >= len(bandRanges) {
		return
	}
	r := bandRanges[b]
	for i := range a.Bands {
		if i < r[0] || i >= r[1] {
			a.Bands[i] = 0
		}
	}
}
