// Package led contains the LED color and buffer types shared by the renderer,
// the zone composer and the serial driver.
package led

import (
	"io"
	"unsafe"
)

// LEDs describes a strip of LEDs. It is a preallocated slice of RGBColor.
// Writes outside the strip are ignored.
type LEDs []RGBColor

// NewLEDs creates a new strip of LEDs. Colors are initialized to black
// (off).
func NewLEDs(numLEDs int) LEDs {
	return make(LEDs, numLEDs)
}

// WriteTo implements io.WriterTo. It writes the LED strip to the given writer
// as a series of RGBColor values.
func (l LEDs) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, c := range l {
		n, err := w.Write(c[:])
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// AsPixels returns the LED strip as a slice of uint8 values. Each LED is
// represented by three values, one for each color channel. The returned slice
// shares memory with l.
func (l LEDs) AsPixels() []uint8 {
	if len(l) == 0 {
		return nil
	}
	return unsafe.Slice((*uint8)(unsafe.Pointer(&l[0])), 3*len(l))
}

// At returns the color at the given index, or black if i is out of range.
func (l LEDs) At(i int) RGBColor {
	if i < 0 || i >= len(l) {
		return RGBColor{}
	}
	return l[i]
}

// Set sets the color of the LED at the given index.
func (l LEDs) Set(i int, c RGBColor) {
	if i < 0 || i >= len(l) {
		return
	}
	l[i] = c
}

// Add adds c onto the LED at the given index, saturating each channel.
func (l LEDs) Add(i int, c RGBColor) {
	if i < 0 || i >= len(l) {
		return
	}
	l[i] = l[i].Add(c)
}

// SetRange sets the color of the LEDs in the given range. The range is
// clamped to the strip.
func (l LEDs) SetRange(start, end int, c RGBColor) {
	start = max(start, 0)
	end = min(end, len(l))
	for i := start; i < end; i++ {
		l[i] = c
	}
}

// Fill sets every LED to c.
func (l LEDs) Fill(c RGBColor) {
	for i := range l {
		l[i] = c
	}
}

// Clear turns every LED off.
func (l LEDs) Clear() {
	clear(l)
}

// FadeToBlackBy dims every LED by amount/256 of its current value.
func (l LEDs) FadeToBlackBy(amount uint8) {
	scale := 255 - amount
	for i := range l {
		l[i] = l[i].Scale(scale)
	}
}

// Scale scales every LED by s/256.
func (l LEDs) Scale(s uint8) {
	for i := range l {
		l[i] = l[i].Scale(s)
	}
}

// Draw draws the given LEDs into the strip at the given index.
// It stops when either l or other is exhausted and returns the number of LEDs
// written.
func (l LEDs) Draw(start int, other LEDs) int {
	for i := range other {
		if start+i >= len(l) {
			return i
		}
		if start+i < 0 {
			continue
		}
		l[start+i] = other[i]
	}
	return len(other)
}
