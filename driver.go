package lightwave

import (
	"io"

	"github.com/pkg/errors"
	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/ledserial"
)

// Driver is the hardware boundary. The LED count is fixed when the driver
// is created; writes past it are ignored.
type Driver interface {
	// Len returns the number of LEDs.
	Len() int
	// SetLED sets LED i.
	SetLED(i int, c led.RGBColor)
	// Fill sets every LED to c.
	Fill(c led.RGBColor)
	// SetBrightness sets the global brightness applied by the hardware.
	SetBrightness(b uint8) error
	// Show pushes the current buffer to the LEDs.
	Show() error
}

// SerialDriver drives an LED controller speaking ledserial.
type SerialDriver struct {
	w    io.Writer
	leds led.LEDs
}

var _ Driver = (*SerialDriver)(nil)

// NewSerialDriver creates a driver for numLEDs LEDs writing packets to w.
func NewSerialDriver(w io.Writer, numLEDs int) (*SerialDriver, error) {
	if numLEDs < 1 || numLEDs > MaxLEDs {
		return nil, errors.Errorf("LED count %d out of range [1, %d]", numLEDs, MaxLEDs)
	}
	return &SerialDriver{
		w:    w,
		leds: led.NewLEDs(numLEDs),
	}, nil
}

// Initialize tells the controller how many LEDs it drives.
func (d *SerialDriver) Initialize() error {
	return d.write(ledserial.InitializePacket{NumLEDs: uint16(len(d.leds))})
}

// Len implements Driver.
func (d *SerialDriver) Len() int { return len(d.leds) }

// LEDs returns the driver's buffer. Writing into it is equivalent to SetLED.
func (d *SerialDriver) LEDs() led.LEDs { return d.leds }

// SetLED implements Driver.
func (d *SerialDriver) SetLED(i int, c led.RGBColor) { d.leds.Set(i, c) }

// Fill implements Driver.
func (d *SerialDriver) Fill(c led.RGBColor) { d.leds.Fill(c) }

// SetBrightness implements Driver.
func (d *SerialDriver) SetBrightness(b uint8) error {
	return d.write(ledserial.BrightnessPacket{Level: b})
}

// Clear turns all LEDs off on the controller and in the buffer.
func (d *SerialDriver) Clear() error {
	d.leds.Clear()
	return d.write(ledserial.ClearPacket{})
}

// Show implements Driver.
func (d *SerialDriver) Show() error {
	return d.write(ledserial.SetPacket{Pix: d.leds.AsPixels()})
}

func (d *SerialDriver) write(p ledserial.IncomingPacket) error {
	if err := ledserial.WriteIncomingPacket(d.w, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return nil
}
