package main

import (
	"fmt"
	"machine"

	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/ledserial"
	"tinygo.org/x/drivers/ws2812"
)

// Device stores the current state of the device.
type Device struct {
	serial SerialReadWriter
	led    ws2812.Device

	ledBuffer  []byte
	brightness uint8
}

// NewDevice creates a new device.
func NewDevice(serial machine.Serialer, ledPin machine.Pin) *Device {
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Device{
		serial:     WrapSerial(serial),
		led:        ws2812.New(ledPin),
		brightness: 255,
	}
}

// Run runs the device loop forever.
func (d *Device) Run() {
	for {
		p, err := d.readPacket()
		if err != nil {
			d.logError(err)
			continue
		}

		if err := d.handlePacket(p); err != nil {
			d.logError(err)
		}
	}
}

func (d *Device) log(msg string) {
	d.sendPacket(ledserial.LogPacket{Message: msg})
}

func (d *Device) logError(err error) {
	d.sendPacket(ledserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) sendPacket(p ledserial.OutgoingPacket) {
	ledserial.WriteOutgoingPacket(d.serial, p)
}

func (d *Device) readPacket() (ledserial.IncomingPacket, error) {
	turnOnMainLED(255, 255, 255)

	p, err := ledserial.ReadIncomingPacket(d.serial, ledserial.ReadContext{
		LEDBuffer: d.ledBuffer,
	})

	turnOffMainLED()
	return p, err
}

func (d *Device) handlePacket(p ledserial.IncomingPacket) error {
	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		d.ledBuffer = make([]byte, 3*int(p.NumLEDs))
		d.clearLEDs(true)
		d.log(fmt.Sprintf("initialized %d LEDs", p.NumLEDs))

	case ledserial.ClearPacket:
		d.clearLEDs(false)

	case ledserial.SetPacket:
		if d.ledBuffer == nil {
			return fmt.Errorf("set before initialize")
		}
		for _, b := range p.Pix {
			d.led.WriteByte(led.Scale8(b, d.brightness))
		}

	case ledserial.BrightnessPacket:
		d.brightness = p.Level

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	d.sendPacket(ledserial.AckPacket{
		IncomingPacketType: p.Type(),
	})
	return nil
}

func (d *Device) clearLEDs(signalReady bool) {
	n := len(d.ledBuffer) / 3
	if n == 0 {
		return
	}

	for i := 0; i < n; i++ {
		switch {
		case signalReady && i == 0:
			writeLEDRGB(d.led, 255, 0, 0) // red
		case signalReady && i == n-1:
			writeLEDRGB(d.led, 0, 0, 255) // blue
		default:
			writeLEDRGB(d.led, 0, 0, 0)
		}
	}
}

func writeLEDRGB(dev ws2812.Device, r, g, b uint8) {
	dev.WriteByte(r)
	dev.WriteByte(g)
	dev.WriteByte(b)
}
