// Package ledserial implements the serial protocol between the lightwave
// daemon and the LED controller.
//
// Incoming packets travel from the daemon to the controller, outgoing
// packets from the controller back to the daemon. Every packet is a type
// byte, a little-endian body and a CRC-32 (IEEE) of both. The controller
// acknowledges every incoming packet with an AckPacket; the daemon does not
// send the next frame before that.
package ledserial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// IncomingPacketType is a type of packet.
type IncomingPacketType uint8

const (
	TypeInitializePacket IncomingPacketType = iota
	TypeClearPacket
	TypeSetPacket
	TypeBrightnessPacket
)

// String returns a string representation of the packet type.
func (t IncomingPacketType) String() string {
	switch t {
	case TypeInitializePacket:
		return "initialize"
	case TypeClearPacket:
		return "clear"
	case TypeSetPacket:
		return "set"
	case TypeBrightnessPacket:
		return "brightness"
	default:
		return fmt.Sprintf("IncomingPacketType(%d)", t)
	}
}

// IncomingPacket is a packet sent over the wire.
type IncomingPacket interface {
	// Type returns the type of packet.
	Type() IncomingPacketType
}

// InitializePacket is a packet that initializes the LED strip.
type InitializePacket struct {
	NumLEDs uint16
}

// ClearPacket is a packet that clears the LED strip.
type ClearPacket struct{}

// SetPacket is a packet that sets the LED strip to the given colors and
// shows them. Pix holds 3 bytes per LED.
type SetPacket struct {
	Pix []uint8
}

// BrightnessPacket is a packet that sets the global brightness the
// controller scales every pixel by.
type BrightnessPacket struct {
	Level uint8
}

func (p InitializePacket) Type() IncomingPacketType { return TypeInitializePacket }
func (p ClearPacket) Type() IncomingPacketType      { return TypeClearPacket }
func (p SetPacket) Type() IncomingPacketType        { return TypeSetPacket }
func (p BrightnessPacket) Type() IncomingPacketType { return TypeBrightnessPacket }

// OutgoingPacketType is a type of packet.
type OutgoingPacketType uint8

const (
	TypeErrorPacket OutgoingPacketType = iota
	TypePanicPacket
	TypeLogPacket
	TypeAckPacket
)

// String returns a string representation of the packet type.
func (t OutgoingPacketType) String() string {
	switch t {
	case TypeErrorPacket:
		return "error"
	case TypePanicPacket:
		return "panic"
	case TypeLogPacket:
		return "log"
	case TypeAckPacket:
		return "ack"
	default:
		return fmt.Sprintf("OutgoingPacketType(%d)", t)
	}
}

// OutgoingPacket is a packet sent over the wire.
type OutgoingPacket interface {
	// Type returns the type of packet.
	Type() OutgoingPacketType
}

// ErrorPacket is a packet that indicates an error occurred.
type ErrorPacket struct {
	Message string
}

// PanicPacket is a packet that indicates the program cannot recover.
type PanicPacket struct{}

// LogPacket is a packet that contains a log message.
type LogPacket struct {
	Message string
}

// AckPacket is a packet that acknowledges a handled incoming packet.
type AckPacket struct {
	IncomingPacketType IncomingPacketType
}

func (p ErrorPacket) Type() OutgoingPacketType { return TypeErrorPacket }
func (p PanicPacket) Type() OutgoingPacketType { return TypePanicPacket }
func (p LogPacket) Type() OutgoingPacketType   { return TypeLogPacket }
func (p AckPacket) Type() OutgoingPacketType   { return TypeAckPacket }

// ReadContext is the state of the LED strip. Data in this structure are
// required for the device to read incoming packets.
type ReadContext struct {
	// NumLEDs is the number of LEDs in the strip. It is ignored if
	// LEDBuffer is set.
	NumLEDs uint16
	// LEDBuffer, if not nil, receives the pixels of a SetPacket instead of
	// a newly allocated slice. It must hold 3 bytes per LED.
	LEDBuffer []byte
}

func (c ReadContext) pixelBuffer() []byte {
	if c.LEDBuffer != nil {
		return c.LEDBuffer
	}
	return make([]byte, 3*int(c.NumLEDs))
}

// ReadIncomingPacket reads an incoming packet from the given reader.
func ReadIncomingPacket(r io.Reader, context ReadContext) (IncomingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet IncomingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	switch ptype := IncomingPacketType(ptypeBuf[0]); ptype {
	case TypeInitializePacket:
		var p InitializePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read number of LEDs: %w", err)
		}
		packet = p

	case TypeClearPacket:
		var p ClearPacket
		packet = p

	case TypeSetPacket:
		var p SetPacket
		p.Pix = context.pixelBuffer()
		if _, err := io.ReadFull(r, p.Pix); err != nil {
			return nil, fmt.Errorf("failed to read pixel data: %w", err)
		}
		packet = p

	case TypeBrightnessPacket:
		var p BrightnessPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read brightness: %w", err)
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteIncomingPacket writes an incoming packet to the given writer.
func WriteIncomingPacket(w io.Writer, p IncomingPacket) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	switch p := p.(type) {
	case InitializePacket:
		if err := binary.Write(w, Endianness, TypeInitializePacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case ClearPacket:
		if err := binary.Write(w, Endianness, TypeClearPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
	case SetPacket:
		if err := binary.Write(w, Endianness, TypeSetPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if _, err := w.Write(p.Pix); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case BrightnessPacket:
		if err := binary.Write(w, Endianness, TypeBrightnessPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// ReadOutgoingPacket reads an outgoing packet from the given reader.
func ReadOutgoingPacket(r io.Reader, context ReadContext) (OutgoingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet OutgoingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read outgoing packet type: %w", err)
	}

	switch ptype := OutgoingPacketType(ptypeBuf[0]); ptype {
	case TypeErrorPacket:
		var p ErrorPacket
		var length uint16
		if err := binary.Read(r, Endianness, &length); err != nil {
			return nil, fmt.Errorf("failed to read error message length: %w", err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		p.Message = string(buf)
		packet = p

	case TypePanicPacket:
		var p PanicPacket
		packet = p

	case TypeAckPacket:
		var p AckPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read acked packet type: %w", err)
		}
		packet = p

	case TypeLogPacket:
		var p LogPacket
		var length uint16
		if err := binary.Read(r, Endianness, &length); err != nil {
			return nil, fmt.Errorf("failed to read log message length: %w", err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read log message: %w", err)
		}
		p.Message = string(buf)
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteOutgoingPacket writes an outgoing packet to the given writer.
func WriteOutgoingPacket(w io.Writer, p OutgoingPacket) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	switch p := p.(type) {
	case ErrorPacket:
		if err := binary.Write(w, Endianness, TypeErrorPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, uint16(len(p.Message))); err != nil {
			return fmt.Errorf("failed to write error message length: %w", err)
		}
		if _, err := w.Write([]byte(p.Message)); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	case PanicPacket:
		if err := binary.Write(w, Endianness, TypePanicPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
	case AckPacket:
		if err := binary.Write(w, Endianness, TypeAckPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, p.IncomingPacketType); err != nil {
			return fmt.Errorf("failed to write acked packet type: %w", err)
		}
	case LogPacket:
		if err := binary.Write(w, Endianness, TypeLogPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, uint16(len(p.Message))); err != nil {
			return fmt.Errorf("failed to write log message length: %w", err)
		}
		if _, err := w.Write([]byte(p.Message)); err != nil {
			return fmt.Errorf("failed to write log message: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// ErrChecksumMismatch is returned when a packet's trailer does not match its
// contents.
var ErrChecksumMismatch = errors.New("packet checksum mismatch")

// readChecksum reads the CRC-32 trailer. The expected sum must be taken
// before the trailer passes through the hashing reader.
func readChecksum(r io.Reader, want uint32) error {
	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return fmt.Errorf("failed to read packet checksum: %w", err)
	}
	if checksum != want {
		return ErrChecksumMismatch
	}
	return nil
}
