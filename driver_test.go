package lightwave

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/ledserial"
)

func TestSerialDriver(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	d, err := NewSerialDriver(&buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())

	require.NoError(t, d.Initialize())
	require.NoError(t, d.SetBrightness(128))

	d.Fill(led.RGB(1, 2, 3))
	d.SetLED(2, led.RGB(255, 0, 0))
	d.SetLED(99, led.RGB(255, 255, 255))
	require.NoError(t, d.Show())

	require.NoError(t, d.Clear())
	assert.True(t, d.LEDs()[2].IsBlack())

	readCtx := ledserial.ReadContext{NumLEDs: 4}
	expect := []ledserial.IncomingPacket{
		ledserial.InitializePacket{NumLEDs: 4},
		ledserial.BrightnessPacket{Level: 128},
		ledserial.SetPacket{Pix: []uint8{
			1, 2, 3,
			1, 2, 3,
			255, 0, 0,
			1, 2, 3,
		}},
		ledserial.ClearPacket{},
	}

	for _, want := range expect {
		p, err := ledserial.ReadIncomingPacket(&buf, readCtx)
		require.NoError(t, err)
		assert.Equal(t, want, p)
	}
	assert.Zero(t, buf.Len())
}

func TestSerialDriverLEDCount(t *testing.T) {
	t.Parallel()

	_, err := NewSerialDriver(&bytes.Buffer{}, 0)
	assert.Error(t, err)

	_, err = NewSerialDriver(&bytes.Buffer{}, MaxLEDs+1)
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestSerialDriverWriteError(t *testing.T) {
	t.Parallel()

	d, err := NewSerialDriver(failingWriter{}, 1)
	require.NoError(t, err)

	err = d.Show()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "set")
}
