package lightwave

import (
	"encoding"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/zone"
)

// MaxLEDs is the largest LED buffer the daemon and driver allocate.
const MaxLEDs = 1024

// Config is the configuration for the lightwave daemon.
type Config struct {
	// Device is the path to the device file of the LED controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// Rate is the number of frames rendered per second.
	Rate int `toml:"rate"`
	// MaxBrightness caps the brightness the controller drives the LEDs at,
	// independent of the brightness dial.
	MaxBrightness int `toml:"max_brightness"`

	// Strip describes the physical layout.
	Strip StripConfig `toml:"strip"`

	// Effect is the name of the effect to run on the whole strip. It is
	// ignored when zones are enabled.
	Effect string `toml:"effect"`
	// Palette is the name of the global palette.
	Palette string `toml:"palette"`
	// HueInterval is how often the global hue advances by one step.
	HueInterval TOMLDuration `toml:"hue_interval"`

	// Params are the global dials.
	Params ParamsConfig `toml:"params"`
	// Zones configures the zone composer. Leave empty to render a single
	// effect over the whole strip.
	Zones []ZoneConfig `toml:"zone"`

	// Audio selects the audio analysis source.
	Audio AudioConfig `toml:"audio"`
}

// StripConfig describes the two mirrored strips.
type StripConfig struct {
	// Length is the number of LEDs on one strip. The center lies between
	// LED Length/2-1 and LED Length/2.
	Length int `toml:"length"`
	// Count is the number of strips chained on the data line, 1 or 2.
	Count int `toml:"count"`
}

// ParamsConfig are the global 0-255 dials.
type ParamsConfig struct {
	Brightness int `toml:"brightness"`
	Speed      int `toml:"speed"`
	Intensity  int `toml:"intensity"`
	Saturation int `toml:"saturation"`
	Complexity int `toml:"complexity"`
	Variation  int `toml:"variation"`
	Mood       int `toml:"mood"`
}

// ZoneConfig is the configuration of a single zone, innermost first.
type ZoneConfig struct {
	Effect     string         `toml:"effect"`
	Enabled    bool           `toml:"enabled" default:"true"`
	Brightness int            `toml:"brightness" default:"255"`
	Speed      int            `toml:"speed" default:"128"`
	Blend      zone.BlendMode `toml:"blend"`
	Band       zone.AudioBand `toml:"band"`
	// Palette overrides the global palette for this zone.
	Palette string `toml:"palette"`
}

// AudioSource names an audio analysis source.
type AudioSource string

const (
	// NoAudio runs every effect in its no-audio fallback.
	NoAudio AudioSource = "none"
	// MetronomeAudio synthesizes a steady beat.
	MetronomeAudio AudioSource = "metronome"
)

// AudioConfig configures the audio analysis source.
type AudioConfig struct {
	Source AudioSource `toml:"source"`
	// BPM is the tempo of the metronome source.
	BPM float64 `toml:"bpm"`
	// Hop is the analysis hop interval of the metronome source.
	Hop TOMLDuration `toml:"hop"`
}

// DefaultConfig returns the configuration values used for keys missing from
// the configuration file.
func DefaultConfig() Config {
	return Config{
		Baud:          115200,
		Rate:          60,
		MaxBrightness: 255,
		Strip:         StripConfig{Length: 160, Count: 2},
		Effect:        "Ripple",
		Palette:       "sunset",
		HueInterval:   TOMLDuration(20 * time.Millisecond),
		Params: ParamsConfig{
			Brightness: int(effect.DefaultParams.Brightness),
			Speed:      int(effect.DefaultParams.Speed),
			Intensity:  int(effect.DefaultParams.Intensity),
			Saturation: int(effect.DefaultParams.Saturation),
			Complexity: int(effect.DefaultParams.Complexity),
			Variation:  int(effect.DefaultParams.Variation),
			Mood:       int(effect.DefaultParams.Mood),
		},
		Audio: AudioConfig{
			Source: NoAudio,
			BPM:    120,
			Hop:    TOMLDuration(20 * time.Millisecond),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Rate < 1 || c.Rate > 1000 {
		return errors.Errorf("frame rate %d out of range [1, 1000]", c.Rate)
	}

	if c.MaxBrightness < 0 || c.MaxBrightness > 255 {
		return errors.Errorf("max_brightness %d out of range [0, 255]", c.MaxBrightness)
	}

	if c.Strip.Length < 2 || c.Strip.Length%2 != 0 {
		return errors.Errorf("strip length %d must be even and at least 2", c.Strip.Length)
	}
	if c.Strip.Count != 1 && c.Strip.Count != 2 {
		return errors.Errorf("strip count %d must be 1 or 2", c.Strip.Count)
	}
	if c.NumLEDs() > MaxLEDs {
		return errors.Errorf("%d LEDs configured, at most %d supported", c.NumLEDs(), MaxLEDs)
	}

	dials := []struct {
		name  string
		value int
	}{
		{"brightness", c.Params.Brightness},
		{"speed", c.Params.Speed},
		{"intensity", c.Params.Intensity},
		{"saturation", c.Params.Saturation},
		{"complexity", c.Params.Complexity},
		{"variation", c.Params.Variation},
		{"mood", c.Params.Mood},
	}
	for _, dial := range dials {
		if dial.value < 0 || dial.value > 255 {
			return errors.Errorf("param %s = %d out of range [0, 255]", dial.name, dial.value)
		}
	}

	if c.HueInterval < 0 {
		return errors.New("hue_interval must not be negative")
	}

	if len(c.Zones) > zone.MaxZones {
		return errors.Errorf("%d zones configured, at most %d supported", len(c.Zones), zone.MaxZones)
	}
	for i, z := range c.Zones {
		if z.Effect == "" {
			return errors.Errorf("zone %d: missing effect", i)
		}
		if z.Brightness < 0 || z.Brightness > 255 {
			return errors.Errorf("zone %d: brightness %d out of range [0, 255]", i, z.Brightness)
		}
		if z.Speed < 0 || z.Speed > 255 {
			return errors.Errorf("zone %d: speed %d out of range [0, 255]", i, z.Speed)
		}
	}
	if len(c.Zones) > 0 && c.Strip.Length/2 < len(c.Zones) {
		return errors.Errorf("strip too short for %d zones", len(c.Zones))
	}

	switch c.Audio.Source {
	case NoAudio, "":
	case MetronomeAudio:
		if c.Audio.BPM <= 0 || c.Audio.BPM > 400 {
			return errors.Errorf("metronome bpm %g out of range (0, 400]", c.Audio.BPM)
		}
		if c.Audio.Hop <= 0 {
			return errors.New("audio hop must be positive")
		}
	default:
		return errors.Errorf("unknown audio source %q", c.Audio.Source)
	}

	return nil
}

// NumLEDs returns the number of LEDs configured.
func (c *Config) NumLEDs() int {
	return c.Strip.Length * c.Strip.Count
}

// CenterPoint returns the center index of a strip.
func (c *Config) CenterPoint() int {
	return c.Strip.Length / 2
}

// EffectParams converts the configured dials.
func (c *Config) EffectParams() effect.Params {
	return effect.Params{
		Brightness: uint8(c.Params.Brightness),
		Speed:      uint8(c.Params.Speed),
		Intensity:  uint8(c.Params.Intensity),
		Saturation: uint8(c.Params.Saturation),
		Complexity: uint8(c.Params.Complexity),
		Variation:  uint8(c.Params.Variation),
		Mood:       uint8(c.Params.Mood),
	}
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Missing keys keep their
// DefaultConfig values.
func ParseConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	if err := toml.NewDecoder(r).Strict(true).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
