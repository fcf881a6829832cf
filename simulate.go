package lightwave

import (
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"libdb.so/lightwave/internal/audio"
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
)

// SimulationReport summarizes a headless run.
type SimulationReport struct {
	Frames int
	// Hops is the number of audio hops published during the run.
	Hops int
	// Beats is the number of frames that saw a beat tick.
	Beats int
	// Level is the mean channel value of every frame, 0 to 1.
	Level []float64

	MeanLevel   float64
	StdDevLevel float64
	PeakLevel   float64
	PeakFrame   int
	// Asymmetric counts frames that are not mirrored around the center of
	// each strip.
	Asymmetric int
}

// Simulate renders frames frames at the configured rate without a
// controller. Audio comes from a metronome when one is configured and is
// unavailable otherwise.
func Simulate(cfg *Config, registry *effect.Registry, logger *slog.Logger, frames int) (*SimulationReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if frames < 1 {
		return nil, errors.New("at least one frame must be simulated")
	}

	scheduler, err := NewScheduler(cfg, registry, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scheduler")
	}
	defer scheduler.Close()

	var now time.Duration
	bus := audio.NewBusWithClock(func() time.Time { return time.Unix(0, 0).Add(now) })

	var metronome *audio.Metronome
	var nextHop time.Duration
	if cfg.Audio.Source == MetronomeAudio {
		metronome = audio.NewMetronome(cfg.Audio.BPM, time.Duration(cfg.Audio.Hop))
	}

	frameInterval := time.Second / time.Duration(cfg.Rate)
	report := &SimulationReport{
		Frames: frames,
		Level:  make([]float64, frames),
	}

	for frame := 0; frame < frames; frame++ {
		now += frameInterval

		if metronome != nil {
			for nextHop <= now {
				bus.Publish(metronome.Analyze(nextHop))
				nextHop += metronome.Hop
				report.Hops++
			}
		}

		leds := scheduler.Frame(frameInterval, bus.Snapshot())
		if scheduler.Context().Audio.OnBeat {
			report.Beats++
		}

		report.Level[frame] = meanLevel(leds)
		if !isMirrored(leds, cfg.Strip.Length) {
			report.Asymmetric++
		}
	}

	n := float64(frames)
	report.MeanLevel = floats.Sum(report.Level) / n

	dev := make([]float64, frames)
	copy(dev, report.Level)
	floats.AddConst(-report.MeanLevel, dev)
	report.StdDevLevel = math.Sqrt(floats.Dot(dev, dev) / n)

	report.PeakFrame = floats.MaxIdx(report.Level)
	report.PeakLevel = report.Level[report.PeakFrame]

	return report, nil
}

func meanLevel(leds led.LEDs) float64 {
	pix := leds.AsPixels()
	if len(pix) == 0 {
		return 0
	}

	var sum int
	for _, v := range pix {
		sum += int(v)
	}
	return float64(sum) / float64(255*len(pix))
}

func isMirrored(leds led.LEDs, stripLength int) bool {
	for start := 0; start+stripLength <= len(leds); start += stripLength {
		strip := leds[start : start+stripLength]
		for i := 0; i < stripLength/2; i++ {
			if strip[i] != strip[stripLength-1-i] {
				return false
			}
		}
	}
	return true
}
