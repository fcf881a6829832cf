// Package lightwave is a daemon that renders center-origin LED effects and
// streams them to an LED controller over a serial port.
package lightwave

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/lightwave/internal/audio"
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/ledvis"
	"libdb.so/lightwave/ledserial"
)

// Daemon is the main lightwave daemon.
type Daemon struct {
	cfg      *Config
	logger   *slog.Logger
	registry *effect.Registry
	bus      *audio.Bus
}

// NewDaemon creates a new lightwave daemon.
func NewDaemon(cfg *Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		registry: ledvis.NewRegistry(),
		bus:      audio.NewBus(),
	}, nil
}

// Registry returns the effects available to the daemon.
func (d *Daemon) Registry() *effect.Registry { return d.registry }

// AudioBus returns the bus the render loop reads audio analysis from.
// External analysis pipelines publish into it.
func (d *Daemon) AudioBus() *audio.Bus { return d.bus }

// Run opens the configured serial port and serves it. It blocks until the
// given context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	port, err := serial.Open(d.cfg.Device, &serial.Mode{
		BaudRate: d.cfg.Baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}

	return d.Serve(ctx, port)
}

// Serve runs a session with the LED controller on the given port until the
// context is canceled or the controller fails. Serve owns the port and closes
// it exactly once, whatever the outcome.
func (d *Daemon) Serve(ctx context.Context, port io.ReadWriteCloser) error {
	scheduler, err := NewScheduler(d.cfg, d.registry, d.logger)
	if err != nil {
		port.Close()
		return errors.Wrap(err, "failed to create scheduler")
	}
	defer scheduler.Close()

	driver, err := NewSerialDriver(port, d.cfg.NumLEDs())
	if err != nil {
		port.Close()
		return err
	}

	s := &session{
		Daemon:    d,
		port:      port,
		driver:    driver,
		scheduler: scheduler,
	}
	return s.run(ctx)
}

func (d *Daemon) audioSource() audio.Source {
	switch d.cfg.Audio.Source {
	case MetronomeAudio:
		return audio.NewMetronome(d.cfg.Audio.BPM, time.Duration(d.cfg.Audio.Hop))
	default:
		return nil
	}
}

// startupDelay gives the controller's reader time to come up before the
// first packet.
var startupDelay = 100 * time.Millisecond

// maxEmptyReads is how many consecutive empty reads are taken as timeouts
// before the controller is considered disconnected.
const maxEmptyReads = 1000

type session struct {
	*Daemon
	port      io.ReadWriteCloser
	driver    *SerialDriver
	scheduler *Scheduler
}

func (d *session) run(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		d.logger.Debug("closing serial port")
		if err := d.port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})

	outPackets := make(chan ledserial.OutgoingPacket)
	errg.Go(func() error {
		return d.mainLoop(ctx, outPackets)
	})
	errg.Go(func() error {
		return d.readPackets(ctx, outPackets)
	})

	if source := d.audioSource(); source != nil {
		errg.Go(func() error {
			d.logger.Debug("starting audio source", "source", d.cfg.Audio.Source)
			return source.Run(ctx, d.bus)
		})
	}

	return errg.Wait()
}

func (d *session) mainLoop(ctx context.Context, packets <-chan ledserial.OutgoingPacket) error {
	d.logger.Debug("waiting for the read loop to start...", "delay", startupDelay)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(startupDelay):
	}

	// Every packet is acked; frames are only sent once nothing is in
	// flight.
	var inflight int

	d.logger.Debug("sending initialize packet")
	if err := d.driver.Initialize(); err != nil {
		return d.writeFailed(ctx, err)
	}
	inflight++

	if err := d.driver.SetBrightness(uint8(d.cfg.MaxBrightness)); err != nil {
		return d.writeFailed(ctx, err)
	}
	inflight++

	frameInterval := time.Second / time.Duration(d.cfg.Rate)
	frameTicker := time.NewTicker(frameInterval)
	defer frameTicker.Stop()

	var nextFrame <-chan time.Time // nil until the controller is ready
	var lastFrame time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case p := <-packets:
			d.logger.Debug("handling packet", "type", p.Type())

			switch p := p.(type) {
			case ledserial.AckPacket:
				d.logger.Debug(
					"received ack packet from controller",
					"acked_for", p.IncomingPacketType)
				inflight = max(inflight-1, 0)
				if inflight == 0 {
					nextFrame = frameTicker.C
				}

			case ledserial.ErrorPacket:
				d.logger.Warn(
					"received error packet from controller",
					"message", p.Message)
				return errors.New("controller reported error")

			case ledserial.PanicPacket:
				d.logger.Error("controller unrecoverably panicked")
				return errors.New("controller panicked")

			case ledserial.LogPacket:
				d.logger.Info(
					"received log packet from controller",
					"message", p.Message)

			default:
				return fmt.Errorf("received unknown packet from controller: %s", p.Type())
			}

		case now := <-nextFrame:
			dt := frameInterval
			if !lastFrame.IsZero() {
				dt = now.Sub(lastFrame)
			}
			lastFrame = now

			leds := d.scheduler.Frame(dt, d.bus.Snapshot())
			d.driver.LEDs().Draw(0, leds)

			if err := d.driver.Show(); err != nil {
				return d.writeFailed(ctx, err)
			}
			inflight++

			// Wait until we get an ack.
			nextFrame = nil
		}
	}
}

func (d *session) writeFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	d.logger.Warn("failed to write packet", "error", err)
	return err
}

func (d *session) readPackets(ctx context.Context, dst chan<- ledserial.OutgoingPacket) error {
	if port, ok := d.port.(interface{ SetReadTimeout(time.Duration) error }); ok {
		if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
			return errors.Wrap(err, "failed to reset read timeout")
		}
	}

	var emptyReads int

	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(d.port, ledserial.ReadContext{})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again, unless the stream is gone.
			if errors.Is(err, io.EOF) {
				if emptyReads++; emptyReads > maxEmptyReads {
					return errors.New("controller disconnected")
				}
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}
		emptyReads = 0

		d.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case dst <- p:
			// ok
		}
	}

	return ctx.Err()
}
