package lightwave

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/lightwave/internal/effect"
	"libdb.so/lightwave/internal/led"
	"libdb.so/lightwave/internal/palette"
	"libdb.so/lightwave/internal/smooth"
	"libdb.so/lightwave/internal/zone"
)

// Animator renders frames.
type Animator interface {
	// Frame renders the next frame dt after the previous one and returns
	// the output buffer. The buffer is reused by the next call.
	Frame(dt time.Duration, audio effect.AudioContext) led.LEDs
}

// Scheduler owns the effect context and drives either a single effect over
// the whole strip or the zone composer, once per frame.
type Scheduler struct {
	registry *effect.Registry
	logger   *slog.Logger

	ctx      effect.Context
	active   *effect.Instance
	composer *zone.Composer

	hueInterval uint32 // ms, 0 disables
	hueElapsed  uint32

	lastHop uint32
	seenHop bool
}

var _ Animator = (*Scheduler)(nil)

// NewScheduler creates a scheduler for cfg and activates the configured
// effect or zones. Zones whose effect fails to initialize are logged and
// left disabled.
func NewScheduler(cfg *Config, registry *effect.Registry, logger *slog.Logger) (*Scheduler, error) {
	pal, ok := palette.Lookup(cfg.Palette)
	if !ok {
		return nil, errors.Errorf("unknown palette %q", cfg.Palette)
	}

	s := &Scheduler{
		registry:    registry,
		logger:      logger,
		hueInterval: uint32(time.Duration(cfg.HueInterval).Milliseconds()),
	}

	s.ctx = effect.Context{
		// Both strips are always modeled, even if only one is connected.
		LEDs:        led.NewLEDs(2 * cfg.Strip.Length),
		CenterPoint: cfg.CenterPoint(),
		Palette:     pal,
		Params:      cfg.EffectParams(),
		ZoneID:      effect.NoZone,
	}

	if len(cfg.Zones) > 0 {
		if err := s.setupZones(cfg); err != nil {
			return nil, err
		}
		return s, nil
	}

	id, ok := registry.LookupName(cfg.Effect)
	if !ok {
		return nil, errors.Errorf("unknown effect %q", cfg.Effect)
	}
	if err := s.Activate(id); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) setupZones(cfg *Config) error {
	layout, err := zone.Layout(cfg.CenterPoint(), len(cfg.Zones))
	if err != nil {
		return errors.Wrap(err, "invalid zone layout")
	}

	s.composer = zone.NewComposer(s.registry, layout)

	for i, zc := range cfg.Zones {
		id, ok := s.registry.LookupName(zc.Effect)
		if !ok {
			return errors.Errorf("zone %d: unknown effect %q", i, zc.Effect)
		}

		z := zone.Zone{
			Effect:     id,
			Enabled:    zc.Enabled,
			Brightness: uint8(zc.Brightness),
			Speed:      uint8(zc.Speed),
			Blend:      zc.Blend,
			Band:       zc.Band,
		}
		if zc.Palette != "" {
			pal, ok := palette.Lookup(zc.Palette)
			if !ok {
				return errors.Errorf("zone %d: unknown palette %q", i, zc.Palette)
			}
			z.Palette = pal
		}

		if err := s.composer.SetZone(i, z, &s.ctx); err != nil {
			s.logger.Warn(
				"zone disabled",
				"zone", i,
				"effect", zc.Effect,
				"error", err)
			continue
		}

		s.logger.Debug(
			"zone configured",
			"zone", i,
			"segment", s.composer.Segment(i).String(),
			"effect", zc.Effect,
			"blend", zc.Blend)
	}

	return nil
}

// Activate switches the whole-strip effect. The previous effect keeps
// running if the new one fails to initialize.
func (s *Scheduler) Activate(id effect.ID) error {
	in, ok := s.registry.Lookup(id)
	if !ok {
		return errors.Errorf("unknown effect %d", id)
	}
	if in == s.active && in.Ready() {
		return nil
	}

	if err := in.Init(&s.ctx); err != nil {
		s.logger.Warn(
			"effect failed to initialize",
			"effect", in.Metadata().Name,
			"error", err)
		return err
	}

	if s.active != nil && s.active != in {
		s.active.Cleanup()
	}
	s.active = in
	s.ctx.LEDs.Clear()

	s.logger.Debug(
		"effect activated",
		"effect", in.Metadata().Name,
		"category", in.Metadata().Category)
	return nil
}

// Active returns the whole-strip effect, or nil when zones are in use.
func (s *Scheduler) Active() *effect.Instance { return s.active }

// Composer returns the zone composer, or nil when a single effect runs.
func (s *Scheduler) Composer() *zone.Composer { return s.composer }

// Context returns the frame context.
func (s *Scheduler) Context() *effect.Context { return &s.ctx }

// SetParams replaces the global dials from the next frame on.
func (s *Scheduler) SetParams(p effect.Params) { s.ctx.Params = p }

// SetPalette replaces the global palette from the next frame on.
func (s *Scheduler) SetPalette(p effect.Palette) { s.ctx.Palette = p }

// Frame implements Animator.
func (s *Scheduler) Frame(dt time.Duration, audio effect.AudioContext) led.LEDs {
	ms := uint32(clampDuration(dt, smooth.MinDelta, smooth.MaxDelta).Milliseconds())

	s.ctx.DeltaTimeMs = ms
	s.ctx.TotalTimeMs += ms
	s.ctx.FrameNumber++

	if s.hueInterval > 0 {
		s.hueElapsed += ms
		for s.hueElapsed >= s.hueInterval {
			s.ctx.Hue++
			s.hueElapsed -= s.hueInterval
		}
	}

	// Beat ticks belong to a hop. Only the first frame that sees the hop
	// gets them.
	if s.seenHop && audio.HopSeq == s.lastHop {
		audio.OnBeat = false
		audio.OnDownbeat = false
	}
	s.lastHop = audio.HopSeq
	s.seenHop = true
	s.ctx.Audio = audio

	switch {
	case s.composer != nil:
		s.composer.Render(&s.ctx)
	case s.active != nil:
		s.active.Render(&s.ctx)
	default:
		s.ctx.LEDs.Clear()
	}

	return s.ctx.LEDs
}

// Close cleans up every running effect.
func (s *Scheduler) Close() {
	if s.active != nil {
		s.active.Cleanup()
		s.active = nil
	}
	if s.composer != nil {
		s.composer.Cleanup()
	}
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	return max(lo, min(hi, d))
}
