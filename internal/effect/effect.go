// Package effect defines the contract between the scheduler and the
// rendering modules ("effects"), along with the per-frame Context they
// render into.
//
// An effect is a state machine driven once per frame:
//
//	Registered -> Initialized -> Rendering -> CleanedUp
//
// Init may fail, in which case the effect is never rendered. All
// allocation happens in Init; Render runs within the frame budget and
// writes only into Context.LEDs.
package effect

import (
	"fmt"

	"github.com/pkg/errors"
)

// Effect is a single rendering module.
type Effect interface {
	// Init prepares the effect for rendering and resets its state. It
	// returns false if the effect cannot run.
	Init(ctx *Context) bool
	// Render draws a frame into ctx.LEDs. It must not block or allocate.
	Render(ctx *Context)
	// Cleanup releases what Init acquired. It must be safe to call more
	// than once and on an effect whose Init failed.
	Cleanup()
	// Metadata describes the effect. It is pure.
	Metadata() Metadata
}

// Category groups effects by their character.
type Category uint8

const (
	Uncategorized Category = iota
	Ambient
	Geometric
	Party
	Quantum
	Shockwave
	Water
)

func (c Category) String() string {
	switch c {
	case Uncategorized:
		return "uncategorized"
	case Ambient:
		return "ambient"
	case Geometric:
		return "geometric"
	case Party:
		return "party"
	case Quantum:
		return "quantum"
	case Shockwave:
		return "shockwave"
	case Water:
		return "water"
	default:
		return fmt.Sprintf("Category(%d)", c)
	}
}

// Metadata describes an effect.
type Metadata struct {
	Name        string
	Description string
	Category    Category
	Version     uint8
	Author      string // optional
}

// State is the lifecycle state of an effect instance.
type State uint8

const (
	StateRegistered State = iota
	StateInitialized
	StateRendering
	StateCleanedUp
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateRendering:
		return "rendering"
	case StateCleanedUp:
		return "cleaned-up"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// ErrInitFailed is returned when an effect refuses to initialize.
var ErrInitFailed = errors.New("effect failed to initialize")

// Instance wraps an Effect and enforces its lifecycle: Render is only
// forwarded after a successful Init.
type Instance struct {
	id     ID
	effect Effect
	state  State
}

// NewInstance wraps e.
func NewInstance(id ID, e Effect) *Instance {
	return &Instance{id: id, effect: e}
}

// ID returns the registry ID of the instance.
func (in *Instance) ID() ID { return in.id }

// Effect returns the wrapped effect.
func (in *Instance) Effect() Effect { return in.effect }

// State returns the current lifecycle state.
func (in *Instance) State() State { return in.state }

// Metadata returns the effect's metadata.
func (in *Instance) Metadata() Metadata { return in.effect.Metadata() }

// Ready returns true if Render will be forwarded.
func (in *Instance) Ready() bool {
	return in.state == StateInitialized || in.state == StateRendering
}

// Init initializes the effect. Initializing a ready instance is a no-op. A
// failed or cleaned up instance may be initialized again.
func (in *Instance) Init(ctx *Context) error {
	if in.Ready() {
		return nil
	}
	if !in.effect.Init(ctx) {
		in.state = StateFailed
		return errors.Wrapf(ErrInitFailed, "effect %q", in.effect.Metadata().Name)
	}
	in.state = StateInitialized
	return nil
}

// Render renders a frame if the instance is ready, and reports whether it
// did.
func (in *Instance) Render(ctx *Context) bool {
	if !in.Ready() {
		return false
	}
	in.state = StateRendering
	in.effect.Render(ctx)
	return true
}

// Cleanup cleans up the effect. Repeated calls are no-ops.
func (in *Instance) Cleanup() {
	if in.state == StateCleanedUp {
		return
	}
	in.effect.Cleanup()
	in.state = StateCleanedUp
}
