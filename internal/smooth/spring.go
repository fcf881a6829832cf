package smooth

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// Spring is a critically damped spring that chases a target without
// overshoot. Damping is always 2*sqrt(stiffness*mass).
type Spring struct {
	Position float64
	Velocity float64

	stiffness float64
	mass      float64

	// coefficients for lastDt, recomputed when the frame time changes.
	spring harmonica.Spring
	lastDt float64
}

// NewSpring creates a spring at rest at position 0. A non-positive mass is
// treated as 1.
func NewSpring(stiffness, mass float64) Spring {
	if mass <= 0 || mass != mass {
		mass = 1
	}
	if stiffness < 0 || stiffness != stiffness {
		stiffness = 0
	}
	return Spring{stiffness: stiffness, mass: mass}
}

// Stiffness returns the spring constant.
func (s *Spring) Stiffness() float64 { return s.stiffness }

// Mass returns the mass.
func (s *Spring) Mass() float64 { return s.mass }

// Damping returns the critical damping coefficient.
func (s *Spring) Damping() float64 {
	return 2 * math.Sqrt(s.stiffness*s.mass)
}

// Update steps the spring towards target by dt seconds and returns the new
// position.
func (s *Spring) Update(target, dt float64) float64 {
	if !isFinite(target) || dt <= 0 {
		return s.Position
	}
	if !isFinite(s.Position) || !isFinite(s.Velocity) {
		s.Position = target
		s.Velocity = 0
		return s.Position
	}

	if dt != s.lastDt {
		omega := math.Sqrt(s.stiffness / s.mass)
		s.spring = harmonica.NewSpring(dt, omega, 1.0)
		s.lastDt = dt
	}

	s.Position, s.Velocity = s.spring.Update(s.Position, s.Velocity, target)
	return s.Position
}

// Reset places the spring at pos with zero velocity.
func (s *Spring) Reset(pos float64) {
	s.Position = pos
	s.Velocity = 0
}
