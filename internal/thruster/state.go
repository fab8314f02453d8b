package thruster

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// State is the thruster's physical parameters plus the latest thrust
// command. Only the command is mutable after construction; it is shared
// between the command handler and the step and guarded by mu.
type State struct {
	// ThrustCoefficient relates propeller angular velocity to thrust.
	ThrustCoefficient float64
	// FluidDensity in kg/m^3.
	FluidDensity float64
	// PropellerDiameter in m.
	PropellerDiameter float64
	// CommandMin and CommandMax bound the accepted thrust command in N.
	CommandMin float64
	CommandMax float64
	// Axis is the unit propeller axis in the driven link's frame.
	Axis mgl64.Vec3

	mu      sync.Mutex
	command float64
}

// NewState validates the parameters and returns a state whose command is
// zero clamped into [cmdMin, cmdMax].
func NewState(coeff, density, diameter, cmdMin, cmdMax float64, axis mgl64.Vec3) (*State, error) {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"thrust_coefficient", coeff},
		{"fluid_density", density},
		{"propeller_diameter", diameter},
	} {
		if !isFinite(p.value) || p.value <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidParameter, p.name, p.value)
		}
	}
	if !isFinite(cmdMin) || !isFinite(cmdMax) || cmdMin >= cmdMax {
		return nil, fmt.Errorf("%w: command bounds [%v, %v]", ErrInvalidParameter, cmdMin, cmdMax)
	}
	l := axis.Len()
	if !isFinite(l) || l == 0 {
		return nil, fmt.Errorf("%w: joint axis %v has no direction", ErrInvalidParameter, axis)
	}

	s := &State{
		ThrustCoefficient: coeff,
		FluidDensity:      density,
		PropellerDiameter: diameter,
		CommandMin:        cmdMin,
		CommandMax:        cmdMax,
		Axis:              axis.Mul(1 / l),
	}
	if d := s.denominator(); d <= 0 || !isFinite(d) {
		return nil, fmt.Errorf("%w: rho*Kt*D^4 = %v is out of range", ErrInvalidParameter, d)
	}
	s.command = s.clamp(0)
	return s, nil
}

// SetThrustCommand stores value as the new command. NaN counts as zero and
// the result is clamped to [CommandMin, CommandMax]; the last call wins.
func (s *State) SetThrustCommand(value float64) {
	v := s.clamp(value)

	s.mu.Lock()
	s.command = v
	s.mu.Unlock()
}

// ThrustCommand returns the current command in N.
func (s *State) ThrustCommand() float64 {
	s.mu.Lock()
	v := s.command
	s.mu.Unlock()
	return v
}

func (s *State) clamp(v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	return math.Max(s.CommandMin, math.Min(s.CommandMax, v))
}

// ThrustToAngularVelocity returns the propeller angular velocity in rad/s
// that produces thrust N. Thrust grows with the square of the rotation rate
// (Fossen, Guidance and Control of Ocean Vehicles, p. 246), so
// w = sign(T) * sqrt(|T| / (rho * Kt * D^4)).
func (s *State) ThrustToAngularVelocity(thrust float64) float64 {
	if thrust == 0 {
		return 0
	}
	w := math.Sqrt(math.Abs(thrust) / s.denominator())
	if thrust < 0 {
		return -w
	}
	return w
}

// AngularVelocityToThrust is the inverse of ThrustToAngularVelocity.
func (s *State) AngularVelocityToThrust(w float64) float64 {
	if w == 0 {
		return 0
	}
	t := w * w * s.denominator()
	if w < 0 {
		return -t
	}
	return t
}

func (s *State) denominator() float64 {
	return s.FluidDensity * s.ThrustCoefficient * math.Pow(s.PropellerDiameter, 4)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
