package sim

import "github.com/san-kum/thrustsim/internal/thruster"

// Host owns the bodies: systems read and push on them during a step and the
// host integrates afterwards.
type Host interface {
	thruster.BodyReader
	thruster.WrenchApplier
	Step(dt float64) error
}

// System runs before the host integrates each step.
type System interface {
	PreUpdate(info thruster.UpdateInfo, bodies thruster.BodyReader, sink thruster.WrenchApplier)
}

// Observer sees every step after the host has integrated it.
type Observer interface {
	OnStep(info thruster.UpdateInfo)
}

// Pause holds the simulation for Steps iterations starting at iteration At.
// Sim time does not advance while paused.
type Pause struct {
	At    uint64 `yaml:"at"`
	Steps uint64 `yaml:"steps"`
}

type Config struct {
	Dt       float64
	Duration float64
	Pauses   []Pause
}

func (c Config) paused(iteration uint64) bool {
	for _, p := range c.Pauses {
		if iteration >= p.At && iteration < p.At+p.Steps {
			return true
		}
	}
	return false
}

type Stats struct {
	Iterations  uint64
	StepsTaken  uint64
	PausedSteps uint64
	SimTime     float64
}
