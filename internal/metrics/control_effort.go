package metrics

import (
	"math"

	"github.com/san-kum/thrustsim/internal/thruster"
)

// ControlEffort is the mean absolute torque the controller applied.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) ObserveStep(r thruster.StepReport) {
	c.sum += math.Abs(r.Torque)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
