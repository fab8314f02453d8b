package metrics

import (
	"math"

	"github.com/san-kum/thrustsim/internal/thruster"
)

// DeadbandRatio is the fraction of steps whose speed error fell inside the
// dead-band.
type DeadbandRatio struct {
	inside  int
	samples int
}

func NewDeadbandRatio() *DeadbandRatio { return &DeadbandRatio{} }

func (d *DeadbandRatio) Name() string { return "deadband_ratio" }

func (d *DeadbandRatio) ObserveStep(r thruster.StepReport) {
	if r.InDeadBand {
		d.inside++
	}
	d.samples++
}

func (d *DeadbandRatio) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return float64(d.inside) / float64(d.samples)
}

func (d *DeadbandRatio) Reset() {
	d.inside = 0
	d.samples = 0
}

// TrackingError is the RMS of the propeller speed error in rad/s.
type TrackingError struct {
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError { return &TrackingError{} }

func (t *TrackingError) Name() string { return "tracking_error" }

func (t *TrackingError) ObserveStep(r thruster.StepReport) {
	t.sumSq += r.AngularError * r.AngularError
	t.samples++
}

func (t *TrackingError) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return math.Sqrt(t.sumSq / float64(t.samples))
}

func (t *TrackingError) Reset() {
	t.sumSq = 0
	t.samples = 0
}

// MaxSpeed is the largest propeller speed seen, in rad/s.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) ObserveStep(r thruster.StepReport) {
	m.max = math.Max(m.max, math.Abs(r.CurrentAngularVelocity))
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
