// Package metrics summarises thruster runs. Run metrics fold step reports
// into one number each; Collectors export the same stream to Prometheus.
package metrics

import "github.com/san-kum/thrustsim/internal/thruster"

type Metric interface {
	Name() string
	ObserveStep(r thruster.StepReport)
	Value() float64
	Reset()
}

// Standard returns a fresh set of the metrics recorded with every run.
func Standard() []Metric {
	return []Metric{
		NewControlEffort(),
		NewDeadbandRatio(),
		NewTrackingError(),
		NewMaxSpeed(),
	}
}

// Set fans step reports out to several metrics.
type Set []Metric

func (s Set) ObserveStep(r thruster.StepReport) {
	for _, m := range s {
		m.ObserveStep(r)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}
