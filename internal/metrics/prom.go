package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/thrustsim/internal/thruster"
)

// Collectors exports thruster activity to Prometheus. It observes step
// reports and is told about every command published on the bus.
type Collectors struct {
	steps    prometheus.Counter
	commands *prometheus.CounterVec
	deadband prometheus.Counter
	speed    prometheus.Gauge
	torque   prometheus.Histogram
}

// NewCollectors registers the thrustsim collectors on reg.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thrustsim_steps_total",
			Help: "Active thruster steps taken.",
		}),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thrustsim_commands_total",
				Help: "Thrust commands published, by topic.",
			},
			[]string{"topic"},
		),
		deadband: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thrustsim_deadband_steps_total",
			Help: "Steps where the propeller speed error was inside the dead-band.",
		}),
		speed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thrustsim_propeller_angular_velocity",
			Help: "Propeller angular velocity along the joint axis in rad/s.",
		}),
		torque: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "thrustsim_torque",
			Help:    "Torque applied to the propeller in N*m.",
			Buckets: prometheus.LinearBuckets(-1, 0.25, 9),
		}),
	}

	for _, col := range []prometheus.Collector{c.steps, c.commands, c.deadband, c.speed, c.torque} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collectors) ObserveStep(r thruster.StepReport) {
	c.steps.Inc()
	if r.InDeadBand {
		c.deadband.Inc()
	}
	c.speed.Set(r.CurrentAngularVelocity)
	c.torque.Observe(r.Torque)
}

func (c *Collectors) CommandPublished(topic string) {
	c.commands.WithLabelValues(topic).Inc()
}

// Handler serves the metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
