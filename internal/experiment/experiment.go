// Package experiment assembles a run from a config: a world holding the
// vehicle, a message bus, the thruster and a schedule of thrust commands.
package experiment

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/thrustsim/internal/config"
	"github.com/san-kum/thrustsim/internal/logging"
	"github.com/san-kum/thrustsim/internal/metrics"
	"github.com/san-kum/thrustsim/internal/sim"
	"github.com/san-kum/thrustsim/internal/spatial"
	"github.com/san-kum/thrustsim/internal/thruster"
	"github.com/san-kum/thrustsim/internal/transport"
	"github.com/san-kum/thrustsim/internal/world"
)

// commands scheduled within this much of the current sim time go out on
// this step
const scheduleSlack = 1e-6

// Sample is the vehicle after one step.
type Sample struct {
	Time           float64
	Position       mgl64.Vec3
	Velocity       mgl64.Vec3
	PropellerSpeed float64
	Command        float64
	// ProducedThrust is the thrust the propeller generates at its current speed.
	ProducedThrust float64
	Torque         float64
	Paused         bool
}

type Result struct {
	Samples []Sample
	Metrics map[string]float64
	Stats   sim.Stats
	Phase   thruster.Phase
	Topics  []string
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	log      *logging.Logger

	world     *world.World
	model     *world.Model
	propeller spatial.Entity
	bus       *transport.Node
	thruster  *thruster.Thruster
	simulator *sim.Simulator
	metrics   metrics.Set
	prom      *metrics.Collectors

	pending    []config.Command
	torque     float64
	reported   bool
	samples    []Sample
	maxSamples int
}

func New(cfg *config.Config, registry *Registry, log *logging.Logger) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Experiment{
		cfg:      cfg,
		registry: registry,
		log:      log,
	}
}

// LimitSamples keeps only the newest n samples; n <= 0 keeps all of them.
func (e *Experiment) LimitSamples(n int) {
	e.maxSamples = n
	e.trimSamples()
}

// UseCollectors exports the run to Prometheus. Call before Setup.
func (e *Experiment) UseCollectors(c *metrics.Collectors) {
	e.prom = c
}

// Setup builds the world and wires the thruster. A thruster that fails to
// configure is logged and left inert; the run still proceeds.
func (e *Experiment) Setup(ctx context.Context) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Sim.Integrator)
	if err != nil {
		return err
	}

	e.world = world.New(integ)
	v := e.cfg.Vehicle
	// the vehicle always has its propeller joint; a thruster config without
	// a joint name only leaves the thruster unconfigured
	joint := e.cfg.Thruster.JointName
	if joint == "" {
		joint = config.DefaultJoint
	}
	e.model, err = e.world.AddModel(e.cfg.Model, world.ModelSpec{
		Links: []world.LinkSpec{
			{Name: v.HullLink, Mass: v.HullMass, Inertia: [3]float64{v.HullInertia, v.HullInertia, v.HullInertia}},
			{Name: v.PropellerLink, Mass: v.PropellerMass, Inertia: [3]float64{v.PropellerInertia, v.PropellerInertia, v.PropellerInertia}},
		},
		Joints: []world.JointSpec{{
			Name:   joint,
			Axis:   mgl64.Vec3(v.Axis),
			Parent: v.HullLink,
			Child:  v.PropellerLink,
		}},
		LinearDrag:  v.LinearDrag,
		AngularDrag: v.AngularDrag,
	})
	if err != nil {
		return fmt.Errorf("build vehicle: %w", err)
	}
	e.propeller, _ = e.model.LinkByName(v.PropellerLink)
	e.model.EnableVelocityChecks(e.propeller)

	e.bus = transport.NewNode()
	e.thruster = thruster.New(e.log)
	if err := e.thruster.Configure(ctx, e.cfg.Thruster, e.model, e.bus); err != nil {
		e.log.Warn(ctx, "thruster left unconfigured", "error", err)
	}

	e.metrics = metrics.Set(metrics.Standard())
	e.thruster.AddObserver(e.metrics)
	e.thruster.AddObserver(e)
	if e.prom != nil {
		e.thruster.AddObserver(e.prom)
	}

	e.pending = append([]config.Command(nil), e.cfg.Commands...)
	sort.SliceStable(e.pending, func(i, j int) bool { return e.pending[i].Time < e.pending[j].Time })

	e.simulator = sim.New(e.world)
	e.simulator.AddPreStep(e.dispatch)
	e.simulator.AddSystem(e.thruster)
	e.simulator.AddObserver(e)

	e.samples = []Sample{e.sample(false)}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	stats, err := e.simulator.Run(ctx, e.SimConfig())
	res := &Result{
		Samples: e.samples,
		Metrics: e.metrics.Values(),
		Stats:   stats,
		Phase:   e.thruster.Phase(),
		Topics:  e.thruster.Topics(),
	}
	if err != nil {
		return res, err
	}
	e.log.Info(ctx, "run finished",
		"steps", stats.StepsTaken,
		"paused_steps", stats.PausedSteps,
		"sim_time", stats.SimTime)
	return res, nil
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:       e.cfg.Sim.Dt,
		Duration: e.cfg.Sim.Duration,
		Pauses:   e.cfg.Sim.Pauses,
	}
}

// Publish sends value on the thruster's topic with the given suffix and
// returns how many subscribers received it.
func (e *Experiment) Publish(suffix string, value float64) (int, error) {
	ns := e.cfg.Thruster.Namespace
	if ns == "" {
		ns = e.cfg.Model
	}
	topic := thruster.CommandTopic(ns, e.cfg.Thruster.JointName)
	if suffix == thruster.LegacyTopicSuffix {
		topic = thruster.LegacyCommandTopic(ns, e.cfg.Thruster.JointName)
	}

	n, err := e.bus.Publish(topic, value)
	if err != nil {
		return 0, err
	}
	if e.prom != nil {
		e.prom.CommandPublished(topic)
	}
	return n, nil
}

func (e *Experiment) dispatch(info thruster.UpdateInfo) {
	now := info.SimTime.Seconds()
	for len(e.pending) > 0 && e.pending[0].Time <= now+scheduleSlack {
		cmd := e.pending[0]
		e.pending = e.pending[1:]

		n, err := e.Publish(cmd.Suffix(), cmd.Value)
		if err != nil {
			e.log.Warn(context.Background(), "command not published", "error", err)
			continue
		}
		e.log.Debug(context.Background(), "command published",
			"time", now, "value", cmd.Value, "topic", cmd.Suffix(), "subscribers", n)
	}
}

// ObserveStep keeps the torque of the step in progress.
func (e *Experiment) ObserveStep(r thruster.StepReport) {
	e.torque = r.Torque
	e.reported = true
}

// OnStep records the vehicle once the world has integrated the step.
func (e *Experiment) OnStep(info thruster.UpdateInfo) {
	e.samples = append(e.samples, e.sample(info.Paused))
	e.trimSamples()
	e.reported = false
}

func (e *Experiment) trimSamples() {
	if e.maxSamples <= 0 || len(e.samples) <= e.maxSamples {
		return
	}
	n := copy(e.samples, e.samples[len(e.samples)-e.maxSamples:])
	e.samples = e.samples[:n]
}

func (e *Experiment) sample(paused bool) Sample {
	s := Sample{
		Time:           e.world.Time(),
		Position:       e.model.Position(),
		Velocity:       e.model.Velocity(),
		PropellerSpeed: e.PropellerSpeed(),
		Paused:         paused,
	}
	if st := e.thruster.State(); st != nil {
		s.Command = st.ThrustCommand()
		s.ProducedThrust = st.AngularVelocityToThrust(s.PropellerSpeed)
	}
	if e.reported {
		s.Torque = e.torque
	}
	return s
}

// PropellerSpeed is the propeller's angular velocity along its joint axis.
func (e *Experiment) PropellerSpeed() float64 {
	pose, ok := e.world.WorldPose(e.propeller)
	if !ok {
		return 0
	}
	vel, ok := e.world.WorldAngularVelocity(e.propeller)
	if !ok {
		return 0
	}
	axis := mgl64.Vec3(e.cfg.Vehicle.Axis).Normalize()
	w := pose.Rot.Normalize().Rotate(axis).Dot(vel)
	if math.IsNaN(w) {
		return 0
	}
	return w
}

func (e *Experiment) Config() *config.Config       { return e.cfg }
func (e *Experiment) Simulator() *sim.Simulator    { return e.simulator }
func (e *Experiment) Thruster() *thruster.Thruster { return e.thruster }
func (e *Experiment) Model() *world.Model          { return e.model }
func (e *Experiment) Bus() *transport.Node         { return e.bus }
func (e *Experiment) Samples() []Sample            { return e.samples }
