// Package thruster turns a commanded thrust into a force along a propeller
// axis and a torque that spins the propeller toward the matching speed.
package thruster

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/thrustsim/internal/control"
	"github.com/san-kum/thrustsim/internal/logging"
	"github.com/san-kum/thrustsim/internal/spatial"
)

// BodyReader answers pose and velocity queries for a body.
type BodyReader interface {
	WorldPose(link spatial.Entity) (spatial.Pose, bool)
	WorldAngularVelocity(link spatial.Entity) (mgl64.Vec3, bool)
}

// WrenchApplier accumulates world-frame wrenches on a body for the current step.
type WrenchApplier interface {
	AddWorldWrench(link spatial.Entity, force, torque mgl64.Vec3)
}

// Joint is what the thruster needs to know about the propeller joint.
type Joint struct {
	Name      string
	Axis      mgl64.Vec3
	ChildLink string
}

// ModelInfo resolves names inside the model that owns the thruster.
type ModelInfo interface {
	Name() string
	JointByName(name string) (Joint, bool)
	LinkByName(name string) (spatial.Entity, bool)
}

// Subscriber delivers scalar messages published on a topic.
type Subscriber interface {
	Subscribe(topic string, h func(float64)) error
}

// VelocityEnabler is implemented by hosts that only track link velocities
// on request.
type VelocityEnabler interface {
	EnableVelocityChecks(link spatial.Entity)
}

// UpdateInfo describes the step being taken.
type UpdateInfo struct {
	SimTime    time.Duration
	Dt         time.Duration
	Iterations uint64
	Paused     bool
}

// Phase is the thruster's lifecycle stage.
type Phase int

const (
	Unconfigured Phase = iota
	Active
)

func (p Phase) String() string {
	if p == Active {
		return "active"
	}
	return "unconfigured"
}

// StepReport is what one active step computed and applied.
type StepReport struct {
	SimTime                time.Duration
	Command                float64
	DesiredAngularVelocity float64
	CurrentAngularVelocity float64
	AngularError           float64
	Torque                 float64
	InDeadBand             bool
	Wrench                 spatial.Wrench
}

// StepObserver receives a report after every active step.
type StepObserver interface {
	ObserveStep(r StepReport)
}

// Thruster drives one propeller joint from thrust commands.
type Thruster struct {
	log       *logging.Logger
	phase     Phase
	state     *State
	pid       *control.PID
	link      spatial.Entity
	topics    []string
	observers []StepObserver
}

// New returns an unconfigured thruster.
func New(log *logging.Logger) *Thruster {
	if log == nil {
		log = logging.Discard()
	}
	return &Thruster{log: log}
}

func (t *Thruster) Phase() Phase         { return t.phase }
func (t *Thruster) State() *State        { return t.state }
func (t *Thruster) PID() *control.PID    { return t.pid }
func (t *Thruster) Link() spatial.Entity { return t.link }
func (t *Thruster) Topics() []string     { return t.topics }

func (t *Thruster) AddObserver(o StepObserver) {
	t.observers = append(t.observers, o)
}

// Configure validates cfg against the model, subscribes the command topics
// and activates the thruster. On error it logs, returns the error and stays
// unconfigured; there is no retry.
func (t *Thruster) Configure(ctx context.Context, cfg Config, model ModelInfo, sub Subscriber) error {
	if t.phase == Active {
		return ErrAlreadyConfigured
	}
	modelName := model.Name()
	log := t.log.With("model", modelName, "joint", cfg.JointName)

	err := t.configure(ctx, log, cfg, model, sub)
	if err != nil {
		log.Error(ctx, "thruster not initialized", err)
		return err
	}
	t.phase = Active
	return nil
}

func (t *Thruster) configure(ctx context.Context, log *logging.Logger, cfg Config, model ModelInfo, sub Subscriber) error {
	ns := cfg.Namespace
	if ns == "" {
		ns = model.Name()
	}

	if cfg.JointName == "" {
		return fmt.Errorf("%w: joint_name", ErrMissingParameter)
	}
	if cfg.ThrustCoefficient == nil {
		return fmt.Errorf("%w: thrust_coefficient", ErrMissingParameter)
	}
	if cfg.PropellerDiameter == nil {
		return fmt.Errorf("%w: propeller_diameter", ErrMissingParameter)
	}
	density := valueOr(cfg.FluidDensity, DefaultFluidDensity)
	log.Debug(ctx, "fluid density set", "fluid_density", density)

	joint, ok := model.JointByName(cfg.JointName)
	if !ok {
		return fmt.Errorf("%w: %q in model %q", ErrJointNotFound, cfg.JointName, model.Name())
	}

	state, err := NewState(
		*cfg.ThrustCoefficient,
		density,
		*cfg.PropellerDiameter,
		valueOr(cfg.CommandMin, DefaultCommandMin),
		valueOr(cfg.CommandMax, DefaultCommandMax),
		joint.Axis,
	)
	if err != nil {
		return err
	}

	link, ok := model.LinkByName(joint.ChildLink)
	if !ok {
		return fmt.Errorf("%w: %q (child of joint %q)", ErrLinkNotFound, joint.ChildLink, joint.Name)
	}

	p, i, d := cfg.Gains()
	for name, g := range map[string]float64{"p_gain": p, "i_gain": i, "d_gain": d} {
		if !isFinite(g) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidParameter, name, g)
		}
	}

	legacy := LegacyCommandTopic(ns, cfg.JointName)
	topic := CommandTopic(ns, cfg.JointName)
	if topic == "" || legacy == "" {
		return fmt.Errorf("%w: no valid topic for namespace %q joint %q", ErrInvalidParameter, ns, cfg.JointName)
	}
	for _, tp := range []string{legacy, topic} {
		if err := sub.Subscribe(tp, state.SetThrustCommand); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSubscribe, tp, err)
		}
	}
	log.Info(ctx, "thruster listening to commands", "topic", topic)

	if ve, ok := model.(VelocityEnabler); ok {
		ve.EnableVelocityChecks(link)
	}

	t.state = state
	t.link = link
	t.topics = []string{legacy, topic}
	t.pid = control.NewPID(
		p, i, d,
		DefaultIMax, DefaultIMin,
		state.ThrustToAngularVelocity(state.CommandMax),
		state.ThrustToAngularVelocity(state.CommandMin),
		0,
	)
	return nil
}

// PreUpdate runs the speed controller for one step and applies the
// resulting wrench to the propeller link. It does nothing while paused or
// unconfigured.
func (t *Thruster) PreUpdate(info UpdateInfo, bodies BodyReader, sink WrenchApplier) {
	if t.phase != Active || info.Paused {
		return
	}

	pose, ok := bodies.WorldPose(t.link)
	if !ok {
		return
	}
	unit := pose.Rot.Normalize().Rotate(t.state.Axis)

	thrust := t.state.ThrustCommand()
	desired := t.state.ThrustToAngularVelocity(thrust)

	var current float64
	if w, ok := bodies.WorldAngularVelocity(t.link); ok {
		current = w.Dot(unit)
	}
	angErr := current - desired

	torque := 0.0
	inBand := math.Abs(angErr) <= DeadBand
	if !inBand {
		torque = t.pid.Update(angErr, info.Dt)
	}

	w := spatial.Wrench{
		Force:  unit.Mul(thrust),
		Torque: unit.Mul(torque),
	}
	sink.AddWorldWrench(t.link, w.Force, w.Torque)

	if len(t.observers) == 0 {
		return
	}
	r := StepReport{
		SimTime:                info.SimTime,
		Command:                thrust,
		DesiredAngularVelocity: desired,
		CurrentAngularVelocity: current,
		AngularError:           angErr,
		Torque:                 torque,
		InDeadBand:             inBand,
		Wrench:                 w,
	}
	for _, o := range t.observers {
		o.ObserveStep(r)
	}
}
