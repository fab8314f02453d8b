// Package world is a small stand-in for a simulation host: it owns models
// made of links and joints, collects wrenches during a step and integrates
// them. Links of a model translate together; each link spins on its own.
// There are no constraints, contacts or hull rotation.
package world

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/thrustsim/internal/dynamo"
	"github.com/san-kum/thrustsim/internal/spatial"
	"github.com/san-kum/thrustsim/internal/thruster"
)

var (
	ErrDuplicateModel = errors.New("world: duplicate model")
	ErrInvalidModel   = errors.New("world: invalid model")
)

type LinkSpec struct {
	Name    string
	Mass    float64
	Inertia [3]float64
}

type JointSpec struct {
	Name   string
	Axis   mgl64.Vec3
	Parent string
	Child  string
}

type ModelSpec struct {
	Links       []LinkSpec
	Joints      []JointSpec
	LinearDrag  float64
	AngularDrag float64
}

type link struct {
	entity    spatial.Entity
	name      string
	model     *Model
	dyn       *Spin
	spin      dynamo.State
	rot       mgl64.Quat
	velChecks bool
	wrench    spatial.Wrench
}

// Model is a named set of links sharing one translational state.
type Model struct {
	name   string
	links  []*link
	byName map[string]*link
	joints map[string]thruster.Joint
	dyn    *Translation
	state  dynamo.State
}

func (m *Model) Name() string { return m.name }

func (m *Model) JointByName(name string) (thruster.Joint, bool) {
	j, ok := m.joints[name]
	return j, ok
}

func (m *Model) LinkByName(name string) (spatial.Entity, bool) {
	l, ok := m.byName[name]
	if !ok {
		return spatial.NullEntity, false
	}
	return l.entity, true
}

// EnableVelocityChecks makes the link's velocities queryable.
func (m *Model) EnableVelocityChecks(e spatial.Entity) {
	for _, l := range m.links {
		if l.entity == e {
			l.velChecks = true
		}
	}
}

// Position of the hull in world coordinates.
func (m *Model) Position() mgl64.Vec3 {
	return mgl64.Vec3{m.state[0], m.state[1], m.state[2]}
}

func (m *Model) Velocity() mgl64.Vec3 {
	return mgl64.Vec3{m.state[3], m.state[4], m.state[5]}
}

func (m *Model) Mass() float64 { return m.dyn.Mass }

type World struct {
	integ  dynamo.Integrator
	next   spatial.Entity
	models []*Model
	byName map[string]*Model
	links  map[spatial.Entity]*link
	time   float64
	steps  int
}

func New(integ dynamo.Integrator) *World {
	return &World{
		integ:  integ,
		byName: make(map[string]*Model),
		links:  make(map[spatial.Entity]*link),
	}
}

// AddModel validates spec and places the model at the origin, at rest.
func (w *World) AddModel(name string, spec ModelSpec) (*Model, error) {
	if _, ok := w.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateModel, name)
	}
	if name == "" || len(spec.Links) == 0 {
		return nil, fmt.Errorf("%w: %q needs a name and at least one link", ErrInvalidModel, name)
	}
	if spec.LinearDrag < 0 || spec.AngularDrag < 0 {
		return nil, fmt.Errorf("%w: negative drag", ErrInvalidModel)
	}

	m := &Model{
		name:   name,
		byName: make(map[string]*link, len(spec.Links)),
		joints: make(map[string]thruster.Joint, len(spec.Joints)),
		state:  make(dynamo.State, 6),
	}

	mass := 0.0
	for _, ls := range spec.Links {
		if _, dup := m.byName[ls.Name]; dup || ls.Name == "" {
			return nil, fmt.Errorf("%w: link name %q", ErrInvalidModel, ls.Name)
		}
		if ls.Mass <= 0 || ls.Inertia[0] <= 0 || ls.Inertia[1] <= 0 || ls.Inertia[2] <= 0 {
			return nil, fmt.Errorf("%w: link %q needs positive mass and inertia", ErrInvalidModel, ls.Name)
		}
		mass += ls.Mass
		l := &link{
			name:  ls.Name,
			model: m,
			dyn:   NewSpin(ls.Inertia, spec.AngularDrag),
			spin:  make(dynamo.State, 6),
			rot:   mgl64.QuatIdent(),
		}
		m.links = append(m.links, l)
		m.byName[ls.Name] = l
	}

	for _, js := range spec.Joints {
		if _, ok := m.byName[js.Child]; !ok {
			return nil, fmt.Errorf("%w: joint %q child %q", ErrInvalidModel, js.Name, js.Child)
		}
		m.joints[js.Name] = thruster.Joint{Name: js.Name, Axis: js.Axis, ChildLink: js.Child}
	}
	m.dyn = NewTranslation(mass, spec.LinearDrag)

	for _, l := range m.links {
		w.next++
		l.entity = w.next
		w.links[l.entity] = l
	}
	w.models = append(w.models, m)
	w.byName[name] = m
	return m, nil
}

func (w *World) Model(name string) (*Model, bool) {
	m, ok := w.byName[name]
	return m, ok
}

func (w *World) Time() float64 { return w.time }

func (w *World) WorldPose(e spatial.Entity) (spatial.Pose, bool) {
	l, ok := w.links[e]
	if !ok {
		return spatial.Pose{}, false
	}
	return spatial.Pose{Pos: l.model.Position(), Rot: l.rot}, true
}

// WorldAngularVelocity is only available once velocity checks are enabled
// for the link.
func (w *World) WorldAngularVelocity(e spatial.Entity) (mgl64.Vec3, bool) {
	l, ok := w.links[e]
	if !ok || !l.velChecks {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{l.spin[3], l.spin[4], l.spin[5]}, true
}

// AddWorldWrench accumulates onto whatever was applied earlier this step.
func (w *World) AddWorldWrench(e spatial.Entity, force, torque mgl64.Vec3) {
	l, ok := w.links[e]
	if !ok {
		return
	}
	l.wrench = l.wrench.Add(spatial.Wrench{Force: force, Torque: torque})
}

// PendingWrench is what has been applied to e since the last Step.
func (w *World) PendingWrench(e spatial.Entity) spatial.Wrench {
	if l, ok := w.links[e]; ok {
		return l.wrench
	}
	return spatial.Wrench{}
}

// Step integrates every model over dt seconds and clears the wrenches.
func (w *World) Step(dt float64) error {
	for _, m := range w.models {
		var f mgl64.Vec3
		for _, l := range m.links {
			f = f.Add(l.wrench.Force)
		}
		x := w.integ.Step(m.dyn, m.state, dynamo.Control{f[0], f[1], f[2]}, w.time, dt)
		if !x.IsValid() {
			return &dynamo.SimulationError{Step: w.steps, Time: w.time, State: m.state.Clone(), Wrapped: dynamo.ErrInvalidState}
		}
		m.state = x

		for _, l := range m.links {
			tq := l.wrench.Torque
			s := w.integ.Step(l.dyn, l.spin, dynamo.Control{tq[0], tq[1], tq[2]}, w.time, dt)
			if !s.IsValid() {
				return &dynamo.SimulationError{Step: w.steps, Time: w.time, State: l.spin.Clone(), Wrapped: dynamo.ErrInvalidState}
			}
			avg := mgl64.Vec3{
				0.5 * (l.spin[3] + s[3]),
				0.5 * (l.spin[4] + s[4]),
				0.5 * (l.spin[5] + s[5]),
			}
			if speed := avg.Len(); speed > 0 {
				l.rot = mgl64.QuatRotate(speed*dt, avg.Mul(1/speed)).Mul(l.rot).Normalize()
			}
			l.spin = s
			l.wrench = spatial.Wrench{}
		}
	}
	w.time += dt
	w.steps++
	return nil
}
