package thruster

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/thrustsim/internal/spatial"
)

const propellerLink spatial.Entity = 7

type fakeModel struct {
	name    string
	joints  map[string]Joint
	links   map[string]spatial.Entity
	enabled []spatial.Entity
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		name: "sub",
		joints: map[string]Joint{
			"propeller_joint": {Name: "propeller_joint", Axis: mgl64.Vec3{1, 0, 0}, ChildLink: "propeller"},
		},
		links: map[string]spatial.Entity{"propeller": propellerLink},
	}
}

func (m *fakeModel) Name() string { return m.name }

func (m *fakeModel) JointByName(name string) (Joint, bool) {
	j, ok := m.joints[name]
	return j, ok
}

func (m *fakeModel) LinkByName(name string) (spatial.Entity, bool) {
	l, ok := m.links[name]
	return l, ok
}

func (m *fakeModel) EnableVelocityChecks(link spatial.Entity) {
	m.enabled = append(m.enabled, link)
}

type fakeBus struct {
	handlers map[string]func(float64)
	fail     bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]func(float64))}
}

func (b *fakeBus) Subscribe(topic string, h func(float64)) error {
	if b.fail {
		return errors.New("bus down")
	}
	b.handlers[topic] = h
	return nil
}

func (b *fakeBus) publish(topic string, v float64) bool {
	h, ok := b.handlers[topic]
	if ok {
		h(v)
	}
	return ok
}

type fakeBody struct {
	pose     spatial.Pose
	hasPose  bool
	angVel   mgl64.Vec3
	hasVel   bool
	wrenches []spatial.Wrench
}

func newFakeBody() *fakeBody {
	return &fakeBody{pose: spatial.IdentityPose(), hasPose: true, hasVel: true}
}

func (b *fakeBody) WorldPose(link spatial.Entity) (spatial.Pose, bool) {
	return b.pose, b.hasPose && link == propellerLink
}

func (b *fakeBody) WorldAngularVelocity(link spatial.Entity) (mgl64.Vec3, bool) {
	return b.angVel, b.hasVel && link == propellerLink
}

func (b *fakeBody) AddWorldWrench(link spatial.Entity, force, torque mgl64.Vec3) {
	b.wrenches = append(b.wrenches, spatial.Wrench{Force: force, Torque: torque})
}

func (b *fakeBody) last() spatial.Wrench {
	return b.wrenches[len(b.wrenches)-1]
}

type recorder struct {
	reports []StepReport
}

func (r *recorder) ObserveStep(s StepReport) { r.reports = append(r.reports, s) }

func validConfig() Config {
	return Config{
		JointName:         "propeller_joint",
		ThrustCoefficient: Float(1),
		PropellerDiameter: Float(0.02),
	}
}
