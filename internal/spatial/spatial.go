// Package spatial holds the handle and geometry types shared between the
// thruster core and whatever host steps the bodies.
package spatial

import "github.com/go-gl/mathgl/mgl64"

// Entity identifies a body owned by the host.
type Entity uint64

// NullEntity is never assigned to a body.
const NullEntity Entity = 0

type Pose struct {
	Pos mgl64.Vec3
	Rot mgl64.Quat
}

func IdentityPose() Pose {
	return Pose{Rot: mgl64.QuatIdent()}
}

// Wrench is a force and a torque applied to one body for one step.
type Wrench struct {
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

func (w Wrench) Add(other Wrench) Wrench {
	return Wrench{
		Force:  w.Force.Add(other.Force),
		Torque: w.Torque.Add(other.Torque),
	}
}

func (w Wrench) IsZero() bool {
	return w.Force == (mgl64.Vec3{}) && w.Torque == (mgl64.Vec3{})
}
