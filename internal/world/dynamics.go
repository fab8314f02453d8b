package world

import "github.com/san-kum/thrustsim/internal/dynamo"

// Translation is the free motion of a model's hull.
// State: x, y, z, vx, vy, vz. Control: fx, fy, fz.
type Translation struct {
	Mass float64
	Drag float64
}

func NewTranslation(mass, drag float64) *Translation {
	return &Translation{Mass: mass, Drag: drag}
}

func (tr *Translation) StateDim() int   { return 6 }
func (tr *Translation) ControlDim() int { return 3 }

func (tr *Translation) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, 6)
	for i := 0; i < 3; i++ {
		dx[i] = x[3+i]
		dx[3+i] = (u[i] - tr.Drag*x[3+i]) / tr.Mass
	}
	return dx
}

// Spin is a link rotating about the world axes with diagonal inertia.
// State: accumulated angle about x, y, z then wx, wy, wz. Control: torque.
type Spin struct {
	Inertia [3]float64
	Drag    float64
}

func NewSpin(inertia [3]float64, drag float64) *Spin {
	return &Spin{Inertia: inertia, Drag: drag}
}

func (s *Spin) StateDim() int   { return 6 }
func (s *Spin) ControlDim() int { return 3 }

func (s *Spin) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, 6)
	for i := 0; i < 3; i++ {
		dx[i] = x[3+i]
		dx[3+i] = (u[i] - s.Drag*x[3+i]) / s.Inertia[i]
	}
	return dx
}
