// Package dynamo provides the ODE primitives the world integrates with.
//
// A [System] describes dX/dt = f(X, u, t) over a flat [State] vector and an
// input [Control] vector; an [Integrator] advances it by one step.
//
//	hull := world.NewTranslation(100.1, 0)
//	integ := integrators.NewRK4()
//	x = integ.Step(hull, x, dynamo.Control{300, 0, 0}, t, dt)
//
// Integrators keep scratch buffers and are not safe for concurrent use.
package dynamo
