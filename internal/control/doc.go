// Package control provides the feedback controller used to drive a
// propeller to a target speed.
//
//   - [PID]: Proportional-Integral-Derivative controller with integral
//     and output bounds
//
// # Usage
//
//	pid := control.NewPID(0.1, 0, 0, 1, -1, 395, -395, 0)
//	torque := pid.Update(measured-target, dt)
//
// The error is measured minus target, so the returned command pushes
// against it.
package control
