package control

import (
	"fmt"
	"math"
	"time"
)

// PID is an error-driven controller with clamped integral and output terms.
// The error is measured minus reference, so the command opposes it:
// cmd = -(P*e + I*∫e + D*de/dt) + offset.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	IMax   float64
	IMin   float64
	CmdMax float64
	CmdMin float64
	Offset float64

	integral float64
	prevErr  float64
	dErr     float64
	cmd      float64
}

func NewPID(kp, ki, kd, iMax, iMin, cmdMax, cmdMin, offset float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		IMax:   iMax,
		IMin:   iMin,
		CmdMax: cmdMax,
		CmdMin: cmdMin,
		Offset: offset,
	}
}

// Update advances the controller by dt and returns the new command.
// A zero dt or a non-finite error leaves the state untouched and returns 0.
func (p *PID) Update(err float64, dt time.Duration) float64 {
	if dt == 0 || math.IsNaN(err) || math.IsInf(err, 0) {
		return 0
	}
	secs := dt.Seconds()

	pTerm := p.Kp * err

	// integral holds Ki already applied so the bounds act on the output term
	p.integral += p.Ki * secs * err
	if p.IMax >= p.IMin {
		p.integral = clamp(p.integral, p.IMin, p.IMax)
	}

	p.dErr = (err - p.prevErr) / secs
	p.prevErr = err
	dTerm := p.Kd * p.dErr

	p.cmd = -pTerm - p.integral - dTerm + p.Offset
	if p.CmdMax >= p.CmdMin {
		p.cmd = clamp(p.cmd, p.CmdMin, p.CmdMax)
	}
	return p.cmd
}

// Cmd returns the last command produced by Update.
func (p *PID) Cmd() float64 { return p.cmd }

// Integral returns the accumulated, gain-scaled integral term.
func (p *PID) Integral() float64 { return p.integral }

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.dErr = 0
	p.cmd = 0
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"IMax":   p.IMax,
		"IMin":   p.IMin,
		"CmdMax": p.CmdMax,
		"CmdMin": p.CmdMin,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "IMax":
		p.IMax = value
	case "IMin":
		p.IMin = value
	case "CmdMax":
		p.CmdMax = value
	case "CmdMin":
		p.CmdMin = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
