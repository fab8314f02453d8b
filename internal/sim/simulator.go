package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/thrustsim/internal/thruster"
)

type Simulator struct {
	host      Host
	preStep   []func(thruster.UpdateInfo)
	systems   []System
	observers []Observer
	iter      uint64
	simTime   float64
}

func New(host Host) *Simulator {
	return &Simulator{
		host:      host,
		systems:   make([]System, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddSystem(sys System) {
	s.systems = append(s.systems, sys)
}

func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// AddPreStep registers fn to run before the systems each step.
func (s *Simulator) AddPreStep(fn func(info thruster.UpdateInfo)) {
	s.preStep = append(s.preStep, fn)
}

func (s *Simulator) SimTime() float64   { return s.simTime }
func (s *Simulator) Iterations() uint64 { return s.iter }

// Run steps until cfg.Duration of sim time has elapsed or ctx is done.
func (s *Simulator) Run(ctx context.Context, cfg Config) (Stats, error) {
	var st Stats
	if err := validateConfig(cfg); err != nil {
		return st, err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	for taken := 0; taken < steps; {
		select {
		case <-ctx.Done():
			return s.stats(st), ctx.Err()
		default:
		}

		paused := cfg.paused(s.iter)
		if err := s.Step(cfg.Dt, paused); err != nil {
			return s.stats(st), err
		}
		if paused {
			st.PausedSteps++
			continue
		}
		taken++
		st.StepsTaken++
	}
	return s.stats(st), nil
}

// RunWithCallback steps like Run and calls fn after every step; returning
// false from fn stops the run.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, fn func(info thruster.UpdateInfo) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	for s.simTime < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		paused := cfg.paused(s.iter)
		info := s.info(cfg.Dt, paused)
		if err := s.Step(cfg.Dt, paused); err != nil {
			return err
		}
		if !fn(info) {
			return nil
		}
	}
	return nil
}

// Step runs one iteration: pre-step hooks, systems, host integration (skipped
// while paused) and observers.
func (s *Simulator) Step(dt float64, paused bool) error {
	info := s.info(dt, paused)

	for _, fn := range s.preStep {
		fn(info)
	}
	for _, sys := range s.systems {
		sys.PreUpdate(info, s.host, s.host)
	}
	if !paused {
		if err := s.host.Step(dt); err != nil {
			return fmt.Errorf("host step %d: %w", s.iter, err)
		}
		s.simTime += dt
	}
	s.iter++

	for _, o := range s.observers {
		o.OnStep(info)
	}
	return nil
}

func (s *Simulator) info(dt float64, paused bool) thruster.UpdateInfo {
	d := seconds(dt)
	if paused {
		d = 0
	}
	return thruster.UpdateInfo{
		SimTime:    seconds(s.simTime),
		Dt:         d,
		Iterations: s.iter,
		Paused:     paused,
	}
}

func (s *Simulator) stats(st Stats) Stats {
	st.Iterations = s.iter
	st.SimTime = s.simTime
	return st
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
