package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/thrustsim/internal/sim"
	"github.com/san-kum/thrustsim/internal/thruster"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel            = "sub"
	DefaultJoint            = "propeller_joint"
	DefaultHullLink         = "body"
	DefaultPropellerLink    = "propeller"
	DefaultIntegrator       = "rk4"
	DefaultDt               = 0.001
	DefaultDuration         = 1.0
	DefaultHullMass         = 100.0
	DefaultHullInertia      = 10.0
	DefaultPropellerMass    = 0.1
	DefaultPropellerInertia = 0.0005
	DefaultThrustCoeff      = 0.004
	DefaultPropDiameter     = 0.2
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Model    string          `yaml:"model"`
	Thruster thruster.Config `yaml:"thruster"`
	Vehicle  VehicleConfig   `yaml:"vehicle"`
	Sim      SimConfig       `yaml:"sim"`
	Commands []Command       `yaml:"commands"`
}

// VehicleConfig describes the hull and the propeller link hanging off it.
type VehicleConfig struct {
	HullLink         string     `yaml:"hull_link"`
	PropellerLink    string     `yaml:"propeller_link"`
	HullMass         float64    `yaml:"hull_mass"`
	HullInertia      float64    `yaml:"hull_inertia"`
	PropellerMass    float64    `yaml:"propeller_mass"`
	PropellerInertia float64    `yaml:"propeller_inertia"`
	Axis             [3]float64 `yaml:"axis,flow"`
	LinearDrag       float64    `yaml:"linear_drag"`
	AngularDrag      float64    `yaml:"angular_drag"`
}

type SimConfig struct {
	Integrator string      `yaml:"integrator"`
	Dt         float64     `yaml:"dt"`
	Duration   float64     `yaml:"duration"`
	Pauses     []sim.Pause `yaml:"pauses,omitempty"`
}

// Command publishes Value on the thruster's topic once sim time reaches
// Time. Topic is the suffix: cmd_thrust (default) or cmd_pos.
type Command struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
	Topic string  `yaml:"topic,omitempty"`
}

func (c Command) Suffix() string {
	if c.Topic == "" {
		return thruster.TopicSuffix
	}
	return c.Topic
}

func DefaultConfig() *Config {
	return &Config{
		Model: DefaultModel,
		Thruster: thruster.Config{
			JointName:         DefaultJoint,
			ThrustCoefficient: thruster.Float(DefaultThrustCoeff),
			PropellerDiameter: thruster.Float(DefaultPropDiameter),
		},
		Vehicle: VehicleConfig{
			HullLink:         DefaultHullLink,
			PropellerLink:    DefaultPropellerLink,
			HullMass:         DefaultHullMass,
			HullInertia:      DefaultHullInertia,
			PropellerMass:    DefaultPropellerMass,
			PropellerInertia: DefaultPropellerInertia,
			Axis:             [3]float64{1, 0, 0},
		},
		Sim: SimConfig{
			Integrator: DefaultIntegrator,
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
		},
	}
}

// FileBase is what a config file is decoded onto: the default vehicle and
// run, with no thruster keys set. A file must name the joint, the thrust
// coefficient and the propeller diameter itself.
func FileBase() *Config {
	cfg := DefaultConfig()
	cfg.Thruster = thruster.Config{}
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := FileBase()
	if err := LoadInto(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto decodes the file at path over cfg. Keys the file leaves out keep
// their current value.
func LoadInto(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks what the world and the stepping loop need. Thruster
// parameters are left to the thruster, which reports them on Configure.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidConfig)
	}
	if c.Sim.Dt <= 0 || c.Sim.Duration <= 0 {
		return fmt.Errorf("%w: dt and duration must be positive", ErrInvalidConfig)
	}
	v := c.Vehicle
	if v.HullMass <= 0 || v.PropellerMass <= 0 || v.HullInertia <= 0 || v.PropellerInertia <= 0 {
		return fmt.Errorf("%w: vehicle masses and inertias must be positive", ErrInvalidConfig)
	}
	if v.Axis == ([3]float64{}) {
		return fmt.Errorf("%w: propeller axis is zero", ErrInvalidConfig)
	}
	for i, cmd := range c.Commands {
		if cmd.Time < 0 {
			return fmt.Errorf("%w: command %d has negative time", ErrInvalidConfig, i)
		}
		if s := cmd.Suffix(); s != thruster.TopicSuffix && s != thruster.LegacyTopicSuffix {
			return fmt.Errorf("%w: command %d topic %q", ErrInvalidConfig, i, cmd.Topic)
		}
	}
	for _, p := range c.Sim.Pauses {
		if p.Steps == 0 {
			return fmt.Errorf("%w: pause at %d has no steps", ErrInvalidConfig, p.At)
		}
	}
	return nil
}

// Clone copies c including the thruster's optional values.
func (c *Config) Clone() *Config {
	out := *c
	t := &out.Thruster
	for _, p := range []**float64{
		&t.ThrustCoefficient, &t.PropellerDiameter, &t.FluidDensity,
		&t.PGain, &t.IGain, &t.DGain, &t.CommandMin, &t.CommandMax,
	} {
		if *p != nil {
			*p = thruster.Float(**p)
		}
	}
	out.Commands = append([]Command(nil), c.Commands...)
	out.Sim.Pauses = append([]sim.Pause(nil), c.Sim.Pauses...)
	return &out
}
