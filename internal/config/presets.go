package config

import (
	"sort"

	"github.com/san-kum/thrustsim/internal/sim"
	"github.com/san-kum/thrustsim/internal/thruster"
)

func preset(fn func(c *Config)) *Config {
	c := DefaultConfig()
	fn(c)
	return c
}

var Presets = map[string]*Config{
	"sub": preset(func(c *Config) {
		c.Commands = []Command{{Time: 0, Value: 300}}
	}),
	"reverse": preset(func(c *Config) {
		c.Sim.Duration = 2.0
		c.Commands = []Command{{Time: 0, Value: 200}, {Time: 1.0, Value: -200}}
	}),
	"clamped": preset(func(c *Config) {
		c.Commands = []Command{{Time: 0, Value: 2000}}
	}),
	"legacy": preset(func(c *Config) {
		c.Commands = []Command{{Time: 0, Value: 150, Topic: thruster.LegacyTopicSuffix}}
	}),
	"paused": preset(func(c *Config) {
		c.Sim.Pauses = []sim.Pause{{At: 200, Steps: 300}}
		c.Commands = []Command{{Time: 0, Value: 300}}
	}),
	"unconfigured": preset(func(c *Config) {
		c.Thruster.ThrustCoefficient = nil
		c.Commands = []Command{{Time: 0, Value: 300}}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
