package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/thrustsim/internal/config"
	"github.com/spf13/cobra"
)

func runCommand(t *testing.T) *cobra.Command {
	t.Helper()
	preset, configFile = "", ""
	for _, c := range newRootCmd().Commands() {
		if c.Name() == "run" {
			return c
		}
	}
	t.Fatal("run command not registered")
	return nil
}

func TestResolveConfigDefaults(t *testing.T) {
	cmd := runCommand(t)
	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sim.Dt != config.DefaultDt || len(cfg.Commands) != 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestResolveConfigFlagsOverridePreset(t *testing.T) {
	cmd := runCommand(t)
	for name, val := range map[string]string{
		"preset": "sub",
		"time":   "2.5",
		"ki":     "0.3",
		"thrust": "120",
		"topic":  "cmd_pos",
	} {
		if err := cmd.Flags().Set(name, val); err != nil {
			t.Fatal(err)
		}
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sim.Duration != 2.5 {
		t.Errorf("expected duration 2.5, got %f", cfg.Sim.Duration)
	}
	if cfg.Thruster.IGain == nil || *cfg.Thruster.IGain != 0.3 {
		t.Errorf("expected i_gain 0.3, got %v", cfg.Thruster.IGain)
	}
	if cfg.Thruster.DGain != nil {
		t.Error("d_gain was not set and should stay absent")
	}
	if len(cfg.Commands) != 1 || cfg.Commands[0].Value != 120 || cfg.Commands[0].Topic != "cmd_pos" {
		t.Errorf("unexpected commands %+v", cfg.Commands)
	}
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := "model: auv\nsim:\n  dt: 0.002\ncommands:\n  - time: 0.1\n    value: 40\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := runCommand(t)
	cmd.Flags().Set("config", path)
	cmd.Flags().Set("dt", "0.005")

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "auv" || cfg.Sim.Dt != 0.005 || len(cfg.Commands) != 1 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Thruster.JointName != "" || cfg.Thruster.ThrustCoefficient != nil {
		t.Errorf("a file without thruster keys should not pick up defaults, got %+v", cfg.Thruster)
	}
}

func TestResolveConfigFileOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dt.yaml")
	if err := os.WriteFile(path, []byte("sim:\n  dt: 0.002\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := runCommand(t)
	cmd.Flags().Set("preset", "reverse")
	cmd.Flags().Set("config", path)

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sim.Dt != 0.002 {
		t.Errorf("expected dt from the file, got %f", cfg.Sim.Dt)
	}
	if cfg.Sim.Duration != 2 || len(cfg.Commands) != 2 {
		t.Errorf("preset lost: duration %f, commands %+v", cfg.Sim.Duration, cfg.Commands)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	cmd := runCommand(t)
	cmd.Flags().Set("preset", "nope")
	if _, err := resolveConfig(cmd); err == nil {
		t.Error("expected unknown preset error")
	}

	cmd = runCommand(t)
	cmd.Flags().Set("topic", "cmd_vel")
	if _, err := resolveConfig(cmd); err == nil {
		t.Error("expected invalid topic error")
	}
}
