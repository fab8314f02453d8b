package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir      string
	configFile   string
	preset       string
	dt           float64
	duration     float64
	integrator   string
	thrust       float64
	topic        string
	kp           float64
	ki           float64
	kd           float64
	coeff        float64
	diameter     float64
	density      float64
	metricsAddr  string
	stepsPerTick int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "thrustsim",
		Short:        "underwater thruster simulation",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".thrustsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a thruster scenario and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (e.g. :9090)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a thruster scenario with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerTick, "steps-per-frame", 10, "simulation steps per frame")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot hull position and propeller speed of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd)
	return rootCmd
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", 0.001, "timestep in seconds")
	f.Float64Var(&duration, "time", 1.0, "duration in seconds")
	f.StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, verlet)")
	f.Float64Var(&thrust, "thrust", 0, "thrust command in N sent at t=0, replacing the scheduled commands")
	f.StringVar(&topic, "topic", "cmd_thrust", "topic suffix for --thrust (cmd_thrust or cmd_pos)")
	f.Float64Var(&kp, "kp", 0.1, "propeller speed controller p gain")
	f.Float64Var(&ki, "ki", 0, "propeller speed controller i gain")
	f.Float64Var(&kd, "kd", 0, "propeller speed controller d gain")
	f.Float64Var(&coeff, "coeff", 0.004, "thrust coefficient")
	f.Float64Var(&diameter, "diameter", 0.2, "propeller diameter in m")
	f.Float64Var(&density, "density", 1000, "fluid density in kg/m^3")
}
