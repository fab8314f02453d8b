package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/thrustsim/internal/config"
	"github.com/san-kum/thrustsim/internal/experiment"
	"github.com/san-kum/thrustsim/internal/logging"
	"github.com/san-kum/thrustsim/internal/metrics"
	"github.com/san-kum/thrustsim/internal/storage"
	"github.com/san-kum/thrustsim/internal/thruster"
	"github.com/san-kum/thrustsim/internal/viz"
	"github.com/spf13/cobra"
)

const liveSampleLimit = 1024

// resolveConfig starts from the preset (or defaults), layers the config
// file on top, then any flag the user set explicitly. A file used without a
// preset starts from config.FileBase, so it has to configure the thruster.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	case configFile != "":
		cfg = config.FileBase()
	default:
		cfg = config.DefaultConfig()
	}

	if configFile != "" {
		if err := config.LoadInto(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("kp") {
		cfg.Thruster.PGain = thruster.Float(kp)
	}
	if flags.Changed("ki") {
		cfg.Thruster.IGain = thruster.Float(ki)
	}
	if flags.Changed("kd") {
		cfg.Thruster.DGain = thruster.Float(kd)
	}
	if flags.Changed("coeff") {
		cfg.Thruster.ThrustCoefficient = thruster.Float(coeff)
	}
	if flags.Changed("diameter") {
		cfg.Thruster.PropellerDiameter = thruster.Float(diameter)
	}
	if flags.Changed("density") {
		cfg.Thruster.FluidDensity = thruster.Float(density)
	}
	if flags.Changed("thrust") || flags.Changed("topic") {
		cfg.Commands = []config.Command{{Time: 0, Value: thrust, Topic: topic}}
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runID := logging.GenerateRunID()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.NewLogger()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry(), log)

	var srv *http.Server
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		col, err := metrics.NewCollectors(reg)
		if err != nil {
			return err
		}
		exp.UseCollectors(col)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer srv.Close()
		log.Info(ctx, "serving metrics", "addr", metricsAddr)
	}

	if err := exp.Setup(ctx); err != nil {
		return err
	}

	fmt.Printf("running %s/%s ...\n", cfg.Model, cfg.Thruster.JointName)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	id, err := st.Save(runID, preset, cfg, result)
	if err != nil {
		return err
	}

	last := result.Samples[len(result.Samples)-1]
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", id)
	fmt.Printf("thruster: %s\n", result.Phase)
	fmt.Printf("steps: %d (paused %d)\n", result.Stats.StepsTaken, result.Stats.PausedSteps)
	fmt.Printf("final: x=%.4f m  vx=%.4f m/s  ω=%.3f rad/s  thrust=%.2f N\n",
		last.Position.X(), last.Velocity.X(), last.PropellerSpeed, last.ProducedThrust)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	if srv != nil {
		fmt.Printf("\nmetrics on %s/metrics, ctrl+c to exit\n", metricsAddr)
		<-ctx.Done()
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// the terminal belongs to the view; keep logs quiet unless asked for
	log := logging.Discard()
	if os.Getenv("THRUSTSIM_LOG_LEVEL") != "" {
		log = logging.NewLogger()
	}

	exp := experiment.New(cfg, experiment.NewRegistry(), log)
	if err := exp.Setup(context.Background()); err != nil {
		return err
	}
	// the view only reads the newest sample
	exp.LimitSamples(liveSampleLimit)

	p := tea.NewProgram(viz.NewModel(exp, stepsPerTick), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
