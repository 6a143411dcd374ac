package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/seemapankhania/movingcellsmoother/internal/logging"
	"github.com/seemapankhania/movingcellsmoother/internal/persistence/trace"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/scheduler"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/setup"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/tuning"
)

const completedMessage = "Simulation completed successfully!"

type runResult struct {
	RunID       string `json:"run_id"`
	Steps       uint64 `json:"steps"`
	Agents      int    `json:"agents"`
	Workers     int    `json:"workers"`
	Invocations uint64 `json:"invocations"`
	Digest      string `json:"digest"`
	Trace       string `json:"trace,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Seed a population and simulate it",
		Long: `Seed a population and simulate it for num_steps steps.

Flags override the YAML config only when they are set explicitly.

Examples:
  cellsim run                                # built-in defaults
  cellsim run --config configs/sim.yaml
  cellsim run --agents 1000 --steps 50 --workers 8 --trace-dir ./data/traces`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			logger := logging.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())

			res, err := runSimulation(cfg, logger)
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), completedMessage)
			return nil
		},
	}

	cmd.Flags().String("config", "", "Path to YAML config (defaults apply when empty)")
	cmd.Flags().Int("agents", 0, "Number of initial cells")
	cmd.Flags().Int("steps", 0, "Number of steps to simulate")
	cmd.Flags().Uint64("seed", 0, "Base random seed (results repeat only for a fixed --workers)")
	cmd.Flags().Int("workers", 0, "Worker count (0 = number of CPUs, which varies by host)")
	cmd.Flags().Bool("bound", true, "Clamp positions into [min, max]^3")
	cmd.Flags().Float64("min", 0, "Lower domain bound")
	cmd.Flags().Float64("max", 0, "Upper domain bound")
	cmd.Flags().String("save", "", "Walk displacement save mode: applied or raw")
	cmd.Flags().String("trace-dir", "", "Write a step trace into this directory")
	return cmd
}

// loadConfig reads --config and applies only the flags the user set.
func loadConfig(cmd *cobra.Command) (tuning.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := tuning.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("agents") {
		cfg.NumAgents, _ = flags.GetInt("agents")
	}
	if flags.Changed("steps") {
		cfg.NumSteps, _ = flags.GetInt("steps")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("bound") {
		cfg.BoundEnabled, _ = flags.GetBool("bound")
	}
	if flags.Changed("min") {
		cfg.BoundMin, _ = flags.GetFloat64("min")
	}
	if flags.Changed("max") {
		cfg.BoundMax, _ = flags.GetFloat64("max")
	}
	if flags.Changed("save") {
		cfg.Walk.Save, _ = flags.GetString("save")
	}
	if flags.Changed("trace-dir") {
		cfg.Trace.Dir, _ = flags.GetString("trace-dir")
		cfg.Trace.Enabled = cfg.Trace.Dir != ""
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runSimulation(cfg tuning.Config, logger *slog.Logger) (runResult, error) {
	res := runResult{RunID: uuid.NewString(), Workers: cfg.WorkerCount()}
	opts := []scheduler.Option{scheduler.WithLogger(logger.With("run_id", res.RunID))}

	var tw *trace.Writer
	if cfg.Trace.Enabled {
		var err error
		tw, err = trace.NewWriter(cfg.Trace.Dir, res.RunID)
		if err != nil {
			return res, fmt.Errorf("open trace: %w", err)
		}
		defer closeTrace(tw, logger)
		err = tw.WriteHeader(trace.Header{
			RunID:     res.RunID,
			Seed:      cfg.Seed,
			Workers:   res.Workers,
			NumAgents: cfg.NumAgents,
			Config:    cfg,
		})
		if err != nil {
			return res, fmt.Errorf("write trace header: %w", err)
		}
		res.Trace = tw.Path()
		opts = append(opts, scheduler.WithStepLogger(tw))
	}

	sched, err := setup.New(cfg, opts...)
	if err != nil {
		return res, err
	}
	if err := sched.Simulate(cfg.NumSteps); err != nil {
		return res, err
	}

	m := sched.Metrics()
	res.Steps = sched.CurrentStep()
	res.Agents = m.Agents
	res.Invocations = sched.Invocations()
	res.Digest = sched.Digest()
	return res, nil
}

func closeTrace(c io.Closer, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("close trace", "err", err)
	}
}
