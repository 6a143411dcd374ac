package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a config file without running it",
		Long: `Check a config file against the schema and the semantic rules that
run would apply, then print the resolved configuration.

Examples:
  cellsim validate --config configs/sim.yaml
  cellsim validate --config configs/sim.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: agents=%d steps=%d seed=%d workers=%d bounds=%v [%v, %v]\n",
				cfg.NumAgents, cfg.NumSteps, cfg.Seed, cfg.WorkerCount(), cfg.BoundEnabled, cfg.BoundMin, cfg.BoundMax)
			return nil
		},
	}
	cmd.Flags().String("config", "", "Path to YAML config (defaults apply when empty)")
	return cmd
}
