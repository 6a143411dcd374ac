package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seemapankhania/movingcellsmoother/internal/logging"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/replay"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/scheduler"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run a recorded trace and verify every step digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("trace")
			if path == "" {
				return errors.New("missing --trace")
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			level, _ := cmd.Flags().GetString("log-level")
			logger := logging.NewLogger(level, cmd.ErrOrStderr())

			res, err := replay.File(path, scheduler.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("replay: %w", err)
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replay ok: run=%s checked=%d steps agents=%d\n", res.RunID, res.Checked, res.Agents)
			return nil
		},
	}
	cmd.Flags().String("trace", "", "Path to trace-<run_id>.jsonl.zst")
	return cmd
}
