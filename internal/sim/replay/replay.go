// Package replay rebuilds a run from a trace header and checks that every
// recorded step digest is reproduced.
package replay

import (
	"errors"
	"fmt"
	"io"

	"github.com/seemapankhania/movingcellsmoother/internal/persistence/trace"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/scheduler"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/setup"
)

var ErrDigestMismatch = errors.New("replay: digest mismatch")

type Result struct {
	RunID   string `json:"run_id"`
	Checked uint64 `json:"checked"`
	Agents  int    `json:"agents"`
	Digest  string `json:"digest"`
}

// File replays the trace at path. The worker count recorded in the header
// overrides the config's, since streams are per worker.
func File(path string, opts ...scheduler.Option) (Result, error) {
	r, err := trace.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer r.Close()

	h := r.Header()
	cfg := h.Config
	cfg.Workers = h.Workers
	cfg.Trace.Enabled = false
	sched, err := setup.New(cfg, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("rebuild: %w", err)
	}

	res := Result{RunID: h.RunID}
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		if entry.Step != sched.CurrentStep() {
			return res, fmt.Errorf("step mismatch: want=%d got=%d", sched.CurrentStep(), entry.Step)
		}
		step, digest, err := sched.StepOnce()
		if err != nil {
			return res, err
		}
		res.Checked++
		if digest != entry.Digest {
			return res, fmt.Errorf("%w at step %d: got=%s want=%s", ErrDigestMismatch, step, digest, entry.Digest)
		}
	}
	m := sched.Metrics()
	res.Agents = m.Agents
	res.Digest = m.Digest
	return res, nil
}
