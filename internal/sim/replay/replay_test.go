package replay

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/seemapankhania/movingcellsmoother/internal/persistence/trace"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/scheduler"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/setup"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/tuning"
)

func recordRun(t *testing.T, cfg tuning.Config, tamper func(*scheduler.StepLogEntry)) string {
	t.Helper()
	runID := uuid.NewString()
	w, err := trace.NewWriter(t.TempDir(), runID)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(trace.Header{
		RunID:     runID,
		Seed:      cfg.Seed,
		Workers:   cfg.WorkerCount(),
		NumAgents: cfg.NumAgents,
		Config:    cfg,
	}))

	rec := &tamperLogger{w: w, tamper: tamper}
	sched, err := setup.New(cfg, scheduler.WithStepLogger(rec))
	require.NoError(t, err)
	require.NoError(t, sched.Simulate(cfg.NumSteps))
	require.NoError(t, w.Close())
	return w.Path()
}

type tamperLogger struct {
	w      *trace.Writer
	tamper func(*scheduler.StepLogEntry)
}

func (l *tamperLogger) WriteStep(e scheduler.StepLogEntry) error {
	if l.tamper != nil {
		l.tamper(&e)
	}
	return l.w.WriteStep(e)
}

func testConfig() tuning.Config {
	cfg := tuning.Defaults()
	cfg.Seed = 11
	cfg.Workers = 3
	cfg.NumAgents = 20
	cfg.NumSteps = 15
	return cfg
}

func TestFile_ReproducesDigests(t *testing.T) {
	path := recordRun(t, testConfig(), nil)
	res, err := File(path)
	require.NoError(t, err)
	require.Equal(t, uint64(15), res.Checked)
	require.Equal(t, 20, res.Agents)
	require.NotEmpty(t, res.Digest)
	require.NotEmpty(t, res.RunID)
}

func TestFile_DetectsTamperedDigest(t *testing.T) {
	path := recordRun(t, testConfig(), func(e *scheduler.StepLogEntry) {
		if e.Step == 4 {
			e.Digest = "0000"
		}
	})
	res, err := File(path)
	require.ErrorIs(t, err, ErrDigestMismatch)
	require.Equal(t, uint64(5), res.Checked)
}

func TestFile_MissingTrace(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope.jsonl.zst"))
	require.Error(t, err)
}
