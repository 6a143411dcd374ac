// Package scheduler drives the discrete step loop: every committed cell runs
// its behaviors once per step across a fixed worker pool, then the population
// commits at the barrier.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/seemapankhania/movingcellsmoother/internal/logging"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/cell"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/population"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/rng"
)

var (
	ErrBusy          = errors.New("scheduler: simulate already running")
	ErrBehavior      = errors.New("scheduler: behavior failed")
	ErrInvalidBounds = errors.New("scheduler: bound_max must be > bound_min")
	ErrFailed        = errors.New("scheduler: an earlier step failed")
)

type State int32

const (
	Idle State = iota
	Stepping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Config struct {
	Workers  int
	Seed     uint64
	TimeStep float64

	BoundEnabled bool
	BoundMin     float64
	BoundMax     float64
}

// StepLogEntry is one record of the optional step trace.
type StepLogEntry struct {
	Type    string `json:"type"`
	Step    uint64 `json:"step"`
	Agents  int    `json:"agents"`
	Spawned int    `json:"spawned"`
	Digest  string `json:"digest"`
}

const StepLogType = "step"

type StepLogger interface {
	WriteStep(entry StepLogEntry) error
}

type Option func(*Scheduler)

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

func WithStepLogger(l StepLogger) Option {
	return func(s *Scheduler) { s.stepLog = l }
}

// Scheduler owns the worker random streams. Streams are created once in New
// and never reseeded inside the loop.
type Scheduler struct {
	cfg Config
	pop *population.Population

	streams []*rng.Source
	envs    []*cell.Env

	// Behavior invocations per worker; index i is only written by worker i.
	calls []uint64

	state   atomic.Int32
	running atomic.Bool
	step    atomic.Uint64
	metrics atomic.Value

	log     *slog.Logger
	stepLog StepLogger

	// First fatal step error. Once set, every later call returns it. Guarded
	// by running.
	failed error
}

func New(cfg Config, pop *population.Population, opts ...Option) (*Scheduler, error) {
	if pop == nil {
		return nil, errors.New("scheduler: nil population")
	}
	if cfg.BoundEnabled && cfg.BoundMax-cfg.BoundMin <= 0 {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidBounds, cfg.BoundMin, cfg.BoundMax)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.TimeStep <= 0 {
		cfg.TimeStep = 0.01
	}
	s := &Scheduler{
		cfg:     cfg,
		pop:     pop,
		streams: rng.NewStreams(cfg.Seed, cfg.Workers),
		envs:    make([]*cell.Env, cfg.Workers),
		calls:   make([]uint64, cfg.Workers),
		log:     logging.Discard(),
	}
	for i := range s.envs {
		s.envs[i] = &cell.Env{Worker: i, TimeStep: cfg.TimeStep, RNG: s.streams[i]}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Source returns worker i's stream. Seeding draws from Source(0) before the
// first step, as the worker that owns it would.
func (s *Scheduler) Source(i int) *rng.Source { return s.streams[i] }

func (s *Scheduler) Workers() int { return s.cfg.Workers }

func (s *Scheduler) Population() *population.Population { return s.pop }

func (s *Scheduler) State() State { return State(s.state.Load()) }

// CurrentStep is the number of completed steps.
func (s *Scheduler) CurrentStep() uint64 { return s.step.Load() }

// Err reports the fatal step error, if any. Call it only while no step is in
// flight.
func (s *Scheduler) Err() error { return s.failed }

// Simulate runs exactly n steps. It is not resumable mid-step: it returns
// only after the n-th commit or on the first fatal behavior error. After a
// fatal error every later Simulate or StepOnce returns ErrFailed.
func (s *Scheduler) Simulate(n int) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.running.Store(false)
	if s.failed != nil {
		return fmt.Errorf("%w: %w", ErrFailed, s.failed)
	}

	start := time.Now()
	first := s.step.Load()
	s.log.Info("simulate start", "steps", n, "from_step", first, "agents", s.pop.Size(), "workers", s.cfg.Workers)
	for i := 0; i < n; i++ {
		if _, err := s.stepOnce(); err != nil {
			s.log.Error("simulate aborted", "step", s.step.Load(), "err", err)
			return err
		}
	}
	s.log.Info("simulate done", "steps", n, "agents", s.pop.Size(), "elapsed", time.Since(start))
	return nil
}

// StepOnce advances a single step and returns its index and the digest of
// the committed state. It is primarily intended for replays and tests.
func (s *Scheduler) StepOnce() (step uint64, digest string, err error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, "", ErrBusy
	}
	defer s.running.Store(false)
	if s.failed != nil {
		return s.step.Load(), "", fmt.Errorf("%w: %w", ErrFailed, s.failed)
	}
	entry, err := s.stepOnce()
	return entry.Step, entry.Digest, err
}

func (s *Scheduler) stepOnce() (StepLogEntry, error) {
	stepStart := time.Now()
	nowStep := s.step.Load()

	s.state.Store(int32(Stepping))
	defer s.state.Store(int32(Idle))

	if err := s.pop.ForEach(nowStep, s.cfg.Workers, s.runBehaviors); err != nil {
		// Cells already visited have moved and cannot be rolled back, so the
		// half-run step is dropped and the scheduler stays failed.
		dropped := s.pop.Discard()
		s.failed = fmt.Errorf("step %d: %w", nowStep, err)
		s.log.Debug("step failed", "step", nowStep, "dropped_spawns", dropped)
		return StepLogEntry{Step: nowStep}, s.failed
	}

	// Barrier passed: structural changes become visible for the next step.
	spawned := s.pop.Commit()
	if s.cfg.BoundEnabled {
		s.applyBounds()
	}

	digest := s.Digest()
	entry := StepLogEntry{Type: StepLogType, Step: nowStep, Agents: s.pop.Size(), Spawned: spawned, Digest: digest}
	if s.stepLog != nil {
		if err := s.stepLog.WriteStep(entry); err != nil {
			s.log.Warn("step trace write failed", "step", nowStep, "err", err)
		}
	}

	nextStep := s.step.Add(1)
	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	s.metrics.Store(Metrics{
		Step:        nextStep,
		Agents:      entry.Agents,
		Spawned:     spawned,
		Invocations: s.Invocations(),
		StepMS:      stepMS,
		Digest:      digest,
	})
	s.log.Debug("step", "step", nowStep, "agents", entry.Agents, "spawned", spawned, "step_ms", stepMS)
	return entry, nil
}

func (s *Scheduler) runBehaviors(w *population.Worker, c *cell.Cell) error {
	env := s.envs[w.ID]
	env.Step = w.Step
	env.Spawn = w.Spawn
	for _, b := range c.Behaviors() {
		s.calls[w.ID]++
		if err := b.Run(c, env); err != nil {
			return fmt.Errorf("%w: cell %d %s: %w", ErrBehavior, c.ID(), b.Name(), err)
		}
	}
	return nil
}

// applyBounds clamps every committed cell into the domain cube. It runs
// single-threaded after the commit.
func (s *Scheduler) applyBounds() {
	for _, c := range s.pop.Cells() {
		c.SetPosition(c.Position().Clamp(s.cfg.BoundMin, s.cfg.BoundMax))
	}
}

// Invocations is the total number of behavior Run calls so far. Call it only
// while no step is in flight.
func (s *Scheduler) Invocations() uint64 {
	var n uint64
	for _, v := range s.calls {
		n += v
	}
	return n
}
