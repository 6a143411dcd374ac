// Package setup turns a validated tuning.Config into a seeded population and
// a ready-to-run scheduler.
package setup

import (
	"fmt"

	"github.com/seemapankhania/movingcellsmoother/internal/sim/behaviors"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/cell"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/population"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/rng"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/scheduler"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/tuning"
)

// Behaviors returns a fresh behavior set for one cell, in run order:
// walk, then growth, then division.
func Behaviors(cfg tuning.Config) ([]cell.Behavior, error) {
	save, err := behaviors.ParseSaveMode(cfg.Walk.Save)
	if err != nil {
		return nil, err
	}
	out := []cell.Behavior{&behaviors.RandomWalk{
		Range:    cfg.Walk.Range,
		Momentum: cfg.Walk.Momentum,
		Gain:     cfg.Walk.Gain,
		Save:     save,
	}}
	if cfg.Growth.Enabled {
		out = append(out, &behaviors.Growth{Rate: cfg.Growth.Rate, MaxDiameter: cfg.Growth.MaxDiameter})
	}
	if cfg.Division.Enabled {
		out = append(out, &behaviors.Division{Threshold: cfg.Division.Threshold})
	}
	return out, nil
}

// Populate places cfg.NumAgents cells uniformly in [BoundMin, BoundMax)^3,
// drawing X, Y, Z per cell from src, and commits them. The range is used
// even when bounding is off; if it is then empty (BoundMax <= BoundMin)
// every cell starts at (BoundMin, BoundMin, BoundMin).
func Populate(pop *population.Population, src *rng.Source, cfg tuning.Config) error {
	pop.Reserve(cfg.NumAgents)
	for i := 0; i < cfg.NumAgents; i++ {
		pos := cell.Vec3{
			X: src.Uniform(cfg.BoundMin, cfg.BoundMax),
			Y: src.Uniform(cfg.BoundMin, cfg.BoundMax),
			Z: src.Uniform(cfg.BoundMin, cfg.BoundMax),
		}
		c, err := cell.New(pos, cfg.Cell.Diameter)
		if err != nil {
			return fmt.Errorf("seed cell %d: %w", i, err)
		}
		c.SetColor(cfg.Cell.Color)
		c.SavePositionUpdate(cell.Vec3{})
		bs, err := Behaviors(cfg)
		if err != nil {
			return fmt.Errorf("seed cell %d: %w", i, err)
		}
		for _, b := range bs {
			c.AddBehavior(b)
		}
		pop.Append(c)
	}
	pop.Commit()
	return nil
}

// New validates cfg, builds the scheduler and its worker streams, then seeds
// the population from worker 0's stream. No step has run when it returns.
func New(cfg tuning.Config, opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pop := population.New()
	sched, err := scheduler.New(scheduler.Config{
		Workers:      cfg.WorkerCount(),
		Seed:         cfg.Seed,
		TimeStep:     cfg.TimeStep,
		BoundEnabled: cfg.BoundEnabled,
		BoundMin:     cfg.BoundMin,
		BoundMax:     cfg.BoundMax,
	}, pop, opts...)
	if err != nil {
		return nil, err
	}
	if err := Populate(pop, sched.Source(0), cfg); err != nil {
		return nil, err
	}
	return sched, nil
}
