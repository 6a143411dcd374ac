package cell

import "github.com/seemapankhania/movingcellsmoother/internal/sim/rng"

// EventMask selects the lifecycle events on which a behavior is copied to a
// new cell.
type EventMask uint32

const (
	EventDivision EventMask = 1 << iota

	NoEvents  EventMask = 0
	AllEvents EventMask = ^EventMask(0)
)

// Behavior is a per-cell update rule. Run is called exactly once per cell per
// step, from the worker that owns the cell for that step.
type Behavior interface {
	Name() string
	Mask() EventMask
	Run(c *Cell, env *Env) error
	Clone() Behavior
}

// Env is the per-invocation context handed to behaviors. RNG belongs to the
// calling worker; Spawn stages a new cell for the next commit.
type Env struct {
	Step     uint64
	Worker   int
	TimeStep float64
	RNG      *rng.Source
	Spawn    func(*Cell)
}
