// Package behaviors contains the concrete per-cell update rules.
package behaviors

import (
	"errors"
	"fmt"

	"github.com/seemapankhania/movingcellsmoother/internal/sim/cell"
)

var ErrNoRandomSource = errors.New("behavior: env has no random source")

// SaveMode selects which vector RandomWalk stores as the last displacement.
type SaveMode string

const (
	// SaveApplied stores the smoothed displacement that moved the cell.
	SaveApplied SaveMode = "applied"

	// SaveRaw stores the unsmoothed draw, so the next step's momentum term is
	// built from r rather than from the applied vector.
	SaveRaw SaveMode = "raw"
)

func ParseSaveMode(s string) (SaveMode, error) {
	switch SaveMode(s) {
	case "", SaveApplied:
		return SaveApplied, nil
	case SaveRaw:
		return SaveRaw, nil
	default:
		return "", fmt.Errorf("unknown save mode %q (want applied|raw)", s)
	}
}

const (
	DefaultWalkRange    = 20.0
	DefaultWalkMomentum = 0.5
	DefaultWalkGain     = 0.02
)

// RandomWalk moves a cell by curr = Momentum*last + Gain*r with r drawn
// uniformly from [-Range, Range) per axis.
type RandomWalk struct {
	Range    float64
	Momentum float64
	Gain     float64
	Save     SaveMode
}

func NewRandomWalk() *RandomWalk {
	return &RandomWalk{
		Range:    DefaultWalkRange,
		Momentum: DefaultWalkMomentum,
		Gain:     DefaultWalkGain,
		Save:     SaveApplied,
	}
}

func (w *RandomWalk) Name() string { return "random_walk" }

func (w *RandomWalk) Mask() cell.EventMask { return cell.AllEvents }

func (w *RandomWalk) Clone() cell.Behavior {
	cp := *w
	return &cp
}

func (w *RandomWalk) Run(c *cell.Cell, env *cell.Env) error {
	if env == nil || env.RNG == nil {
		return ErrNoRandomSource
	}
	// Draw order is X, Y, Z.
	var r cell.Vec3
	r.X = env.RNG.Uniform(-w.Range, w.Range)
	r.Y = env.RNG.Uniform(-w.Range, w.Range)
	r.Z = env.RNG.Uniform(-w.Range, w.Range)

	last := c.GetPositionUpdate()
	curr := cell.Vec3{
		X: w.Momentum*last.X + w.Gain*r.X,
		Y: w.Momentum*last.Y + w.Gain*r.Y,
		Z: w.Momentum*last.Z + w.Gain*r.Z,
	}
	c.UpdatePosition(curr)

	if w.Save == SaveRaw {
		c.SavePositionUpdate(r)
	} else {
		c.SavePositionUpdate(curr)
	}
	return nil
}
