package behaviors

import (
	"fmt"

	"github.com/seemapankhania/movingcellsmoother/internal/sim/cell"
)

// Growth adds Rate*TimeStep volume per step until the cell reaches
// MaxDiameter.
type Growth struct {
	Rate        float64
	MaxDiameter float64
}

func (g *Growth) Name() string { return "growth" }

func (g *Growth) Mask() cell.EventMask { return cell.AllEvents }

func (g *Growth) Clone() cell.Behavior {
	cp := *g
	return &cp
}

func (g *Growth) Run(c *cell.Cell, env *cell.Env) error {
	if c.Diameter() >= g.MaxDiameter {
		return nil
	}
	dt := 1.0
	if env != nil && env.TimeStep > 0 {
		dt = env.TimeStep
	}
	if err := c.ChangeVolume(g.Rate * dt); err != nil {
		return fmt.Errorf("growth: %w", err)
	}
	return nil
}
