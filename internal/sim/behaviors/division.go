package behaviors

import (
	"errors"
	"fmt"

	"github.com/seemapankhania/movingcellsmoother/internal/sim/cell"
)

var ErrNoSpawn = errors.New("behavior: env cannot spawn cells")

// Division splits a cell once its diameter reaches Threshold. The mother keeps
// half the volume; the daughter is placed one radius away along a random
// direction and only becomes visible after the next commit.
type Division struct {
	Threshold float64
}

func (d *Division) Name() string { return "division" }

func (d *Division) Mask() cell.EventMask { return cell.AllEvents }

func (d *Division) Clone() cell.Behavior {
	cp := *d
	return &cp
}

func (d *Division) Run(c *cell.Cell, env *cell.Env) error {
	if c.Diameter() < d.Threshold {
		return nil
	}
	if env == nil || env.RNG == nil {
		return ErrNoRandomSource
	}
	if env.Spawn == nil {
		return ErrNoSpawn
	}
	if err := c.ChangeVolume(-c.Volume() / 2); err != nil {
		return fmt.Errorf("division: %w", err)
	}
	x, y, z := env.RNG.UnitVector()
	offset := cell.Vec3{X: x, Y: y, Z: z}.Scale(c.Diameter() / 2)

	daughter := c.Clone(cell.EventDivision)
	daughter.UpdatePosition(offset)
	daughter.SavePositionUpdate(cell.Vec3{})
	env.Spawn(daughter)
	return nil
}
