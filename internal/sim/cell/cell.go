// Package cell holds the per-agent record and the behavior contract that
// drives it. A Cell is only ever mutated by its own behaviors during its own
// turn; nothing here touches other records.
package cell

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidDiameter = errors.New("cell: diameter must be > 0")

type Cell struct {
	id uint64

	position Vec3
	diameter float64

	color int32

	// Most recent movement vector, read back by momentum-style walks.
	lastDisplacement Vec3

	behaviors []Behavior
}

// New returns a cell at pos with the given diameter. A non-positive diameter
// is rejected.
func New(pos Vec3, diameter float64) (*Cell, error) {
	c := &Cell{position: pos}
	if err := c.SetDiameter(diameter); err != nil {
		return nil, err
	}
	return c, nil
}

// ID is zero until the population commits the cell.
func (c *Cell) ID() uint64 { return c.id }

func (c *Cell) SetID(id uint64) { c.id = id }

func (c *Cell) Position() Vec3 { return c.position }

func (c *Cell) SetPosition(p Vec3) { c.position = p }

func (c *Cell) Diameter() float64 { return c.diameter }

func (c *Cell) Color() int32 { return c.color }

func (c *Cell) SetColor(v int32) { c.color = v }

func (c *Cell) SetDiameter(d float64) error {
	if !(d > 0) || math.IsInf(d, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidDiameter, d)
	}
	c.diameter = d
	return nil
}

// SavePositionUpdate overwrites the stored last displacement.
func (c *Cell) SavePositionUpdate(v Vec3) { c.lastDisplacement = v }

// GetPositionUpdate returns the stored last displacement.
func (c *Cell) GetPositionUpdate() Vec3 { return c.lastDisplacement }

// UpdatePosition translates the cell by delta. Bounds are not checked here.
func (c *Cell) UpdatePosition(delta Vec3) { c.position = c.position.Add(delta) }

// Volume of the sphere with the current diameter.
func (c *Cell) Volume() float64 {
	r := c.diameter / 2
	return 4.0 / 3.0 * math.Pi * r * r * r
}

// ChangeVolume adds delta to the volume and recomputes the diameter. The
// result is rejected if the volume would not stay positive.
func (c *Cell) ChangeVolume(delta float64) error {
	v := c.Volume() + delta
	if !(v > 0) {
		return fmt.Errorf("%w: volume %v", ErrInvalidDiameter, v)
	}
	return c.SetDiameter(2 * math.Cbrt(v*3/(4*math.Pi)))
}

func (c *Cell) AddBehavior(b Behavior) {
	if b == nil {
		return
	}
	c.behaviors = append(c.behaviors, b)
}

// Behaviors returns the attached behaviors in run order.
func (c *Cell) Behaviors() []Behavior { return c.behaviors }

// Clone copies the record with a fresh zero id. Only behaviors whose mask
// includes event are carried over, each via its own Clone.
func (c *Cell) Clone(event EventMask) *Cell {
	out := &Cell{
		position:         c.position,
		diameter:         c.diameter,
		color:            c.color,
		lastDisplacement: c.lastDisplacement,
	}
	for _, b := range c.behaviors {
		if b.Mask()&event == 0 {
			continue
		}
		out.behaviors = append(out.behaviors, b.Clone())
	}
	return out
}
