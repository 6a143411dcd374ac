package behaviors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seemapankhania/movingcellsmoother/internal/sim/cell"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/rng"
)

func newCell(t *testing.T, pos cell.Vec3, d float64) *cell.Cell {
	t.Helper()
	c, err := cell.New(pos, d)
	require.NoError(t, err)
	return c
}

func TestRandomWalk_MatchesSmoothingFormula(t *testing.T) {
	c := newCell(t, cell.Vec3{X: 50, Y: 50, Z: 50}, 7)
	c.SavePositionUpdate(cell.Vec3{X: 2, Y: -2, Z: 4})

	w := NewRandomWalk()
	require.NoError(t, w.Run(c, &cell.Env{RNG: rng.New(5)}))

	ref := rng.New(5)
	rx, ry, rz := ref.Uniform(-20, 20), ref.Uniform(-20, 20), ref.Uniform(-20, 20)
	want := cell.Vec3{
		X: 0.5*2 + 0.02*rx,
		Y: 0.5*-2 + 0.02*ry,
		Z: 0.5*4 + 0.02*rz,
	}
	require.Equal(t, want, c.GetPositionUpdate())
	require.Equal(t, cell.Vec3{X: 50 + want.X, Y: 50 + want.Y, Z: 50 + want.Z}, c.Position())
}

func TestRandomWalk_RawModeSavesDraw(t *testing.T) {
	c := newCell(t, cell.Vec3{}, 7)
	w := NewRandomWalk()
	w.Save = SaveRaw
	require.NoError(t, w.Run(c, &cell.Env{RNG: rng.New(5)}))

	ref := rng.New(5)
	raw := cell.Vec3{X: ref.Uniform(-20, 20), Y: ref.Uniform(-20, 20), Z: ref.Uniform(-20, 20)}
	require.Equal(t, raw, c.GetPositionUpdate())
	// The cell moved by the smoothed vector, not the raw one.
	require.Equal(t, raw.Scale(0.02), c.Position())
}

func TestRandomWalk_DeterministicPerSeed(t *testing.T) {
	run := func() ([]cell.Vec3, []cell.Vec3) {
		c := newCell(t, cell.Vec3{X: 10, Y: 10, Z: 10}, 7)
		env := &cell.Env{RNG: rng.New(42)}
		w := NewRandomWalk()
		var disp, pos []cell.Vec3
		for i := 0; i < 50; i++ {
			require.NoError(t, w.Run(c, env))
			disp = append(disp, c.GetPositionUpdate())
			pos = append(pos, c.Position())
		}
		return disp, pos
	}
	d1, p1 := run()
	d2, p2 := run()
	require.Equal(t, d1, d2)
	require.Equal(t, p1, p2)
}

func TestRandomWalk_RequiresRandomSource(t *testing.T) {
	c := newCell(t, cell.Vec3{}, 7)
	require.ErrorIs(t, NewRandomWalk().Run(c, &cell.Env{}), ErrNoRandomSource)
	require.Equal(t, cell.Vec3{}, c.Position())
}

func TestParseSaveMode(t *testing.T) {
	m, err := ParseSaveMode("")
	require.NoError(t, err)
	require.Equal(t, SaveApplied, m)
	m, err = ParseSaveMode("raw")
	require.NoError(t, err)
	require.Equal(t, SaveRaw, m)
	_, err = ParseSaveMode("both")
	require.Error(t, err)
}

func TestGrowth_StopsAtMaxDiameter(t *testing.T) {
	c := newCell(t, cell.Vec3{}, 7)
	g := &Growth{Rate: 400, MaxDiameter: 8}
	env := &cell.Env{TimeStep: 0.01}
	prev := c.Diameter()
	for i := 0; i < 1000; i++ {
		require.NoError(t, g.Run(c, env))
		require.GreaterOrEqual(t, c.Diameter(), prev)
		prev = c.Diameter()
	}
	require.GreaterOrEqual(t, c.Diameter(), 8.0)
	require.Less(t, c.Diameter(), 8.1)
}

func TestDivision_SpawnsDaughterWithHalfVolume(t *testing.T) {
	c := newCell(t, cell.Vec3{X: 1, Y: 1, Z: 1}, 10)
	c.SetColor(4)
	c.SavePositionUpdate(cell.Vec3{X: 3})
	c.AddBehavior(NewRandomWalk())
	before := c.Volume()

	var spawned []*cell.Cell
	env := &cell.Env{RNG: rng.New(1), Spawn: func(d *cell.Cell) { spawned = append(spawned, d) }}
	require.NoError(t, (&Division{Threshold: 10}).Run(c, env))

	require.Len(t, spawned, 1)
	d := spawned[0]
	require.InDelta(t, before/2, c.Volume(), 1e-9)
	require.InDelta(t, c.Diameter(), d.Diameter(), 1e-12)
	require.Equal(t, int32(4), d.Color())
	require.Equal(t, cell.Vec3{}, d.GetPositionUpdate())
	require.Len(t, d.Behaviors(), 1)

	dp, mp := d.Position(), c.Position()
	dx, dy, dz := dp.X-mp.X, dp.Y-mp.Y, dp.Z-mp.Z
	require.InDelta(t, c.Diameter()/2, math.Sqrt(dx*dx+dy*dy+dz*dz), 1e-9)
}

func TestDivision_BelowThresholdIsNoop(t *testing.T) {
	c := newCell(t, cell.Vec3{}, 7)
	called := false
	env := &cell.Env{RNG: rng.New(1), Spawn: func(*cell.Cell) { called = true }}
	require.NoError(t, (&Division{Threshold: 14}).Run(c, env))
	require.False(t, called)
	require.Equal(t, 7.0, c.Diameter())
}

func TestDivision_RequiresSpawn(t *testing.T) {
	c := newCell(t, cell.Vec3{}, 20)
	require.ErrorIs(t, (&Division{Threshold: 14}).Run(c, &cell.Env{RNG: rng.New(1)}), ErrNoSpawn)
}
