package rng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniform_SameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Uniform(-20, 20), b.Uniform(-20, 20), "draw %d", i)
	}
}

func TestUniform_Range(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		v := s.Uniform(-20, 20)
		require.GreaterOrEqual(t, v, -20.0)
		require.Less(t, v, 20.0)
	}
	require.Equal(t, 5.0, s.Uniform(5, 5))
	require.Equal(t, 5.0, s.Uniform(5, 1))
}

func TestSetSeed_Replays(t *testing.T) {
	s := New(3)
	first := []float64{s.Uniform(0, 1), s.Uniform(0, 1), s.Uniform(0, 1)}
	s.SetSeed(3)
	again := []float64{s.Uniform(0, 1), s.Uniform(0, 1), s.Uniform(0, 1)}
	require.Equal(t, first, again)
	require.Equal(t, uint64(3), s.Seed())
}

func TestNewStreams_DistinctSeeds(t *testing.T) {
	streams := NewStreams(100, 4)
	require.Len(t, streams, 4)
	for i, s := range streams {
		require.Equal(t, uint64(100+i), s.Seed())
	}
	require.NotEqual(t, streams[0].Uniform(0, 1), streams[1].Uniform(0, 1))

	require.Len(t, NewStreams(1, 0), 1)
}

func TestUnitVector_Length(t *testing.T) {
	s := New(11)
	for i := 0; i < 100; i++ {
		x, y, z := s.UnitVector()
		require.InDelta(t, 1.0, x*x+y*y+z*z, 1e-9)
	}
}
