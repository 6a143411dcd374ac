// Package rng provides the deterministic per-worker random streams used by
// behaviors. Each worker owns one Source; sources are never shared.
package rng

import (
	"math"
	"math/rand/v2"
)

// Source is a thin wrapper around a PCG-backed math/rand/v2 generator.
type Source struct {
	seed uint64
	r    *rand.Rand
}

// New creates a deterministic source for the given seed.
func New(seed uint64) *Source {
	s := &Source{}
	s.SetSeed(seed)
	return s
}

// SetSeed resets the stream so that subsequent draws replay from the start.
func (s *Source) SetSeed(seed uint64) {
	s.seed = seed
	s.r = rand.New(rand.NewPCG(seed, 0))
}

// Seed reports the seed the stream was last reset with.
func (s *Source) Seed() uint64 { return s.seed }

// Uniform returns one draw in [low, high). If high <= low it returns low.
func (s *Source) Uniform(low, high float64) float64 {
	if high <= low {
		return low
	}
	v := low + (high-low)*s.r.Float64()
	// Rounding can land exactly on high for wide ranges.
	if v >= high {
		v = math.Nextafter(high, low)
	}
	return v
}

// UnitVector returns a direction uniformly distributed on the unit sphere.
func (s *Source) UnitVector() (x, y, z float64) {
	zc := s.Uniform(-1, 1)
	phi := s.Uniform(0, 2*math.Pi)
	r := math.Sqrt(1 - zc*zc)
	return r * math.Cos(phi), r * math.Sin(phi), zc
}

// NewStreams builds n independent sources seeded base, base+1, ..., base+n-1.
func NewStreams(base uint64, n int) []*Source {
	if n < 1 {
		n = 1
	}
	out := make([]*Source, n)
	for i := range out {
		out[i] = New(base + uint64(i))
	}
	return out
}
