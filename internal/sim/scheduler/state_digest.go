package scheduler

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// Digest hashes the committed population in commit order. Two runs with the
// same seed, worker count and config produce the same digest sequence.
func (s *Scheduler) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	cells := s.pop.Cells()
	digestWriteU64(h, &tmp, uint64(len(cells)))
	for _, c := range cells {
		digestWriteU64(h, &tmp, c.ID())
		p := c.Position()
		digestWriteF64(h, &tmp, p.X)
		digestWriteF64(h, &tmp, p.Y)
		digestWriteF64(h, &tmp, p.Z)
		digestWriteF64(h, &tmp, c.Diameter())
		digestWriteU64(h, &tmp, uint64(uint32(c.Color())))
		d := c.GetPositionUpdate()
		digestWriteF64(h, &tmp, d.X)
		digestWriteF64(h, &tmp, d.Y)
		digestWriteF64(h, &tmp, d.Z)
		digestWriteU64(h, &tmp, uint64(len(c.Behaviors())))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteF64(h hash.Hash, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}
