// Package population owns the committed cell set and the buffers that stage
// structural changes until the next commit.
package population

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seemapankhania/movingcellsmoother/internal/sim/cell"
)

var ErrPanic = errors.New("population: visitor panicked")

// Population is safe for concurrent Append. ForEach must not overlap with
// Commit, Discard or Pending, since worker spawn buffers are written without
// the lock while ForEach runs; the scheduler calls them strictly one after
// the other.
type Population struct {
	mu sync.Mutex

	cells   []*cell.Cell
	pending []*cell.Cell

	// Per-worker spawn buffers. Only worker i writes staged[i] during ForEach.
	staged [][]*cell.Cell

	nextID uint64
}

func New() *Population {
	return &Population{}
}

// Reserve grows the committed capacity to at least n. It has no effect on
// contents.
func (p *Population) Reserve(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n <= cap(p.cells) {
		return
	}
	grown := make([]*cell.Cell, len(p.cells), n)
	copy(grown, p.cells)
	p.cells = grown
}

// Append stages c for the next Commit. It is never visible to a ForEach that
// is already running.
func (p *Population) Append(c *cell.Cell) {
	if c == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, c)
	p.mu.Unlock()
}

// Commit makes all staged cells visible and returns how many were added.
// Cells appended directly come first, then worker spawns in worker order, so
// ids are stable for a fixed worker count.
func (p *Population) Commit() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	add := func(c *cell.Cell) {
		p.nextID++
		c.SetID(p.nextID)
		p.cells = append(p.cells, c)
		added++
	}
	for _, c := range p.pending {
		add(c)
	}
	p.pending = p.pending[:0]
	for i := range p.staged {
		for _, c := range p.staged[i] {
			add(c)
		}
		p.staged[i] = p.staged[i][:0]
	}
	return added
}

// Discard drops every staged cell without committing it and returns how
// many were dropped. Ids are not consumed.
func (p *Population) Discard() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.pending)
	clear(p.pending)
	p.pending = p.pending[:0]
	for i := range p.staged {
		n += len(p.staged[i])
		clear(p.staged[i])
		p.staged[i] = p.staged[i][:0]
	}
	return n
}

// Size is the number of committed cells.
func (p *Population) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cells)
}

// Pending is the number of cells waiting for Commit. Not safe during
// ForEach.
func (p *Population) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.pending)
	for _, s := range p.staged {
		n += len(s)
	}
	return n
}

// Cells returns a copy of the committed snapshot in commit order.
func (p *Population) Cells() []*cell.Cell {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*cell.Cell(nil), p.cells...)
}

// Worker is handed to visitors; it identifies the executing worker and
// stages spawns into that worker's buffer.
type Worker struct {
	ID   int
	Step uint64

	pop *Population
}

func (w *Worker) Spawn(c *cell.Cell) {
	if c == nil {
		return
	}
	w.pop.staged[w.ID] = append(w.pop.staged[w.ID], c)
}

type VisitFunc func(w *Worker, c *cell.Cell) error

// ForEach applies fn to every committed cell exactly once. The snapshot is
// split into contiguous chunks, one per worker, so the cell-to-worker mapping
// only depends on the population size and worker count. The first error
// stops the remaining workers at their next cell and is returned.
func (p *Population) ForEach(step uint64, workers int, fn VisitFunc) error {
	p.mu.Lock()
	snapshot := p.cells[:len(p.cells):len(p.cells)]
	if workers < 1 {
		workers = 1
	}
	for len(p.staged) < workers {
		p.staged = append(p.staged, nil)
	}
	p.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}
	if workers > len(snapshot) {
		workers = len(snapshot)
	}
	chunk := (len(snapshot) + workers - 1) / workers

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < workers; i++ {
		lo := i * chunk
		if lo >= len(snapshot) {
			break
		}
		hi := lo + chunk
		if hi > len(snapshot) {
			hi = len(snapshot)
		}
		w := &Worker{ID: i, Step: step, pop: p}
		part := snapshot[lo:hi]
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: worker %d: %v", ErrPanic, w.ID, r)
				}
			}()
			for _, c := range part {
				if ctx.Err() != nil {
					return nil
				}
				if err := fn(w, c); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
