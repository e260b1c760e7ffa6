// Package sched drives concurrent tile decode: a small per-tile task DAG
// (marker-parse -> T2-parse -> T1 dispatch -> IDWT dispatch -> composite),
// a growing tile-batching window, and a Future-based async API. The teacher
// runs tile decode synchronously start to finish with no fan-out at all;
// everything here is new.
package sched

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrCancelled names the cancellation of a DAG node after an earlier
// failure. Neither Future.Wait nor runTile returns it in practice: runTile's
// failure flag is local to one call and is set only as that call returns the
// failing phase's wrapped error, so the tile's later phases simply do not run.
var ErrCancelled = errors.New("sched: cancelled by earlier failure")

// Scheduler bounds the concurrency of tile and sub-tile work. MaxWorkers=0
// means runtime.GOMAXPROCS(0); MaxWorkers=1 is single-threaded mode, an
// explicit first-class setting (not an emergent property of a low worker
// count) honored by sizing the semaphore to 1.
type Scheduler struct {
	MaxWorkers int
	sem        *semaphore.Weighted
	once       sync.Once
}

func (s *Scheduler) init() {
	s.once.Do(func() {
		n := s.MaxWorkers
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		s.sem = semaphore.NewWeighted(int64(n))
	})
}

// TileNode is one tile's DAG: a linear chain of phases, each gated on the
// previous succeeding and on a shared cancellation flag so a fatal error in
// one tile's pipeline does not waste work on phases that can no longer
// matter (it does not cancel SIBLING tiles — spec calls for no cooperative
// cancellation across tiles, only within one tile's own DAG).
type TileNode struct {
	TileIndex int
	ParseT2   func(ctx context.Context) error
	DecodeT1  func(ctx context.Context) error
	InverseDWT func(ctx context.Context) error
	Composite func(ctx context.Context) error
}

func (s *Scheduler) runTile(ctx context.Context, node TileNode) error {
	var failed atomic.Bool
	phases := []func(context.Context) error{node.ParseT2, node.DecodeT1, node.InverseDWT, node.Composite}
	for _, phase := range phases {
		if phase == nil {
			continue
		}
		if failed.Load() {
			return ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.acquire(ctx); err != nil {
			return err
		}
		err := phase(ctx)
		s.release()
		if err != nil {
			failed.Store(true)
			return errors.Wrapf(err, "sched: tile %d", node.TileIndex)
		}
	}
	return nil
}

func (s *Scheduler) acquire(ctx context.Context) error {
	s.init()
	return s.sem.Acquire(ctx, 1)
}

func (s *Scheduler) release() {
	s.sem.Release(1)
}

// Decode runs every tile's DAG concurrently under one errgroup, bounded by
// the scheduler's semaphore, and returns the first error encountered (all
// others are still allowed to finish their current phase before the group
// unwinds, per errgroup semantics).
func (s *Scheduler) Decode(ctx context.Context, nodes []TileNode) error {
	s.init()
	g, gctx := errgroup.WithContext(ctx)
	for _, node := range nodes {
		node := node
		g.Go(func() error {
			return s.runTile(gctx, node)
		})
	}
	return g.Wait()
}

// Window implements the tile-batching window: initial concurrency 2,
// growing by 2 after each completed row of tiles, per spec's progressive
// ramp-up (avoids flooding a remote fetcher with every tile's requests at
// once while still reaching full parallelism quickly on wide images).
type Window struct {
	TilesPerRow int
	concurrency int
	completed   int
}

// NewWindow starts a window at concurrency 2 (or tilesPerRow, if smaller).
func NewWindow(tilesPerRow int) *Window {
	c := 2
	if tilesPerRow > 0 && tilesPerRow < c {
		c = tilesPerRow
	}
	return &Window{TilesPerRow: tilesPerRow, concurrency: c}
}

// Concurrency returns the current batch size.
func (w *Window) Concurrency() int { return w.concurrency }

// Advance records n completed tiles and grows the window by 2 for each
// completed row crossed.
func (w *Window) Advance(n int) {
	if w.TilesPerRow <= 0 {
		return
	}
	prevRows := w.completed / w.TilesPerRow
	w.completed += n
	newRows := w.completed / w.TilesPerRow
	if newRows > prevRows {
		w.concurrency += 2 * (newRows - prevRows)
	}
}
