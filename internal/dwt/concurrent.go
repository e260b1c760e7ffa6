package dwt

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// defaultStripRows bounds how many rows/columns one errgroup task handles,
// balancing goroutine overhead against parallelism on small tiles.
const defaultStripRows = 16

// Inverse2D53Concurrent is Inverse2D53 with its column and row passes
// dispatched across errgroup tasks in row/column strips, generalizing the
// teacher's single-threaded straight-line loops (Inverse2D53) to the
// scheduler's per-resolution concurrency model. Falls back to the
// single-threaded behavior when maxWorkers<=1.
func Inverse2D53Concurrent(ctx context.Context, data []int32, width, height, maxWorkers int) error {
	if maxWorkers <= 1 {
		Inverse2D53(data, width, height)
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	for x0 := 0; x0 < width; x0 += defaultStripRows {
		x0 := x0
		x1 := x0 + defaultStripRows
		if x1 > width {
			x1 = width
		}
		g.Go(func() error {
			col := make([]int32, height)
			for x := x0; x < x1; x++ {
				for y := 0; y < height; y++ {
					col[y] = data[y*width+x]
				}
				Inverse53(col, height)
				for y := 0; y < height; y++ {
					data[y*width+x] = col[y]
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	g, _ = errgroup.WithContext(ctx)
	for y0 := 0; y0 < height; y0 += defaultStripRows {
		y0 := y0
		y1 := y0 + defaultStripRows
		if y1 > height {
			y1 = height
		}
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				Inverse53(data[y*width:(y+1)*width], width)
			}
			return nil
		})
	}
	return g.Wait()
}

// Inverse2D97Concurrent is the 9-7 counterpart of Inverse2D53Concurrent.
func Inverse2D97Concurrent(ctx context.Context, data []float64, width, height, maxWorkers int) error {
	if maxWorkers <= 1 {
		Inverse2D97(data, width, height)
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	for x0 := 0; x0 < width; x0 += defaultStripRows {
		x0 := x0
		x1 := x0 + defaultStripRows
		if x1 > width {
			x1 = width
		}
		g.Go(func() error {
			col := make([]float64, height)
			for x := x0; x < x1; x++ {
				for y := 0; y < height; y++ {
					col[y] = data[y*width+x]
				}
				Inverse97(col, height)
				for y := 0; y < height; y++ {
					data[y*width+x] = col[y]
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	g, _ = errgroup.WithContext(ctx)
	for y0 := 0; y0 < height; y0 += defaultStripRows {
		y0 := y0
		y1 := y0 + defaultStripRows
		if y1 > height {
			y1 = height
		}
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				Inverse97(data[y*width:(y+1)*width], width)
			}
			return nil
		})
	}
	return g.Wait()
}

// ReconstructMultiLevel53Concurrent is ReconstructMultiLevel53 with each
// level's 2-D pass dispatched through Inverse2D53Concurrent. Levels
// themselves stay sequential (coarsest to finest): each level reads the
// LL band the previous level just produced, so there is no cross-level
// parallelism to exploit, only within a level's row/column strips.
func ReconstructMultiLevel53Concurrent(ctx context.Context, data []int32, width, height, levels, maxWorkers int) error {
	dims := make([]struct{ w, h int }, levels)
	w, h := width, height
	for level := 0; level < levels; level++ {
		dims[level] = struct{ w, h int }{w, h}
		w = (w + 1) / 2
		h = (h + 1) / 2
	}
	for level := levels - 1; level >= 0; level-- {
		if err := Inverse2D53Concurrent(ctx, data, dims[level].w, dims[level].h, maxWorkers); err != nil {
			return err
		}
	}
	return nil
}

// ReconstructMultiLevel97Concurrent is the 9-7 counterpart of
// ReconstructMultiLevel53Concurrent.
func ReconstructMultiLevel97Concurrent(ctx context.Context, data []float64, width, height, levels, maxWorkers int) error {
	dims := make([]struct{ w, h int }, levels)
	w, h := width, height
	for level := 0; level < levels; level++ {
		dims[level] = struct{ w, h int }{w, h}
		w = (w + 1) / 2
		h = (h + 1) / 2
	}
	for level := levels - 1; level >= 0; level-- {
		if err := Inverse2D97Concurrent(ctx, data, dims[level].w, dims[level].h, maxWorkers); err != nil {
			return err
		}
	}
	return nil
}
