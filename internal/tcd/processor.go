package tcd

import (
	"context"
	"sync"

	"github.com/mrjoshuak/grokj2k/internal/codestream"
	"github.com/mrjoshuak/grokj2k/internal/sched"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TilePartInfo locates one tile-part's packed-packet-header and packet-body
// payload within the codestream, and its declared sequence position
// (TPsot/TNsot), generalizing the teacher's TileDecoder (which only ever
// saw one tile-part, fed to it synchronously start to finish).
type TilePartInfo struct {
	TileIndex     int
	PartIndex     int
	NumParts      int
	StartPos      int64
	Header        *codestream.TilePartHeader
	PacketPayload []byte
}

// PacketCache buffers tile-parts that arrive out of TPsot order (as they
// will when fetch.FetchTiles pulls them concurrently) until the next
// expected part is available, per the serialization rule tile-parts of one
// tile must be processed in order regardless of fetch order.
type PacketCache struct {
	mu       sync.Mutex
	pending  map[int]TilePartInfo
	nextPart int
}

// NewPacketCache returns an empty cache expecting tile-part 0 first.
func NewPacketCache() *PacketCache {
	return &PacketCache{pending: make(map[int]TilePartInfo)}
}

// Offer adds an arrived tile-part and returns every tile-part now ready to
// process in order (possibly more than one, if out-of-order arrivals
// completed a run).
func (c *PacketCache) Offer(tp TilePartInfo) []TilePartInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[tp.PartIndex] = tp
	var ready []TilePartInfo
	for {
		next, ok := c.pending[c.nextPart]
		if !ok {
			break
		}
		ready = append(ready, next)
		delete(c.pending, c.nextPart)
		c.nextPart++
	}
	return ready
}

// TileProcessor generalizes the teacher's TileDecoder with the state a
// concurrent, randomly-fetched, possibly-ROI-windowed decode needs: a
// packet cache for out-of-order tile-part arrival, running counters, and
// the scheduler hooks that dispatch T1/IDWT work.
type TileProcessor struct {
	*TileDecoder
	Cache   *PacketCache
	Region  *codestream.RegionShift // nil if no ROI applies to the active component
	// MaxWorkers bounds the row/column strip concurrency ApplyInverseDWTConcurrent
	// uses within one component; <=1 keeps the single-threaded IDWT loop.
	MaxWorkers int
}

// NewTileProcessor wraps a TileDecoder with concurrency-oriented state.
func NewTileProcessor(header *codestream.Header) *TileProcessor {
	return &TileProcessor{
		TileDecoder: NewTileDecoder(header),
		Cache:       NewPacketCache(),
		MaxWorkers:  1,
	}
}

// ApplyROIShift reverses the encoder's magnitude bit-plane shift for any
// component with a signalled RGN segment, after entropy decode and before
// the inverse DWT — the teacher parses no RGN data at all, so this is new.
func ApplyROIShift(tc *TileComponent, shift codestream.RegionShift) {
	s := uint(shift.ShiftValue)
	if s == 0 {
		return
	}
	for i := range tc.Data {
		tc.Data[i] >>= s
	}
}

// ScheduleT2T1 drives one tile's T2-parse -> T1-decode -> IDWT chain through
// a sched.Scheduler (the node has no composite phase), with per-code-block T1
// concurrency: every code-block of every component is dispatched as its own
// errgroup task, all of which finish before the IDWT phase starts.
func (tp *TileProcessor) ScheduleT2T1(ctx context.Context, s *sched.Scheduler, decodeT2 func(context.Context) error) error {
	node := sched.TileNode{
		TileIndex: tp.Tile().Index,
		ParseT2:   decodeT2,
		DecodeT1: func(ctx context.Context) error {
			return tp.decodeAllCodeBlocks(ctx)
		},
		InverseDWT: func(ctx context.Context) error {
			return tp.inverseDWTAllComponents(ctx)
		},
	}
	err := s.Decode(ctx, []sched.TileNode{node})
	if err != nil {
		tp.Tile().Err = err
	}
	return err
}

func (tp *TileProcessor) decodeAllCodeBlocks(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, tc := range tp.Tile().Components {
		for _, res := range tc.Resolutions {
			for _, band := range res.Bands {
				for _, cb := range band.CodeBlocks {
					cb, bandType := cb, band.Type
					g.Go(func() error {
						select {
						case <-gctx.Done():
							return gctx.Err()
						default:
						}
						return tp.DecodeCodeBlock(cb, bandType)
					})
				}
			}
		}
	}
	if err := g.Wait(); err != nil {
		return errors.Wrapf(err, "tile %d: code-block decode", tp.Tile().Index)
	}
	if tp.Region != nil {
		for _, tc := range tp.Tile().Components {
			if tc.Index == int(tp.Region.ComponentIndex) {
				ApplyROIShift(tc, *tp.Region)
			}
		}
	}
	return nil
}

// inverseDWTAllComponents runs ApplyInverseDWT per component concurrently;
// resolutions within one component still process low-to-high internally
// (ApplyInverseDWT's own loop), matching the dependency ApplyInverseDWT
// already encodes.
func (tp *TileProcessor) inverseDWTAllComponents(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, tc := range tp.Tile().Components {
		tc := tc
		g.Go(func() error {
			return tp.ApplyInverseDWTConcurrent(gctx, tc, tp.MaxWorkers)
		})
	}
	return g.Wait()
}

// DifferentialUpdate re-drives T1/IDWT for only the code-blocks a newer
// quality layer touched, used when a caller asks for progressive refinement
// of an already-decoded tile rather than a full re-decode. codeBlocks is
// the set of blocks whose IncludedInLayers advanced since the last pass.
func (tp *TileProcessor) DifferentialUpdate(ctx context.Context, codeBlocks []*CodeBlock, bandTypes []int) error {
	if len(codeBlocks) != len(bandTypes) {
		return errors.New("tcd: DifferentialUpdate: codeBlocks/bandTypes length mismatch")
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := range codeBlocks {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return tp.DecodeCodeBlock(codeBlocks[i], bandTypes[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, tc := range tp.Tile().Components {
		tp.ApplyInverseDWT(tc)
	}
	return nil
}
