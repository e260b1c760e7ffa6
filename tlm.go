package jpeg2000

import (
	"context"
	"fmt"
	"image"

	"github.com/mrjoshuak/grokj2k/internal/codestream"
	"github.com/mrjoshuak/grokj2k/internal/fetch"
	"github.com/mrjoshuak/grokj2k/internal/grkruntime"
	"github.com/mrjoshuak/grokj2k/internal/sched"
	"github.com/mrjoshuak/grokj2k/internal/tcd"
)

// ErrTLMUnavailable is returned by DecompressPrepareWithTLM when the
// codestream carries no TLM marker, or its TLM table failed validation
// (Header.TLMValid false, set when a later entry's tile index regressed
// relative to an earlier one). Callers should fall back to Decode, which
// discovers tile-part boundaries by scanning SOT markers sequentially.
var ErrTLMUnavailable = fmt.Errorf("jpeg2000: codestream has no usable TLM table")

// DecompressPrepareWithTLM decodes a single tile, identified by its 0-based
// tile index, by consulting the codestream's TLM (tile-part length) table
// to compute that tile's tile-part byte offsets directly and reading only
// those bytes from src — the random-access path that lets a caller fetch
// one interior tile of a large image without scanning every SOT marker
// that precedes it.
//
// src must be a raw J2K codestream (an SOC marker at offset 0), not a
// JP2-wrapped file: JP2's box structure already requires buffering the
// whole jp2c box into memory to locate it (box.Reader has no seek-past
// mode), which defeats the point of a byte-range-only tile fetch.
//
// The returned image is anchored at the tile's own origin (0,0), not the
// image's: composing it into a full-image canvas is the caller's job, the
// same division of labor spec.md's fetch.FetchTiles/TilePartLocator
// already assumes for per-tile byte ranges.
func DecompressPrepareWithTLM(ctx context.Context, src fetch.Source, tileIndex int) (image.Image, error) {
	if err := src.Seek(0); err != nil {
		return nil, fmt.Errorf("jpeg2000: seeking to codestream start: %w", err)
	}

	parser := codestream.NewParser(src)
	header, err := parser.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("jpeg2000: reading header: %w", err)
	}
	if !header.TLMValid || len(header.TileLengths) == 0 {
		return nil, ErrTLMUnavailable
	}

	numTiles := int(header.NumTilesX * header.NumTilesY)
	if tileIndex < 0 || tileIndex >= numTiles {
		return nil, fmt.Errorf("jpeg2000: tile index %d out of range [0,%d)", tileIndex, numTiles)
	}

	locs, err := tlmTilePartLocations(parser, header, tileIndex)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var packetLengths []uint32
	for i, loc := range locs {
		if err := parser.SeekTilePart(loc.offset); err != nil {
			return nil, fmt.Errorf("jpeg2000: seeking to tile %d tile-part %d: %w", tileIndex, i, err)
		}
		tph, err := parser.ReadNextTilePart()
		if err != nil {
			return nil, fmt.Errorf("jpeg2000: reading tile %d tile-part %d header: %w", tileIndex, i, err)
		}
		if int(tph.TileIndex) != tileIndex {
			return nil, fmt.Errorf("jpeg2000: TLM offset for tile %d landed on tile-part for tile %d instead", tileIndex, tph.TileIndex)
		}
		data, err := parser.ReadTilePartData(tph)
		if err != nil {
			return nil, fmt.Errorf("jpeg2000: reading tile %d tile-part %d data: %w", tileIndex, i, err)
		}
		payload = append(payload, data...)
		packetLengths = append(packetLengths, tph.PacketLengths...)
	}

	rt := grkruntime.Default()
	tp := tcd.NewTileProcessor(header)
	tp.MaxWorkers = rt.NumThreads
	tp.InitTile(tileIndex)

	scheduler := &sched.Scheduler{MaxWorkers: rt.NumThreads}
	err = tp.ScheduleT2T1(ctx, scheduler, func(ctx context.Context) error {
		return tp.DecodeAllPacketsWithLengths(payload, packetLengths)
	})
	if err != nil {
		return nil, fmt.Errorf("jpeg2000: decoding tile %d: %w", tileIndex, err)
	}

	return tileImage(header, tp.Tile())
}

// tlmTilePartLocation is one tile-part's absolute byte offset and declared
// total length (SOT marker through the end of its packet data), derived
// from Header.TileLengths's cumulative ordering.
type tlmTilePartLocation struct {
	offset int64
	length uint32
}

// tlmTilePartLocations walks Header.TileLengths in marker order, accumulating
// the absolute byte offset of each tile-part, and returns the ones belonging
// to tileIndex. parser must have just finished ReadHeader: its position,
// minus the 2-byte SOT marker code ReadHeader already consumed to recognize
// the main header's end, is where TLM's cumulative lengths start counting
// from.
func tlmTilePartLocations(parser *codestream.Parser, header *codestream.Header, tileIndex int) ([]tlmTilePartLocation, error) {
	offset := parser.Pos() - 2
	var wanted []tlmTilePartLocation
	for _, tl := range header.TileLengths {
		if int(tl.TileIndex) == tileIndex {
			wanted = append(wanted, tlmTilePartLocation{offset: offset, length: tl.Length})
		}
		offset += int64(tl.Length)
	}
	if len(wanted) == 0 {
		return nil, fmt.Errorf("jpeg2000: TLM table has no tile-part for tile %d", tileIndex)
	}
	return wanted, nil
}

// tileImage assembles one already-decoded tile's per-component coefficient
// buffers into an image.Image anchored at the tile's own origin, the same
// component-count dispatch decoder.createImage uses for the full image.
func tileImage(header *codestream.Header, tile *tcd.Tile) (image.Image, error) {
	if tile == nil || tile.Err != nil {
		if tile != nil {
			return nil, tile.Err
		}
		return nil, fmt.Errorf("jpeg2000: tile not decoded")
	}
	if len(header.ComponentInfo) == 0 {
		return nil, fmt.Errorf("jpeg2000: no component info")
	}
	width := tile.X1 - tile.X0
	height := tile.Y1 - tile.Y0
	precision := header.ComponentInfo[0].Precision()
	signed := header.ComponentInfo[0].IsSigned()

	componentData := make([][]int32, len(tile.Components))
	for c, tc := range tile.Components {
		componentData[c] = tc.Data
	}

	d := &decoder{}
	return d.createImage(componentData, width, height, len(tile.Components), precision, signed)
}
