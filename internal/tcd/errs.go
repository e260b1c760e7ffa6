package tcd

import "github.com/pkg/errors"

// ErrOutOfOrderTilePart mirrors codestream.ErrOutOfOrderTilePart at the tile
// level: a tile-part arrived whose TPsot the PacketCache cannot yet place
// because an earlier part is still missing past a deadline the caller set.
var ErrOutOfOrderTilePart = errors.New("tcd: tile-part delivery exceeded reorder window")
