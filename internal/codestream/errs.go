package codestream

import "github.com/pkg/errors"

// Sentinel errors for codestream parsing, wrapped with errors.Wrapf at the
// detection site so callers can errors.Is against a stable cause while still
// getting a located message.
var (
	ErrMissingMarker         = errors.New("codestream: required marker missing")
	ErrUnexpectedMarker      = errors.New("codestream: unexpected marker")
	ErrZeroLengthSegment     = errors.New("codestream: zero-length marker segment")
	ErrFieldOutOfRange       = errors.New("codestream: field value out of range")
	ErrOutOfOrderTilePart    = errors.New("codestream: tile-part received out of order")
	ErrCorruptTLM            = errors.New("codestream: TLM lengths not strictly increasing")
	ErrPacketSequenceMismatch = errors.New("codestream: packet sequence number mismatch")
	ErrTruncated             = errors.New("codestream: codestream truncated")
	ErrUnsupportedCapability = errors.New("codestream: unsupported capability signalled")
)
