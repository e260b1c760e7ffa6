// Package fetch implements the random-access byte sources spec.md §4.A
// describes: local file, in-memory buffer, and remote object stores reached
// through concurrent HTTP range GETs.
package fetch

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// MemAdvice mirrors the madvise hints spec.md's MemAdvise operation forwards
// to the OS when the backing store is a real mmap.
type MemAdvice int

const (
	AdviceNormal MemAdvice = iota
	AdviceSequential
	AdviceRandom
	AdviceWillNeed
	AdviceDontNeed
)

// Range is a byte-offset, length pair used for chunked concurrent fetches.
type Range struct {
	Offset int64
	Length int64
}

// ChunkResult is the outcome of one Range within a FetchChunks batch.
type ChunkResult struct {
	Range Range
	Data  []byte
	Err   error
}

// Source is a random-access byte source: local file, in-memory buffer, or
// remote object accessed via ranged reads. It generalizes the teacher's bare
// io.Reader assumption (internal/codestream.Parser previously read straight
// off an io.Reader with no seek, no offset tracking) into the abstraction
// spec.md 4.A requires so the Marker Cache can record absolute offsets and
// the Tile Processor can re-seek for random access.
type Source interface {
	io.ReaderAt

	// Read reads up to len(dst) bytes starting at the current position and
	// advances it, like io.Reader.
	Read(dst []byte) (int, error)

	// ReadZeroCopy returns a slice referencing the source's own backing
	// buffer starting at the current position, when the backing store is
	// memory (no copy). Sources that cannot avoid a copy (file, HTTP) return
	// a freshly allocated slice; callers must not assume aliasing either way.
	ReadZeroCopy(n int) ([]byte, error)

	Seek(offset int64) error
	Tell() int64
	Skip(n int64) error
	NumBytesLeft() int64

	// MemAdvise hints the OS about an access pattern over [offset, offset+len).
	// A no-op for sources with no mmap to advise.
	MemAdvise(offset, length int64, advice MemAdvice)

	// FetchChunks pulls a set of byte ranges, concurrently where the source
	// supports it (HTTP/S3); local/memory sources resolve synchronously.
	FetchChunks(ctx context.Context, ranges []Range) ([]ChunkResult, error)

	Close() error
}

// Sink is the write-path counterpart named in spec.md 4.A ("Write path is
// symmetric (compression, not specified further)"). The core decompression
// pipeline never uses it; it exists only so Source/Sink stay symmetric for
// the out-of-scope compression path, per spec.md §1.
type Sink interface {
	io.Writer
	Seek(offset int64) error
	Tell() int64
	Close() error
}

var (
	// ErrOutOfRange is returned by Seek/ReadAt when the requested position
	// or range falls outside the source's bounds.
	ErrOutOfRange = errors.New("fetch: offset out of range")
	// ErrClosed is returned by any operation on a closed Source.
	ErrClosed = errors.New("fetch: source is closed")
)
