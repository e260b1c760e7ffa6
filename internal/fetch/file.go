package fetch

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// defaultReadAhead mirrors spec.md 4.A's buffered read-ahead window: a single
// sequential-access optimization, invalidated whenever a Seek lands outside
// the currently buffered window.
const defaultReadAhead = 256 * 1024

// FileSource wraps an *os.File with a read-ahead buffer, grounded in the
// windowed-read idiom of the COG reader (internal/cog-reader.go's strip/tile
// cache): keep a single contiguous window resident, refill it on a cache
// miss instead of re-reading the whole file on every small marker read.
type FileSource struct {
	mu         sync.Mutex
	f          *os.File
	size       int64
	pos        int64
	winStart   int64
	winBuf     []byte
	readAhead  int
}

// NewFileSource opens path for random-access reads.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "fetch: open file source")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "fetch: stat file source")
	}
	return &FileSource{
		f:         f,
		size:      info.Size(),
		readAhead: defaultReadAhead,
	}, nil
}

func (fs *FileSource) fillWindow(at int64) error {
	if at >= fs.winStart && at < fs.winStart+int64(len(fs.winBuf)) {
		return nil
	}
	n := fs.readAhead
	if rem := fs.size - at; rem < int64(n) {
		n = int(rem)
	}
	if n <= 0 {
		return ErrOutOfRange
	}
	buf := make([]byte, n)
	read, err := fs.f.ReadAt(buf, at)
	if err != nil && read == 0 {
		return errors.Wrap(err, "fetch: file window refill")
	}
	fs.winStart = at
	fs.winBuf = buf[:read]
	return nil
}

func (fs *FileSource) ReadAt(dst []byte, off int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if off < 0 || off >= fs.size {
		return 0, ErrOutOfRange
	}
	return fs.f.ReadAt(dst, off)
}

func (fs *FileSource) Read(dst []byte) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.pos >= fs.size {
		return 0, ErrOutOfRange
	}
	if err := fs.fillWindow(fs.pos); err != nil {
		return 0, err
	}
	off := fs.pos - fs.winStart
	n := copy(dst, fs.winBuf[off:])
	fs.pos += int64(n)
	return n, nil
}

func (fs *FileSource) ReadZeroCopy(n int) ([]byte, error) {
	// A real file can't be sliced without a copy; satisfy the Source
	// contract with an honest allocation.
	out := make([]byte, n)
	read, err := fs.Read(out)
	if err != nil {
		return nil, err
	}
	return out[:read], nil
}

func (fs *FileSource) Seek(offset int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if offset < 0 || offset > fs.size {
		return ErrOutOfRange
	}
	fs.pos = offset
	return nil
}

func (fs *FileSource) Tell() int64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.pos
}

func (fs *FileSource) Skip(n int64) error {
	return fs.Seek(fs.Tell() + n)
}

func (fs *FileSource) NumBytesLeft() int64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.size - fs.pos
}

// MemAdvise is a no-op on FileSource; a descendant backed by mmap could wire
// this to madvise, but the plain os.File path has no mapping to advise.
func (fs *FileSource) MemAdvise(offset, length int64, advice MemAdvice) {}

func (fs *FileSource) FetchChunks(ctx context.Context, ranges []Range) ([]ChunkResult, error) {
	out := make([]ChunkResult, len(ranges))
	for i, r := range ranges {
		select {
		case <-ctx.Done():
			out[i] = ChunkResult{Range: r, Err: ctx.Err()}
			continue
		default:
		}
		buf := make([]byte, r.Length)
		n, err := fs.f.ReadAt(buf, r.Offset)
		if err != nil && int64(n) != r.Length {
			out[i] = ChunkResult{Range: r, Err: errors.Wrap(err, "fetch: chunk read")}
			continue
		}
		out[i] = ChunkResult{Range: r, Data: buf[:n]}
	}
	return out, nil
}

func (fs *FileSource) Close() error {
	return fs.f.Close()
}
