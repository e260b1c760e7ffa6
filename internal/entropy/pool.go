package entropy

import (
	"math/bits"
	"sync"
)

// CoderPool pools *T1 decoders/encoders keyed by (log2 width, log2 height)
// rather than through the single shared pool GetT1/PutT1 use. Code-block
// sizes in a real image are drawn from a handful of power-of-two values
// (COD's CodeBlockWidthExp/HeightExp is per-tile, not per-block), so a T1
// taken from a bucket already has buffers of the right size class. Get still
// resizes every checkout to the exact (width, height), but that resize rarely
// has to grow the buffers, unlike checkouts from the single generic
// t1EncoderPool when code-block sizes vary within one image (e.g. COC
// overrides on some components).
type CoderPool struct {
	mu    sync.Mutex
	pools map[[2]int]*sync.Pool
}

// NewCoderPool returns an empty, ready-to-use pool.
func NewCoderPool() *CoderPool {
	return &CoderPool{pools: make(map[[2]int]*sync.Pool)}
}

func log2Key(width, height int) [2]int {
	return [2]int{bits.Len(uint(width - 1)), bits.Len(uint(height - 1))}
}

func (c *CoderPool) poolFor(width, height int) *sync.Pool {
	key := log2Key(width, height)
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pools[key]
	if !ok {
		w, h := width, height
		p = &sync.Pool{New: func() interface{} { return NewT1(w, h) }}
		c.pools[key] = p
	}
	return p
}

// Get returns a T1 sized exactly (width, height), either freshly allocated
// or reused from the bucket matching this size class.
func (c *CoderPool) Get(width, height int) *T1 {
	t := c.poolFor(width, height).Get().(*T1)
	t.resize(width, height)
	return t
}

// Put returns t to the bucket matching its current size.
func (c *CoderPool) Put(t *T1) {
	c.poolFor(t.width, t.height).Put(t)
}
