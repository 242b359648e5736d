package flatheap

// DefaultChunkSize is the default heap-extension granularity: an Alloc that
// finds no fit extends by at least this many bytes, even when the request
// itself is much smaller.
const DefaultChunkSize = 4096

// AllocatorOption configures an Allocator at construction time, the same
// functional-option shape concurrency/gopool uses for its worker pools.
type AllocatorOption func(*Allocator)

// WithChunkSize overrides DefaultChunkSize.
func WithChunkSize(n int) AllocatorOption {
	return func(a *Allocator) { a.ChunkSize = n }
}

// WithBestFitLookahead overrides defaultBestFitLookahead.
func WithBestFitLookahead(n int) AllocatorOption {
	return func(a *Allocator) { a.BestFitLookahead = n }
}

// Allocator is the block manager: malloc/free/realloc/calloc over a flat
// region grown through a Host. Its zero value is not ready for use; build
// one with NewAllocator.
type Allocator struct {
	host    Host
	origin  block
	buckets [numBuckets]block

	// lastAllocPrevAlloc/lastAllocPrevMini cache the prev-alloc/prev-mini
	// bits that belong, conceptually, to the heap's epilogue sentinel. The
	// epilogue's own header bits are frozen at creation time and never read
	// back (see DESIGN.md); this cache is the actual source of truth,
	// updated by every operation that changes whether the heap's current
	// last block is allocated or a mini block.
	lastAllocPrevAlloc bool
	lastAllocPrevMini  bool

	// ChunkSize is the heap-extension granularity (see DefaultChunkSize).
	ChunkSize int

	// BestFitLookahead bounds how many further candidates findFit inspects
	// past the first fit in a bucket, looking for a smaller surplus.
	BestFitLookahead int
}

// NewAllocator builds an Allocator over host and performs the initial
// prologue/epilogue/first-chunk setup.
func NewAllocator(host Host, opts ...AllocatorOption) (*Allocator, error) {
	a := &Allocator{
		host:             host,
		ChunkSize:        DefaultChunkSize,
		BestFitLookahead: defaultBestFitLookahead,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Allocator) chunkSize() int {
	if a.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return a.ChunkSize
}

// init lays down the prologue sentinel and the first real chunk. The
// prologue counts as allocated (so the heap's first block never tries to
// coalesce left), which init seeds directly into the lastAlloc cache before
// the first extend ever runs.
func (a *Allocator) init() error {
	for i := range a.buckets {
		a.buckets[i] = nilBlock
	}
	a.lastAllocPrevAlloc = true
	a.lastAllocPrevMini = false

	// Reserve the prologue word plus one throwaway word: the first real
	// extend below computes its new block's header as "start of new
	// region minus one word", so this throwaway word is exactly where
	// that header lands.
	p, err := a.host.Extend(2 * wordSize)
	if err != nil {
		return err
	}
	*(*word)(p) = pack(0, true) // prologue: zero-size, allocated sentinel

	first, err := a.extend(a.chunkSize())
	if err != nil {
		return err
	}
	a.origin = first
	return nil
}

// extend grows the heap by at least n bytes (rounded up to a dsize
// multiple), lays down a fresh free block and a new epilogue sentinel after
// it, coalesces the new block with a free left neighbor if there is one,
// and returns the resulting block.
func (a *Allocator) extend(n int) (block, error) {
	size := roundUp(uint64(n), dsize)
	regionStart, err := a.host.Extend(int(size))
	if err != nil {
		return nilBlock, err
	}

	newBlock := block{addOffset(regionStart, -wordSize)}
	writeFull(newBlock, size, false)
	writePrevAlloc(newBlock, a.lastAllocPrevAlloc)
	writePrevMini(newBlock, a.lastAllocPrevMini)

	epilogue := newBlock.next()
	epilogue.setHeader(pack(0, true))

	merged := a.coalesce(newBlock)

	a.lastAllocPrevAlloc = false
	a.lastAllocPrevMini = merged.size() == miniBlockSize
	return merged, nil
}

func roundUp(n, multiple uint64) uint64 {
	return multiple * ((n + multiple - 1) / multiple)
}
