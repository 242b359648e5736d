package flatheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T, opts ...AllocatorOption) *Allocator {
	t.Helper()
	arena := NewArena(1 << 20)
	a, err := NewAllocator(arena, opts...)
	require.NoError(t, err)
	require.NoError(t, a.CheckHeap(0))
	return a
}

func TestInitHeapConsistent(t *testing.T) {
	a := newTestAllocator(t)
	assert.NoError(t, a.CheckHeap(0))
}

func TestAllocBasic(t *testing.T) {
	a := newTestAllocator(t)

	buf, err := a.Alloc(24)
	require.NoError(t, err)
	assert.Len(t, buf, 24)
	assert.NoError(t, a.CheckHeap(0))

	for i := range buf {
		buf[i] = byte(i)
	}
	for i := range buf {
		assert.Equal(t, byte(i), buf[i])
	}
}

func TestAllocZeroIsNoop(t *testing.T) {
	a := newTestAllocator(t)
	buf, err := a.Alloc(0)
	assert.NoError(t, err)
	assert.Nil(t, buf)
}

func TestAllocMiniBlock(t *testing.T) {
	a := newTestAllocator(t)

	// A 1-byte request rounds up to exactly the 16-byte mini block.
	buf, err := a.Alloc(1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(buf), 1)
	b := blockFromPayload(ptrOf(buf))
	assert.Equal(t, uint64(miniBlockSize), b.size())
	assert.NoError(t, a.CheckHeap(0))
}

func TestFreeThenReallocSameSpace(t *testing.T) {
	a := newTestAllocator(t)

	buf, err := a.Alloc(64)
	require.NoError(t, err)
	a.Free(buf)
	require.NoError(t, a.CheckHeap(0))

	again, err := a.Alloc(64)
	require.NoError(t, err)
	require.NoError(t, a.CheckHeap(0))
	assert.Len(t, again, 64)
	assert.Equal(t, ptrOf(buf), ptrOf(again))
}

func TestCoalesceAdjacentFreedBlocks(t *testing.T) {
	a := newTestAllocator(t)

	b1, err := a.Alloc(64)
	require.NoError(t, err)
	b2, err := a.Alloc(64)
	require.NoError(t, err)
	b3, err := a.Alloc(64)
	require.NoError(t, err)

	a.Free(b1)
	a.Free(b3)
	require.NoError(t, a.CheckHeap(0))

	// Freeing the middle block should coalesce with both neighbors.
	a.Free(b2)
	require.NoError(t, a.CheckHeap(0))

	big, err := a.Alloc(64*3 + 16*2)
	require.NoError(t, err)
	assert.NotNil(t, big)
	assert.NoError(t, a.CheckHeap(0))
}

func TestReallocGrowPreservesContent(t *testing.T) {
	a := newTestAllocator(t)

	buf, err := a.Alloc(32)
	require.NoError(t, err)
	for i := range buf {
		buf[i] = byte(i + 1)
	}

	grown, err := a.Realloc(buf, 256)
	require.NoError(t, err)
	require.Len(t, grown, 256)
	for i := 0; i < 32; i++ {
		assert.Equal(t, byte(i+1), grown[i])
	}
	assert.NoError(t, a.CheckHeap(0))
}

func TestReallocShrink(t *testing.T) {
	a := newTestAllocator(t)

	buf, err := a.Alloc(256)
	require.NoError(t, err)
	for i := range buf {
		buf[i] = byte(i)
	}

	shrunk, err := a.Realloc(buf, 16)
	require.NoError(t, err)
	require.Len(t, shrunk, 16)
	for i := 0; i < 16; i++ {
		assert.Equal(t, byte(i), shrunk[i])
	}
	assert.NoError(t, a.CheckHeap(0))
}

func TestReallocToZeroFrees(t *testing.T) {
	a := newTestAllocator(t)
	buf, err := a.Alloc(32)
	require.NoError(t, err)

	out, err := a.Realloc(buf, 0)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.NoError(t, a.CheckHeap(0))
}

func TestReallocNilActsAsAlloc(t *testing.T) {
	a := newTestAllocator(t)
	out, err := a.Realloc(nil, 40)
	require.NoError(t, err)
	assert.Len(t, out, 40)
}

func TestCallocZeroesAndDetectsOverflow(t *testing.T) {
	a := newTestAllocator(t)

	buf, err := a.Calloc(8, 32)
	require.NoError(t, err)
	assert.Len(t, buf, 256)
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}

	_, err = a.Calloc(1<<63, 1<<63)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestAllocSatisfiesOversizedRequestByExtending(t *testing.T) {
	a := newTestAllocator(t, WithChunkSize(64))

	buf, err := a.Alloc(8192)
	require.NoError(t, err)
	assert.Len(t, buf, 8192)
	assert.NoError(t, a.CheckHeap(0))
}

func TestAllocOutOfMemory(t *testing.T) {
	arena := NewArena(256)
	a, err := NewAllocator(arena, WithChunkSize(64))
	require.NoError(t, err)

	_, err = a.Alloc(1 << 20)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestBucketForBoundaries(t *testing.T) {
	tests := []struct {
		size uint64
		want int
	}{
		{16, 0}, {17, 1}, {32, 1}, {33, 2},
		{64, 2}, {96, 3}, {128, 4}, {256, 5},
		{512, 6}, {1024, 7}, {2048, 8}, {3072, 9},
		{4096, 10}, {5120, 11}, {6144, 12}, {6145, 13},
		{1 << 20, 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bucketFor(tt.size), "size=%d", tt.size)
	}
}

func TestBestFitLookaheadPrefersSmallerSurplus(t *testing.T) {
	a := newTestAllocator(t)

	// Build several free blocks of increasing size in the same bucket so a
	// later, smaller-surplus fit is found within the lookahead window. An
	// allocated mini block after each keeps them from coalescing, and LIFO
	// linking puts the largest at the bucket head and the smallest last.
	var bufs [][]byte
	sizes := []uint64{300, 350, 400, 450, 500}
	for _, s := range sizes {
		b, err := a.Alloc(s)
		require.NoError(t, err)
		bufs = append(bufs, b)
		_, err = a.Alloc(1)
		require.NoError(t, err)
	}
	for _, b := range bufs {
		a.Free(b)
	}
	require.NoError(t, a.CheckHeap(0))

	fit, err := a.Alloc(240)
	require.NoError(t, err)
	assert.NoError(t, a.CheckHeap(0))
	assert.NotNil(t, fit)
	assert.Equal(t, ptrOf(bufs[0]), ptrOf(fit))
}
