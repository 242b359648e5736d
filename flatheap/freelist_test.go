package flatheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkUnlinkNormalBucketIsIdempotent(t *testing.T) {
	a := newTestAllocator(t)

	buf1, err := a.Alloc(200)
	require.NoError(t, err)
	buf2, err := a.Alloc(200)
	require.NoError(t, err)

	b1 := blockFromPayload(ptrOf(buf1))
	b2 := blockFromPayload(ptrOf(buf2))

	a.link(b1)
	a.link(b2)
	idx := bucketFor(b1.size())
	assert.Equal(t, b2.p, a.buckets[idx].p)

	a.unlink(b1)
	a.unlink(b2)
	assert.True(t, a.buckets[idx].isNil())

	// Unlinking an already-detached block must not panic or corrupt state.
	a.unlink(b1)
	a.unlink(b2)
	assert.True(t, a.buckets[idx].isNil())
}

func TestLinkUnlinkMiniBucket(t *testing.T) {
	a := newTestAllocator(t)

	buf1, err := a.Alloc(1)
	require.NoError(t, err)
	buf2, err := a.Alloc(1)
	require.NoError(t, err)

	b1 := blockFromPayload(ptrOf(buf1))
	b2 := blockFromPayload(ptrOf(buf2))
	require.Equal(t, uint64(miniBlockSize), b1.size())

	a.link(b1)
	a.link(b2)
	assert.Equal(t, b2.p, a.buckets[0].p)

	a.unlink(b2)
	assert.Equal(t, b1.p, a.buckets[0].p)

	a.unlink(b1)
	assert.True(t, a.buckets[0].isNil())
}
