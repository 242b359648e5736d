package flatheap

import "unsafe"

// UnsafeAlloc reserves at least size usable bytes and returns a pointer to
// the payload. It returns (nil, nil) for size 0, and (nil, ErrOutOfMemory)
// if the Host cannot grow the heap far enough to satisfy the request.
func (a *Allocator) UnsafeAlloc(size uint64) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}

	asize := adjustedSize(size)

	b := a.findFit(asize)
	if b.isNil() {
		extendSize := asize
		if cs := uint64(a.chunkSize()); cs > extendSize {
			extendSize = cs
		}
		var err error
		b, err = a.extend(int(extendSize))
		if err != nil {
			return nil, err
		}
	}

	writeSizeAlloc(b, b.size(), true)
	a.unlink(b)
	a.splitBlock(b, asize)

	return b.payload(), nil
}

// UnsafeFree releases the block whose payload pointer is p. It is a no-op
// for a nil pointer. p must have been returned by UnsafeAlloc/UnsafeRealloc/
// UnsafeCalloc on this Allocator and not already freed.
func (a *Allocator) UnsafeFree(p unsafe.Pointer) {
	if p == nil {
		return
	}
	b := blockFromPayload(p)
	size := b.size()
	writeSizeAlloc(b, size, false)

	next := b.next()
	if isEpilogue(next) {
		a.lastAllocPrevAlloc = false
	} else {
		writePrevAlloc(next, false)
	}
	// next's prev-mini bit is unaffected: b's size didn't change.

	a.coalesce(b)
}

// UnsafeRealloc resizes the block at p to newSize bytes, preserving the
// lesser of the old and new sizes of payload content, and returns a pointer
// to the (possibly relocated) block. UnsafeRealloc(nil, n) behaves like
// UnsafeAlloc(n); UnsafeRealloc(p, 0) behaves like UnsafeFree(p) and returns
// nil.
func (a *Allocator) UnsafeRealloc(p unsafe.Pointer, newSize uint64) (unsafe.Pointer, error) {
	if p == nil {
		return a.UnsafeAlloc(newSize)
	}
	if newSize == 0 {
		a.UnsafeFree(p)
		return nil, nil
	}

	oldBlock := blockFromPayload(p)
	oldPayloadSize := oldBlock.size() - wordSize

	np, err := a.UnsafeAlloc(newSize)
	if err != nil {
		return nil, err
	}

	copySize := oldPayloadSize
	if newSize < copySize {
		copySize = newSize
	}
	copyBytes(np, p, copySize)

	a.UnsafeFree(p)
	return np, nil
}

// UnsafeCalloc reserves space for count elements of size bytes each, zeroed,
// and returns a pointer to the payload. It returns ErrOverflow if
// count*size overflows.
func (a *Allocator) UnsafeCalloc(count, size uint64) (unsafe.Pointer, error) {
	if count == 0 || size == 0 {
		return nil, nil
	}
	total := count * size
	if total/count != size {
		return nil, ErrOverflow
	}
	p, err := a.UnsafeAlloc(total)
	if err != nil {
		return nil, err
	}
	zeroBytes(p, total)
	return p, nil
}

func adjustedSize(size uint64) uint64 {
	asize := roundUp(size+wordSize, dsize)
	if asize < miniBlockSize {
		asize = miniBlockSize
	}
	return asize
}

func copyBytes(dst, src unsafe.Pointer, n uint64) {
	if n == 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), int(n))
	s := unsafe.Slice((*byte)(src), int(n))
	copy(d, s)
}

func zeroBytes(p unsafe.Pointer, n uint64) {
	if n == 0 {
		return
	}
	b := unsafe.Slice((*byte)(p), int(n))
	for i := range b {
		b[i] = 0
	}
}

// Alloc is UnsafeAlloc's safe counterpart: it returns a []byte view over
// the payload, length size, capped at the block's actual usable size.
func (a *Allocator) Alloc(size uint64) ([]byte, error) {
	p, err := a.UnsafeAlloc(size)
	if err != nil || p == nil {
		return nil, err
	}
	return a.view(p, size), nil
}

// Free releases a slice previously returned by Alloc/Realloc/Calloc. A nil
// or empty slice is a no-op.
func (a *Allocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	a.UnsafeFree(unsafe.Pointer(&buf[0]))
}

// Realloc is UnsafeRealloc's safe counterpart.
func (a *Allocator) Realloc(buf []byte, newSize uint64) ([]byte, error) {
	var p unsafe.Pointer
	if len(buf) > 0 {
		p = unsafe.Pointer(&buf[0])
	}
	np, err := a.UnsafeRealloc(p, newSize)
	if err != nil || np == nil {
		return nil, err
	}
	return a.view(np, newSize), nil
}

// Calloc is UnsafeCalloc's safe counterpart.
func (a *Allocator) Calloc(count, size uint64) ([]byte, error) {
	p, err := a.UnsafeCalloc(count, size)
	if err != nil || p == nil {
		return nil, err
	}
	return a.view(p, count*size), nil
}

func (a *Allocator) view(p unsafe.Pointer, size uint64) []byte {
	full := int(blockFromPayload(p).size() - wordSize)
	return unsafe.Slice((*byte)(p), full)[:size:full]
}
