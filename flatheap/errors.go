package flatheap

import "errors"

var (
	// ErrOutOfMemory is returned when the Host refuses to extend the heap.
	ErrOutOfMemory = errors.New("flatheap: host refused to extend the heap")

	// ErrOverflow is returned by Calloc when count*size overflows uint64.
	ErrOverflow = errors.New("flatheap: calloc count*size overflows")

	// ErrInvalidSize is returned for a negative or otherwise unusable size.
	ErrInvalidSize = errors.New("flatheap: invalid size")

	// ErrCorrupt is returned by CheckHeap when a structural invariant fails.
	ErrCorrupt = errors.New("flatheap: heap failed consistency check")
)
