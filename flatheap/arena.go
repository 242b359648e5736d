package flatheap

import (
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// Host is the external memory primitive the allocator grows on: a flat,
// monotonically-growing byte region plus its current high-water mark. This
// is the sbrk-like "external collaborator" the block manager is defined
// against; it never shrinks and never relocates what it has already handed
// out.
type Host interface {
	// Extend grows the region by n bytes and returns a pointer to the first
	// of the newly added bytes. The new bytes are uninitialized. Extend
	// returns ErrOutOfMemory if the host cannot grow by n bytes, leaving the
	// region unchanged.
	Extend(n int) (unsafe.Pointer, error)
}

// Arena is the default Host: a single, fixed-capacity byte slice reserved up
// front and grown in place by bumping a high-water mark, so addresses handed
// out by Extend stay valid for the Arena's lifetime. This is the same
// reserve-once-bump-a-mark trick a page-backed allocator uses to avoid ever
// relocating live pages, without the unmap/page-release machinery this
// allocator leaves out of scope.
type Arena struct {
	buf []byte
	hi  int
}

// NewArena reserves capacity bytes of backing storage. Extend never grows
// the arena past this reservation; capacity should be sized generously, the
// same way a real address space reservation is.
func NewArena(capacity int) *Arena {
	if capacity <= 0 {
		capacity = int(DefaultChunkSize)
	}
	return &Arena{buf: dirtmake.Bytes(capacity, capacity)}
}

// Extend implements Host.
func (a *Arena) Extend(n int) (unsafe.Pointer, error) {
	if n < 0 || a.hi+n > len(a.buf) {
		return nil, ErrOutOfMemory
	}
	p := addOffset(unsafe.Pointer(&a.buf[0]), int64(a.hi))
	a.hi += n
	return p, nil
}

// Len reports how many bytes of the arena's reservation are in use.
func (a *Arena) Len() int { return a.hi }

// Cap reports the arena's total reservation.
func (a *Arena) Cap() int { return len(a.buf) }
