package flatheap

import "unsafe"

// block is a handle to a block's header location. The zero value (nil
// pointer) represents "no block"; the header-field accessors (header, size,
// alloc, prevAlloc, prevMini) return the zero value for it. prev and the
// footer accessors read memory around b and are not safe on nilBlock.
type block struct{ p unsafe.Pointer }

var nilBlock = block{}

func (b block) isNil() bool { return b.p == nil }

func addOffset(p unsafe.Pointer, delta int64) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) + uintptr(delta))
}

func (b block) header() word {
	if b.p == nil {
		return 0
	}
	return *(*word)(b.p)
}

func (b block) setHeader(w word) { *(*word)(b.p) = w }

func (b block) footerPtr() unsafe.Pointer {
	return addOffset(b.p, int64(b.size())-wordSize)
}

func (b block) footer() word { return *(*word)(b.footerPtr()) }

func (b block) setFooter(w word) { *(*word)(b.footerPtr()) = w }

func (b block) size() uint64    { return getSize(b.header()) }
func (b block) alloc() bool     { return getAlloc(b.header()) }
func (b block) prevAlloc() bool { return getPrevAlloc(b.header()) }
func (b block) prevMini() bool  { return getPrevMini(b.header()) }

// next returns the block immediately following b in address order. Calling
// next on the epilogue is meaningless and never done by this package.
func (b block) next() block {
	return block{addOffset(b.p, int64(b.size()))}
}

// prev returns the block immediately preceding b, or nilBlock if b is the
// very first block in the heap. It never reads a footer for a mini
// predecessor. Mini blocks have none, so this relies solely on b's prev-mini bit.
func (b block) prev() block {
	if b.prevMini() {
		return block{addOffset(b.p, -int64(miniBlockSize))}
	}
	prevFooter := *(*word)(addOffset(b.p, -wordSize))
	if getSize(prevFooter) == 0 {
		return nilBlock
	}
	return block{addOffset(b.p, -int64(getSize(prevFooter)))}
}

// payload returns a pointer to the first byte after the header.
func (b block) payload() unsafe.Pointer { return addOffset(b.p, wordSize) }

// blockFromPayload recovers the block handle from a pointer previously
// returned as a payload pointer.
func blockFromPayload(p unsafe.Pointer) block { return block{addOffset(p, -wordSize)} }

// ptrToWord/wordToPtr convert between an address and the raw word used to
// store it inside a free block's link slots. Links are kept as address
// words rather than live unsafe.Pointer values so the arena's backing bytes
// never need to be scanned as holding pointers.
func ptrToWord(p unsafe.Pointer) word { return word(uintptr(p)) }

func wordToPtr(w word) unsafe.Pointer {
	if w == 0 {
		return nil
	}
	return unsafe.Pointer(uintptr(w))
}
