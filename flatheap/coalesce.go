package flatheap

// stampPrev updates the prev-alloc/prev-mini bits that next's header should
// carry given a left-neighbor transition, routing the update to the right
// place: a real block gets its header bits rewritten, while the epilogue,
// whose header bits are a frozen sentinel never read back, instead
// updates lastAllocPrevAlloc/lastAllocPrevMini, the side-channel cache that stands in for
// "the epilogue's prev-state" (see DESIGN.md).
func (a *Allocator) stampPrev(next block, prevAlloc, prevMini bool) {
	if isEpilogue(next) {
		a.lastAllocPrevAlloc = prevAlloc
		a.lastAllocPrevMini = prevMini
		return
	}
	writePrevAlloc(next, prevAlloc)
	writePrevMini(next, prevMini)
}

// coalesce merges a just-freed block b with whichever of its immediate
// neighbors are also free, links the resulting block into its free list,
// and returns it. b itself must not already be linked into any free list.
func (a *Allocator) coalesce(b block) block {
	next := b.next()
	leftFree := !b.prevAlloc()
	rightFree := !isEpilogue(next) && !next.alloc()

	switch {
	case !leftFree && !rightFree:
		a.link(b)
		return b
	case !leftFree && rightFree:
		return a.mergeRight(b, next)
	case leftFree && !rightFree:
		return a.mergeLeft(b, next)
	default:
		return a.mergeBoth(b, next)
	}
}

func (a *Allocator) mergeRight(b, next block) block {
	after := next.next()
	nextSize := next.size()
	a.unlink(next)
	eraseBlock(next)

	writeSizeAlloc(b, b.size()+nextSize, false)
	a.stampPrev(after, false, false)
	a.link(b)
	return b
}

func (a *Allocator) mergeLeft(b, next block) block {
	left := b.prev()
	bSize := b.size()
	a.unlink(left)
	eraseBlock(b)

	writeSizeAlloc(left, left.size()+bSize, false)
	a.stampPrev(next, false, false)
	a.link(left)
	return left
}

func (a *Allocator) mergeBoth(b, next block) block {
	left := b.prev()
	after := next.next()
	bSize, nextSize := b.size(), next.size()
	a.unlink(left)
	a.unlink(next)
	eraseBlock(b)
	eraseBlock(next)

	writeSizeAlloc(left, left.size()+bSize+nextSize, false)
	a.stampPrev(after, false, false)
	a.link(left)
	return left
}

func eraseBlock(b block) {
	if b.size() >= minNormalBlockSize {
		b.setFooter(0)
	}
	b.setHeader(0)
}
