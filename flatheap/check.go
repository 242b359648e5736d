package flatheap

import "fmt"

// CheckHeap walks the whole heap and every one of the 14 segregated free
// lists, verifying the structural invariants the allocator depends on. It
// returns a descriptive error wrapping ErrCorrupt on the first violation
// found, or nil if the heap is consistent. lineHint is folded into the
// error message to help pin down which call site triggered the check;
// callers typically pass a source line number.
//
// Every one of the 14 buckets is scanned, not just a handful of them.
func (a *Allocator) CheckHeap(lineHint int) error {
	return a.checkBlockChain(lineHint)
}

// checkBlockChain walks every block in address order from the heap's first
// real block to the epilogue, checking per-block invariants and the
// running count of free blocks against what the free lists report.
func (a *Allocator) checkBlockChain(lineHint int) error {
	var (
		prev         = nilBlock
		freeCount    int
		prevWasAlloc = true // the prologue counts as allocated
		prevWasMini  = false
	)

	for cur := a.origin; ; cur = cur.next() {
		if isEpilogue(cur) {
			if a.lastAllocPrevAlloc != prevWasAlloc {
				return a.corrupt(lineHint, "epilogue prev-alloc cache out of sync: cached %v, actual predecessor alloc %v", a.lastAllocPrevAlloc, prevWasAlloc)
			}
			if a.lastAllocPrevMini != prevWasMini {
				return a.corrupt(lineHint, "epilogue prev-mini cache out of sync: cached %v, actual predecessor mini %v", a.lastAllocPrevMini, prevWasMini)
			}
			break
		}

		size := cur.size()
		if size == 0 {
			return a.corrupt(lineHint, "block at %p has zero size but isn't the epilogue", cur.p)
		}
		if size%dsize != 0 {
			return a.corrupt(lineHint, "block at %p has size %d, not a multiple of %d", cur.p, size, dsize)
		}
		if size < miniBlockSize {
			return a.corrupt(lineHint, "block at %p has size %d, smaller than the minimum %d", cur.p, size, miniBlockSize)
		}

		if cur.prevAlloc() != prevWasAlloc {
			return a.corrupt(lineHint, "block at %p has prev-alloc=%v but predecessor alloc is %v", cur.p, cur.prevAlloc(), prevWasAlloc)
		}
		if cur.prevMini() != prevWasMini {
			return a.corrupt(lineHint, "block at %p has prev-mini=%v but predecessor size is %d", cur.p, cur.prevMini(), func() uint64 {
				if prev.isNil() {
					return 0
				}
				return prev.size()
			}())
		}

		if !cur.alloc() {
			if size >= minNormalBlockSize && cur.header() != cur.footer() {
				return a.corrupt(lineHint, "free block at %p has header/footer mismatch", cur.p)
			}
			if !prevWasAlloc && !prev.isNil() {
				return a.corrupt(lineHint, "two adjacent free blocks at %p and %p were not coalesced", prev.p, cur.p)
			}
			freeCount++
		}

		prev = cur
		prevWasAlloc = cur.alloc()
		prevWasMini = size == miniBlockSize
	}

	listCount := 0
	for idx := 0; idx < numBuckets; idx++ {
		n, err := a.countBucket(lineHint, idx)
		if err != nil {
			return err
		}
		listCount += n
	}
	if listCount != freeCount {
		return a.corrupt(lineHint, "free list total %d does not match %d free blocks found walking the heap", listCount, freeCount)
	}
	return nil
}

// countBucket walks one of the 14 segregated free-list buckets, verifying
// that every member belongs there by size, is actually marked free, and
// that (for the doubly-linked buckets) forward/backward links agree with
// each other. It returns the number of blocks found.
func (a *Allocator) countBucket(lineHint, idx int) (int, error) {
	n := 0
	var prev block
	for cur := a.buckets[idx]; !cur.isNil(); cur = fwd(cur) {
		if cur.alloc() {
			return 0, a.corrupt(lineHint, "allocated block at %p found in free bucket %d", cur.p, idx)
		}
		if bucketFor(cur.size()) != idx {
			return 0, a.corrupt(lineHint, "block at %p of size %d is in bucket %d, should be in bucket %d", cur.p, cur.size(), idx, bucketFor(cur.size()))
		}
		if idx != 0 {
			if !prev.isNil() && back(cur).p != prev.p {
				return 0, a.corrupt(lineHint, "block at %p's back pointer does not point to its predecessor %p", cur.p, prev.p)
			}
		}
		prev = cur
		n++
		if n > 1<<20 {
			return 0, a.corrupt(lineHint, "bucket %d free list looks cyclic (exceeded %d entries)", idx, 1<<20)
		}
	}
	return n, nil
}

func (a *Allocator) corrupt(lineHint int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: line %d: %s", ErrCorrupt, lineHint, msg)
}
