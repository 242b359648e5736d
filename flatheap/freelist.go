package flatheap

const numBuckets = 14

// bucketFor maps a block size to one of the 14 segregated free-list
// buckets. Bucket 0 holds only exact-16-byte mini blocks; the remaining
// buckets hold doubly-linked normal blocks at widening size classes,
// topping out with an unbounded "everything else" bucket.
func bucketFor(size uint64) int {
	switch {
	case size <= 16:
		return 0
	case size <= 32:
		return 1
	case size <= 64:
		return 2
	case size <= 96:
		return 3
	case size <= 128:
		return 4
	case size <= 256:
		return 5
	case size <= 512:
		return 6
	case size <= 1024:
		return 7
	case size <= 2048:
		return 8
	case size <= 3072:
		return 9
	case size <= 4096:
		return 10
	case size <= 5120:
		return 11
	case size <= 6144:
		return 12
	default:
		return 13
	}
}

// fwd/back read and write the link slots embedded in a free block's
// payload. Every free block (mini or normal) has a forward pointer at
// offset wordSize; only normal (>=32 byte) free blocks also have a backward
// pointer, at offset 2*wordSize. Links are stored as raw address words
// rather than typed unsafe.Pointer values, the same way a handle-based
// store keeps offsets instead of live pointers in its backing bytes.
func fwd(b block) block { return block{wordToPtr(*(*word)(addOffset(b.p, wordSize)))} }

func setFwd(b block, v block) { *(*word)(addOffset(b.p, wordSize)) = ptrToWord(v.p) }

func back(b block) block { return block{wordToPtr(*(*word)(addOffset(b.p, 2*wordSize)))} }

func setBack(b block, v block) { *(*word)(addOffset(b.p, 2*wordSize)) = ptrToWord(v.p) }

// link pushes b onto the head of its size bucket's free list (LIFO, same as
// every other insertion in this allocator).
func (a *Allocator) link(b block) {
	idx := bucketFor(b.size())
	if idx == 0 {
		setFwd(b, a.buckets[0])
		a.buckets[0] = b
		return
	}
	old := a.buckets[idx]
	setFwd(b, old)
	setBack(b, nilBlock)
	if !old.isNil() {
		setBack(old, b)
	}
	a.buckets[idx] = b
}

// unlink removes b from its size bucket's free list. It is idempotent: a
// block that is already detached (or whose bucket no longer contains it) is
// left untouched rather than corrupting the list, which lets callers unlink
// defensively without tracking list membership themselves.
func (a *Allocator) unlink(b block) {
	idx := bucketFor(b.size())
	if idx == 0 {
		a.unlinkMini(b)
		return
	}

	head := a.buckets[idx]
	fw, bk := fwd(b), back(b)

	switch {
	case head.p == b.p:
		a.buckets[idx] = fw
		if !fw.isNil() {
			setBack(fw, nilBlock)
		}
	case fw.isNil() && bk.isNil():
		return // not the head and both links empty: already detached
	case bk.isNil():
		return // linked forward but no backward link and not the head: stale, nothing sound to do
	case fw.isNil():
		setFwd(bk, nilBlock)
	default:
		setFwd(bk, fw)
		setBack(fw, bk)
	}
	setFwd(b, nilBlock)
	setBack(b, nilBlock)
}

func (a *Allocator) unlinkMini(b block) {
	if a.buckets[0].p == b.p {
		a.buckets[0] = fwd(b)
		setFwd(b, nilBlock)
		return
	}
	for cur := a.buckets[0]; !cur.isNil(); cur = fwd(cur) {
		if nxt := fwd(cur); nxt.p == b.p {
			setFwd(cur, fwd(b))
			setFwd(b, nilBlock)
			return
		}
	}
	// not found anywhere in the bucket: already detached, tolerate it
}
