package flatheap

// defaultBestFitLookahead is find_fit's tuned bound: once a first fit is
// found in a bucket, look at this many further candidates in the same
// bucket for a smaller surplus before giving up. This is a tuned heuristic,
// not a correctness requirement, so it's an Allocator field rather than a
// hardcoded constant.
const defaultBestFitLookahead = 10

// findFit searches the segregated free lists for a block of at least asize
// bytes, starting at asize's own bucket and widening outward. Within the
// first bucket that has a candidate, it performs a bounded best-fit scan:
// take the first fit, then look at up to BestFitLookahead further
// candidates in that same bucket for a smaller surplus, stopping early on
// an exact match.
func (a *Allocator) findFit(asize uint64) block {
	for idx := bucketFor(asize); idx < numBuckets; idx++ {
		for cur := a.buckets[idx]; !cur.isNil(); cur = fwd(cur) {
			if cur.size() >= asize {
				return a.refineFit(cur, asize)
			}
		}
	}
	return nilBlock
}

func (a *Allocator) refineFit(first block, asize uint64) block {
	best := first
	bestSurplus := first.size() - asize
	if bestSurplus == 0 {
		return best
	}

	lookahead := a.BestFitLookahead
	if lookahead <= 0 {
		lookahead = defaultBestFitLookahead
	}

	cand := fwd(first)
	for i := 0; i < lookahead && !cand.isNil(); i++ {
		if cand.size() >= asize {
			surplus := cand.size() - asize
			if surplus == 0 {
				return cand
			}
			if surplus < bestSurplus {
				best, bestSurplus = cand, surplus
			}
		}
		cand = fwd(cand)
	}
	return best
}

// splitBlock carves an asize-byte allocated block out of b, which must
// already be marked allocated at its full original size and unlinked from
// its free list. Depending on the leftover remainder it either leaves b
// alone, carves a 16-byte mini remainder, or carves a full normal
// remainder. In every case it updates the prev-alloc/prev-mini bits of the
// block that now follows the carved region; a prior draft of this routine
// only did that for the mini-remainder branch, leaving the neighbor's bits
// stale after a normal-remainder split.
func (a *Allocator) splitBlock(b block, asize uint64) {
	total := b.size()
	rem := total - asize
	afterOriginal := b.next()

	switch {
	case rem < dsize:
		a.stampPrev(afterOriginal, true, total == miniBlockSize)
		if total >= minNormalBlockSize {
			b.setFooter(0)
		}

	case rem == miniBlockSize:
		writeSizeAlloc(b, asize, true)
		if asize >= minNormalBlockSize {
			b.setFooter(0)
		}
		tail := b.next()
		writeFull(tail, miniBlockSize, false)
		writePrevAlloc(tail, true)
		writePrevMini(tail, asize == miniBlockSize)
		a.link(tail)
		a.stampPrev(afterOriginal, false, true)

	default:
		writeSizeAlloc(b, asize, true)
		if asize >= minNormalBlockSize {
			b.setFooter(0)
		}
		tail := b.next()
		writeFull(tail, rem, false)
		writePrevAlloc(tail, true)
		writePrevMini(tail, asize == miniBlockSize)
		a.link(tail)
		a.stampPrev(afterOriginal, false, false)
	}
}
