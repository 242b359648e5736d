// Package flatheap implements a general-purpose dynamic memory allocator:
// malloc/free/realloc/calloc over a single flat, monotonically-growing
// byte region obtained from a Host primitive.
//
// Every live or free block is prefixed by a packed 64-bit header word: the
// low 4 bits carry the allocated flag, the previous block's allocated flag,
// and the previous block's "mini" flag; the remaining bits carry the block's
// size, always a multiple of 16. Blocks of exactly 16 bytes ("mini" blocks)
// never carry a footer and are threaded into a singly-linked free list;
// blocks of 32 bytes or more carry a footer mirroring the header while free,
// and are threaded into a doubly-linked free list. Free blocks are indexed
// by 14 segregated size buckets and placed with a bounded best-fit search.
// Adjacent free blocks are coalesced on every free.
//
// Allocator is not safe for concurrent use; callers that need that must
// serialize their own Alloc/Free/Realloc/Calloc calls.
package flatheap
