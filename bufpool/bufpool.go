/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bufpool hands out []byte buffers backed by a flatheap.Allocator
// instead of Go's garbage collector. It is the same footer-tagged,
// Get/Put/Cap shape as cache/mempool, just with the block manager standing
// in for sync.Pool as the thing that actually owns the bytes.
package bufpool

import (
	"unsafe"

	"github.com/cloudwego/flatheap/flatheap"
)

const (
	// footerLen reserves trailing bytes past len in every buffer for a
	// magic tag, so Put/Cap can tell whether a []byte came from this pool,
	// as long as the caller has not resliced into or overwritten those
	// trailing bytes, the same check cache/mempool makes.
	footerLen = 8

	footerMagicMask = uint64(0xFFFFFFFFFFFFFF00)
	footerMagic     = uint64(0xBADC0DEBADC0D00)
)

// Pool hands out buffers from a single underlying flatheap.Allocator.
type Pool struct {
	a *flatheap.Allocator
}

// New wraps an existing Allocator as a Pool.
func New(a *flatheap.Allocator) *Pool {
	return &Pool{a: a}
}

// Get returns a buffer of the requested size. The returned slice's cap may
// exceed size; use Cap to recover the full usable capacity.
func (p *Pool) Get(size int) ([]byte, error) {
	if size < 0 {
		return nil, flatheap.ErrInvalidSize
	}
	if size == 0 {
		return []byte{}, nil
	}
	buf, err := p.a.Alloc(uint64(size) + footerLen)
	if err != nil {
		return nil, err
	}
	setFooter(buf, footerMagic)
	return buf[:size], nil
}

// Cap returns the full usable capacity of a buffer returned by Get. It
// panics if buf was not obtained from this package, mirroring
// cache/mempool.Cap's contract.
func (p *Pool) Cap(buf []byte) int {
	if cap(buf)-len(buf) < footerLen || getFooter(buf)&footerMagicMask != footerMagic {
		panic("bufpool: buf not obtained from Pool.Get, or resized without Cap")
	}
	return cap(buf) - footerLen
}

// Put returns buf to the pool. It is a safe no-op for a buffer not
// obtained from this package, or one whose footer tag no longer checks out.
func (p *Pool) Put(buf []byte) {
	if cap(buf)-len(buf) < footerLen {
		return
	}
	if getFooter(buf)&footerMagicMask != footerMagic {
		return
	}
	p.a.Free(buf)
}

type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

func setFooter(buf []byte, magic uint64) {
	h := (*sliceHeader)(unsafe.Pointer(&buf))
	*(*uint64)(unsafe.Add(h.Data, h.Cap-footerLen)) = magic
}

func getFooter(buf []byte) uint64 {
	h := (*sliceHeader)(unsafe.Pointer(&buf))
	return *(*uint64)(unsafe.Add(h.Data, h.Cap-footerLen))
}
