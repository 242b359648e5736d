package flatheap

import "fmt"

func Example() {
	a, err := NewAllocator(NewArena(64 * 1024))
	if err != nil {
		fmt.Println("init failed:", err)
		return
	}

	buf, _ := a.Alloc(100)
	for i := range buf {
		buf[i] = byte(i)
	}
	fmt.Printf("alloc: len=%d cap=%d\n", len(buf), cap(buf))

	grown, _ := a.Realloc(buf, 4096)
	fmt.Printf("realloc: len=%d first byte=%d\n", len(grown), grown[0])

	a.Free(grown)
	fmt.Println("heap ok:", a.CheckHeap(0) == nil)

	// Output:
	// alloc: len=100 cap=104
	// realloc: len=4096 first byte=0
	// heap ok: true
}
