package heap_test

import (
	"fmt"
	"os"

	"github.com/joshuapare/fixedheap/heap"
)

func Example() {
	h, err := heap.Init(make([]byte, 1024), nil)
	if err != nil {
		panic(err)
	}

	r, _ := h.Alloc(11)
	copy(h.Bytes(r), "hello heap")
	fmt.Println(r, h.Size(r), string(h.Bytes(r)[:10]))

	r, _ = h.Realloc(r, 100)
	fmt.Println(string(h.Bytes(r)[:10]))

	_ = h.Free(r)
	st := h.Query()
	fmt.Println(st.FreeBlocks, st.FreeBytes, st.UsedBlocks)

	// Output:
	// 18 12 hello heap
	// hello heap
	// 1 1006 0
}

func ExampleHeap_Dump() {
	h, _ := heap.Init(make([]byte, 1024), nil)
	_, _ = h.Alloc(40)

	_ = h.Dump(os.Stdout)

	// Output:
	// Used list
	//   offset=12 next=65535 previous=6 length=40
	// Free list
	//   offset=58 next=65535 previous=0 length=960
	// bytes accounted for = 01024
	//          free bytes = 00960
	//          used bytes = 00040
	//  largest free block = 00960
}
