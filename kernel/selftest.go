package kernel

import (
	"strconv"
	"strings"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/logger"
)

const selfTestString = "Hello from the Heap!"

// selfTest allocates a boxed value, a growing vector and a string, prints
// them back from RAM and releases everything.
func (k *Kernel) selfTest() {
	k.console.Println("Running heap tests...")
	ram := k.heap.Memory()

	box := k.heap.MustAllocate(8, 8)
	ram.Store64(box, 42)
	k.console.Printf("  Box value: %d at %s\n", ram.Load64(box), box)

	v := vec{heap: k.heap}
	for i := range uint64(10) {
		v.push(i)
	}
	k.console.Printf("  Vector: %s\n", v)

	str := k.heap.MustAllocate(uint64(len(selfTestString)), 1)
	copy(ram.Bytes(str, uint64(len(selfTestString))), selfTestString)
	k.console.Printf("  String: '%s'\n", ram.Bytes(str, uint64(len(selfTestString))))

	k.heap.Release(str, uint64(len(selfTestString)))
	v.free()
	k.heap.Release(box, 8)

	k.checkHeap()
	logger.Debug("kernel: heap self-test done", "stats", k.heap.Stats(), "counters", k.heap.Counters())
	k.console.Println("Heap tests completed successfully.")
}

// vec is a growable array of uint64 living in the kernel heap. Growth doubles
// the capacity, starting at four elements.
type vec struct {
	heap     *alloc.Allocator
	ptr      mem.Addr
	len, cap uint64
}

const vecMinCap = 4

func (v *vec) push(x uint64) {
	if v.len == v.cap {
		v.grow()
	}
	v.heap.Memory().Store64(v.ptr+mem.Addr(v.len*8), x)
	v.len++
}

func (v *vec) grow() {
	newCap := max(v.cap*2, vecMinCap)
	p := v.heap.MustAllocate(newCap*8, 8)
	if v.cap > 0 {
		ram := v.heap.Memory()
		copy(ram.Bytes(p, v.len*8), ram.Bytes(v.ptr, v.len*8))
		v.heap.Release(v.ptr, v.cap*8)
	}
	v.ptr, v.cap = p, newCap
}

func (v *vec) at(i uint64) uint64 {
	return v.heap.Memory().Load64(v.ptr + mem.Addr(i*8))
}

func (v *vec) free() {
	if v.cap > 0 {
		v.heap.Release(v.ptr, v.cap*8)
	}
	v.ptr, v.len, v.cap = mem.Null, 0, 0
}

// String renders the elements as [a, b, c].
func (v vec) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := range v.len {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatUint(v.at(i), 10))
	}
	sb.WriteByte(']')
	return sb.String()
}
