// Package freelist implements an address-ordered free list whose nodes are
// stored inside the free memory they describe.
//
// Each free block starts with a 16-byte descriptor (see internal/format)
// holding the block size and the address of the next free block. A sentinel
// head outside the managed memory anchors the chain; its size is always zero
// and it is never handed out. Adjacent free blocks are not merged.
//
// A FreeList performs no synchronization. The alloc package wraps it in a
// spin lock; any other caller must serialize access itself.
package freelist

import (
	"log/slog"
	"os"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Runtime debug flag for allocation logging - controlled by HEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAP_LOG_ALLOC") != ""

// debugAlloc reports whether fit decisions should be logged. Both the env
// flag and a debug-level logger are required.
func debugAlloc() bool {
	return logAlloc && logger.Enabled(slog.LevelDebug)
}

// FreeList is the free-list engine over a single memory window.
type FreeList struct {
	mem *mem.Memory

	// head is the sentinel's successor link. The sentinel itself has no
	// address; mem.Null as a predecessor means "the sentinel".
	head mem.Addr

	counters Counters
}

// New returns an empty free list over m. Call Init before allocating.
func New(m *mem.Memory) *FreeList {
	return &FreeList{mem: m}
}

// Memory returns the memory window the list manages.
func (l *FreeList) Memory() *mem.Memory { return l.mem }

// Init hands the range [heapStart, heapStart+heapSize) to the list. It must be
// called exactly once, before any allocation, with a range nothing else uses.
func (l *FreeList) Init(heapStart mem.Addr, heapSize uint64) {
	l.AddFreeRegion(heapStart, heapSize)
}

// FindRegion removes room for size bytes aligned to align from the first
// block that can host it and returns the aligned start address. align must be
// a power of two. The second result is false when no block fits; the list is
// left unchanged in that case.
func (l *FreeList) FindRegion(size, align uint64) (mem.Addr, bool) {
	l.counters.AllocCalls++

	prev := mem.Null
	cur := l.head
	for cur != mem.Null {
		d := l.load(cur)
		block := Block{Addr: cur, Size: d.Size}

		start, kind := canFit(block, size, align)
		switch kind {
		case fitPerfect:
			l.setNext(prev, mem.Addr(d.Next))
			l.counters.PerfectFits++
			l.noteAlloc(block, start, size)
			if debugAlloc() {
				logger.Debug("freelist: perfect fit", "block", block.Addr, "size", size, "align", align, "addr", start)
			}
			return start, true

		case fitSplit:
			allocEnd := uint64(start) + size
			newFree := mem.Addr(format.AlignUp(allocEnd, format.WordAlign))
			l.store(newFree, format.Descriptor{
				Size: uint64(block.End() - newFree),
				Next: d.Next,
			})
			l.setNext(prev, newFree)
			l.counters.SplitFits++
			l.counters.AlignmentWaste += uint64(newFree) - allocEnd
			l.noteAlloc(block, start, size)
			if debugAlloc() {
				logger.Debug("freelist: split fit", "block", block.Addr, "size", size, "align", align,
					"addr", start, "remainder", newFree)
			}
			return start, true
		}

		prev, cur = cur, mem.Addr(d.Next)
	}

	l.counters.Failures++
	if debugAlloc() {
		logger.Debug("freelist: no region", "size", size, "align", align)
	}
	return mem.Null, false
}

// AddFreeRegion returns [addr, addr+size) to the list. The start is rounded up
// to format.WordAlign; if what remains cannot hold a descriptor the region is
// dropped for good. A region starting where a free block already starts is
// ignored. Otherwise a descriptor is written at the rounded address and
// spliced in before the first block that starts above it.
func (l *FreeList) AddFreeRegion(addr mem.Addr, size uint64) {
	l.counters.ReleaseCalls++
	l.counters.BytesReleased += size

	end, ok := buf.AddOverflowSafe(uint64(addr), size)
	aligned := format.AlignUp(uint64(addr), format.WordAlign)
	if !ok || aligned > end || end-aligned < format.DescriptorSize {
		l.counters.DroppedFragments++
		l.counters.BytesDropped += size
		if debugAlloc() {
			logger.Debug("freelist: dropped fragment", "addr", addr, "size", size)
		}
		return
	}

	node := mem.Addr(aligned)

	prev := mem.Null
	cur := l.head
	for cur != mem.Null && cur <= node {
		prev, cur = cur, l.next(cur)
	}

	// Releasing the start of a block that is already free would link the
	// descriptor to itself.
	if prev == node {
		l.counters.DuplicateReleases++
		if debugAlloc() {
			logger.Debug("freelist: duplicate release", "addr", node, "size", size)
		}
		return
	}
	l.counters.BytesDropped += aligned - uint64(addr)

	l.store(node, format.Descriptor{Size: end - aligned, Next: uint64(cur)})
	l.setNext(prev, node)

	if debugAlloc() {
		logger.Debug("freelist: added region", "addr", node, "size", end-aligned, "before", cur)
	}
}

func (l *FreeList) noteAlloc(block Block, start mem.Addr, size uint64) {
	l.counters.BytesAllocated += size
	l.counters.AlignmentWaste += uint64(start - block.Addr)
}

// load decodes the descriptor stored at addr.
func (l *FreeList) load(addr mem.Addr) format.Descriptor {
	d, _ := format.DecodeDescriptor(l.mem.Bytes(addr, format.DescriptorSize))
	return d
}

// store encodes d at addr.
func (l *FreeList) store(addr mem.Addr, d format.Descriptor) {
	_ = format.EncodeDescriptor(l.mem.Bytes(addr, format.DescriptorSize), d)
}

// next returns the successor link of the descriptor at addr.
func (l *FreeList) next(addr mem.Addr) mem.Addr {
	return mem.Addr(l.mem.Load64(addr + format.DescriptorNextOffset))
}

// setNext points prev's successor link at next. prev == mem.Null is the sentinel.
func (l *FreeList) setNext(prev, next mem.Addr) {
	if prev == mem.Null {
		l.head = next
		return
	}
	l.mem.Store64(prev+format.DescriptorNextOffset, uint64(next))
}
