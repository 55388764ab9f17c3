package freelist

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/format"
)

// Block is a snapshot of one free block.
type Block struct {
	Addr mem.Addr // descriptor address, also the first free byte
	Size uint64   // bytes spanned, descriptor included
}

// End returns the address one past the block.
func (b Block) End() mem.Addr { return b.Addr + mem.Addr(b.Size) }

// Stats summarizes the free list.
type Stats struct {
	FreeBlocks   int    // number of descriptors after the sentinel
	FreeBytes    uint64 // sum of block sizes
	LargestBlock uint64 // size of the biggest block
}

// Counters records what the list has done since creation.
type Counters struct {
	AllocCalls        int    // FindRegion calls
	PerfectFits       int    // blocks consumed whole
	SplitFits         int    // blocks split
	Failures          int    // FindRegion calls with no fit
	ReleaseCalls      int    // AddFreeRegion calls, Init included
	DroppedFragments  int    // regions too small to track
	DuplicateReleases int    // regions whose start was already a free block
	BytesAllocated    uint64 // sum of sizes handed out
	BytesReleased     uint64 // sum of sizes returned
	BytesDropped      uint64 // bytes lost to dropped fragments and start rounding
	AlignmentWaste    uint64 // bytes skipped before or after allocations for alignment
}

// Walk calls fn for each free block in address order until fn returns false.
// It returns an error wrapping ErrCorrupt if a link leaves the managed memory
// or the chain is longer than the memory could hold.
func (l *FreeList) Walk(fn func(Block) bool) error {
	limit := l.mem.Size()/format.DescriptorSize + 1
	var seen uint64
	for cur := l.head; cur != mem.Null; {
		if !l.mem.Contains(cur, format.DescriptorSize) {
			return fmt.Errorf("%w: link to %s outside [%s, %s)", ErrCorrupt, cur, l.mem.Base(), l.mem.End())
		}
		seen++
		if seen > limit {
			return fmt.Errorf("%w: chain longer than %d nodes", ErrCorrupt, limit)
		}
		d := l.load(cur)
		if !fn(Block{Addr: cur, Size: d.Size}) {
			return nil
		}
		cur = mem.Addr(d.Next)
	}
	return nil
}

// Blocks returns all free blocks in address order. A corrupt chain yields the
// blocks reachable before the fault.
func (l *FreeList) Blocks() []Block {
	var blocks []Block
	_ = l.Walk(func(b Block) bool {
		blocks = append(blocks, b)
		return true
	})
	return blocks
}

// Stats walks the list and summarizes it.
func (l *FreeList) Stats() Stats {
	var s Stats
	_ = l.Walk(func(b Block) bool {
		s.FreeBlocks++
		s.FreeBytes += b.Size
		if b.Size > s.LargestBlock {
			s.LargestBlock = b.Size
		}
		return true
	})
	return s
}

// Counters returns a copy of the operation counters.
func (l *FreeList) Counters() Counters { return l.counters }
