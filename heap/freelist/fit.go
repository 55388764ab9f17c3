package freelist

import (
	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// fit classifies how a request lands in a free block.
type fit uint8

const (
	// fitNone: the request does not fit, or would leave an untrackable fragment.
	fitNone fit = iota
	// fitPerfect: the aligned request ends exactly at the block end.
	fitPerfect
	// fitSplit: the request consumes a prefix and the suffix can host a descriptor.
	fitSplit
)

func (f fit) String() string {
	switch f {
	case fitPerfect:
		return "perfect"
	case fitSplit:
		return "split"
	default:
		return "none"
	}
}

// canFit returns the aligned start address for the request and how it fits
// in block. The remainder after a split starts at the request end rounded up
// to format.WordAlign, so that rounded end must leave a full descriptor.
func canFit(block Block, size, align uint64) (mem.Addr, fit) {
	start := format.AlignUp(uint64(block.Addr), align)
	if start < uint64(block.Addr) {
		return mem.Null, fitNone
	}
	allocEnd, ok := buf.AddOverflowSafe(start, size)
	if !ok {
		return mem.Null, fitNone
	}
	blockEnd := uint64(block.End())

	if allocEnd == blockEnd {
		return mem.Addr(start), fitPerfect
	}
	remainderStart := format.AlignUp(allocEnd, format.WordAlign)
	if remainderStart >= allocEnd && remainderStart <= blockEnd &&
		blockEnd-remainderStart >= format.DescriptorSize {
		return mem.Addr(start), fitSplit
	}
	return mem.Null, fitNone
}
