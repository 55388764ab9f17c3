// Package format describes the on-memory layout of free-block descriptors.
//
// A descriptor is written directly into the first bytes of the free region it
// describes. Layout (little-endian):
//
//	0x00  size  uint64  bytes spanned by the block, descriptor included
//	0x08  next  uint64  address of the next free block, 0 when last
package format

const (
	// DescriptorSize is the number of bytes a descriptor occupies. A free
	// region smaller than this cannot be tracked.
	DescriptorSize = 16

	// DescriptorSizeOffset is the offset of the size field.
	DescriptorSizeOffset = 0x00

	// DescriptorNextOffset is the offset of the successor link.
	DescriptorNextOffset = 0x08

	// WordAlign is the base alignment of every descriptor and of every
	// region handed back to the free list.
	WordAlign = 8

	// WordAlignMask masks the low bits that must be zero in an aligned address.
	WordAlignMask = WordAlign - 1
)
