package format

import "fmt"

// Descriptor is the decoded form of an in-place free-block header.
type Descriptor struct {
	Size uint64 // bytes spanned by the block, header included
	Next uint64 // address of the successor, 0 when last
}

// DecodeDescriptor reads a descriptor from the start of b.
func DecodeDescriptor(b []byte) (Descriptor, error) {
	if len(b) < DescriptorSize {
		return Descriptor{}, fmt.Errorf("descriptor: %w (have %d bytes)", ErrTruncated, len(b))
	}
	return Descriptor{
		Size: ReadU64(b, DescriptorSizeOffset),
		Next: ReadU64(b, DescriptorNextOffset),
	}, nil
}

// EncodeDescriptor writes d to the start of b. b must hold DescriptorSize bytes.
func EncodeDescriptor(b []byte, d Descriptor) error {
	if len(b) < DescriptorSize {
		return fmt.Errorf("descriptor: %w (have %d bytes)", ErrTruncated, len(b))
	}
	PutU64(b, DescriptorSizeOffset, d.Size)
	PutU64(b, DescriptorNextOffset, d.Next)
	return nil
}
