package format

import (
	"errors"
	"testing"
)

func TestDescriptorLayout(t *testing.T) {
	buf := make([]byte, DescriptorSize+4)
	if err := EncodeDescriptor(buf, Descriptor{Size: 0x1000, Next: 0x80002000}); err != nil {
		t.Fatalf("EncodeDescriptor: %v", err)
	}
	if got := ReadU64(buf, DescriptorSizeOffset); got != 0x1000 {
		t.Fatalf("size field = 0x%X", got)
	}
	if got := ReadU64(buf, DescriptorNextOffset); got != 0x80002000 {
		t.Fatalf("next field = 0x%X", got)
	}
	d, err := DecodeDescriptor(buf)
	if err != nil {
		t.Fatalf("DecodeDescriptor: %v", err)
	}
	if d.Size != 0x1000 || d.Next != 0x80002000 {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	for i := DescriptorSize; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d past the descriptor was written", i)
		}
	}
}

func TestDescriptorTruncated(t *testing.T) {
	short := make([]byte, DescriptorSize-1)
	if _, err := DecodeDescriptor(short); !errors.Is(err, ErrTruncated) {
		t.Fatalf("DecodeDescriptor err = %v, want ErrTruncated", err)
	}
	if err := EncodeDescriptor(short, Descriptor{}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("EncodeDescriptor err = %v, want ErrTruncated", err)
	}
}
