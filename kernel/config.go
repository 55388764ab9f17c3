package kernel

import (
	"fmt"
	"math"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/kernel/uart"
)

// Config describes the machine the kernel boots on.
type Config struct {
	// RAMBase is the first physical address of RAM. The kernel image is
	// loaded here.
	RAMBase mem.Addr

	// RAMEnd is one past the last usable byte of RAM. The heap runs up to it.
	RAMEnd mem.Addr

	// ImageSize is how many bytes of RAM the kernel image occupies. The heap
	// starts at the next word boundary after it.
	ImageSize uint64

	// UARTBase is the console's MMIO address. It must not fall inside RAM.
	UARTBase mem.Addr

	// Default installs the heap as the process-wide allocator.
	Default bool
}

// DefaultConfig matches QEMU's RISC-V virt machine with 128 MiB of RAM.
func DefaultConfig() Config {
	return Config{
		RAMBase:   0x8000_0000,
		RAMEnd:    0x8800_0000,
		ImageSize: 64 << 10,
		UARTBase:  uart.DefaultBase,
	}
}

// Validate checks that the layout leaves room for a heap.
func (c Config) Validate() error {
	switch {
	case c.RAMBase == mem.Null:
		return fmt.Errorf("%w: RAM base must be non-zero", ErrBadConfig)
	case c.RAMEnd <= c.RAMBase:
		return fmt.Errorf("%w: RAM end %s not above base %s", ErrBadConfig, c.RAMEnd, c.RAMBase)
	case uint64(c.RAMEnd-c.RAMBase) > math.MaxInt:
		return fmt.Errorf("%w: RAM size %d too large to map", ErrBadConfig, c.RAMEnd-c.RAMBase)
	case c.UARTBase >= c.RAMBase && c.UARTBase < c.RAMEnd:
		return fmt.Errorf("%w: UART base %s inside RAM", ErrBadConfig, c.UARTBase)
	}

	ramSize := uint64(c.RAMEnd - c.RAMBase)
	if c.ImageSize > ramSize {
		return fmt.Errorf("%w: image of %d bytes does not fit in %d bytes of RAM", ErrBadConfig, c.ImageSize, ramSize)
	}
	start := format.Align8(uint64(c.RAMBase)+c.ImageSize)
	if start > uint64(c.RAMEnd) || uint64(c.RAMEnd)-start < format.DescriptorSize {
		return fmt.Errorf("%w: no room for a heap after a %d byte image", ErrBadConfig, c.ImageSize)
	}
	return nil
}

// heapRange returns where the heap starts and how large it is.
func (c Config) heapRange() (mem.Addr, uint64) {
	start := mem.Addr(format.Align8(uint64(c.RAMBase)+c.ImageSize))
	return start, uint64(c.RAMEnd - start)
}
