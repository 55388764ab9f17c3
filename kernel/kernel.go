// Package kernel boots a minimal kernel on simulated hardware: it maps RAM,
// hands everything past the kernel image to the heap allocator, exercises the
// heap once and then echoes console input back to the console.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/freelist"
	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/mmfile"
	"github.com/joshuapare/heapkit/kernel/uart"
)

// Kernel is one boot of the machine described by its Config.
type Kernel struct {
	cfg     Config
	console *uart.Console

	ram   *mem.Memory
	heap  *alloc.Allocator
	unmap func() error
}

// New prepares a kernel whose console talks to regs. Nothing is mapped until
// Boot.
func New(cfg Config, regs uart.Registers) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Kernel{
		cfg:     cfg,
		console: uart.NewConsole(uart.New(regs)),
	}, nil
}

// Console returns the kernel console.
func (k *Kernel) Console() *uart.Console { return k.console }

// Heap returns the kernel heap, or nil before Boot.
func (k *Kernel) Heap() *alloc.Allocator { return k.heap }

// Memory returns the mapped RAM, or nil before Boot.
func (k *Kernel) Memory() *mem.Memory { return k.ram }

// Boot brings the kernel up and runs the echo loop until input ends (nil) or
// ctx is done (ctx.Err()). A kernel panic stops it with an error wrapping
// ErrHalted.
func (k *Kernel) Boot(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(halt)
			if !ok {
				panic(r)
			}
			logger.Error("kernel: halted", "reason", h.msg)
			err = fmt.Errorf("%w: %s", ErrHalted, h.msg)
		}
	}()

	k.console.Println("RISC-V Kernel Booting...")
	logger.Info("kernel: booting", "ram_base", k.cfg.RAMBase, "ram_end", k.cfg.RAMEnd, "uart", k.cfg.UARTBase)

	if err := k.initHeap(); err != nil {
		return err
	}

	k.selfTest()

	k.console.Println("System ready. Echo mode active:")
	return k.echo(ctx)
}

// Panic prints msg and halts. It does not return: Boot recovers the halt and
// reports it as ErrHalted.
func (k *Kernel) Panic(msg string) {
	k.console.Printf("Kernel Panic! -> %s\n", msg)
	panic(halt{msg: msg})
}

// Close unmaps RAM. The kernel must not be used afterwards.
func (k *Kernel) Close() error {
	if k.unmap == nil {
		return nil
	}
	err := k.unmap()
	k.unmap, k.ram, k.heap = nil, nil, nil
	return err
}

// Reset returns RAM to its power-on state: every byte reads as zero and the
// heap is gone. The next Boot reuses the mapping and builds a fresh heap. A
// kernel whose heap is the process-wide allocator cannot be reset.
func (k *Kernel) Reset() error {
	if k.ram == nil {
		return nil
	}
	if k.cfg.Default {
		return ErrDefaultHeap
	}
	if err := mmfile.Discard(k.ram.Bytes(k.ram.Base(), k.ram.Size())); err != nil {
		return fmt.Errorf("kernel: reset RAM: %w", err)
	}
	k.heap = nil
	logger.Info("kernel: reset", "ram_base", k.cfg.RAMBase, "ram_end", k.cfg.RAMEnd)
	return nil
}

func (k *Kernel) mapRAM() error {
	if k.ram != nil {
		return nil
	}
	buf, unmap, err := mmfile.Anonymous(int(k.cfg.RAMEnd - k.cfg.RAMBase))
	if err != nil {
		return fmt.Errorf("kernel: map RAM: %w", err)
	}
	ram, err := mem.New(k.cfg.RAMBase, buf)
	if err != nil {
		_ = unmap()
		return fmt.Errorf("kernel: map RAM: %w", err)
	}
	k.ram, k.unmap = ram, unmap
	return nil
}

func (k *Kernel) initHeap() error {
	if err := k.mapRAM(); err != nil {
		return err
	}

	var err error
	start, size := k.cfg.heapRange()
	if k.cfg.Default {
		k.heap, err = alloc.InitDefault(k.ram, start, size)
	} else {
		k.heap = alloc.New(k.ram)
		err = k.heap.Init(start, size)
	}
	if err != nil {
		return fmt.Errorf("kernel: init heap: %w", err)
	}
	k.heap.SetErrorHandler(func(size, align uint64) {
		k.Panic((&alloc.Error{Size: size, Align: align}).Error())
	})

	k.console.Println("Memory Allocator initialized:")
	k.console.Printf("  Start Address: %s\n", start)
	k.console.Printf("  Total Size:    %d KB\n", size/1024)
	logger.Info("kernel: heap ready", "start", start, "size", size)
	return nil
}

// checkHeap halts if the free list no longer holds its invariants.
func (k *Kernel) checkHeap() {
	var err error
	k.heap.Inspect(func(fl *freelist.FreeList) {
		err = verify.FreeList(fl)
	})
	if err != nil {
		k.Panic(err.Error())
	}
}

func (k *Kernel) echo(ctx context.Context) error {
	for {
		b, err := k.console.GetByteContext(ctx)
		if errors.Is(err, io.EOF) {
			logger.Info("kernel: console input closed")
			return nil
		}
		if err != nil {
			return err
		}

		if b == '\r' {
			k.console.Println()
			continue
		}
		k.console.Print(string(charmap.ISO8859_1.DecodeByte(b)))
	}
}
