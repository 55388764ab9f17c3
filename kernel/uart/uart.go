// Package uart drives a 16550-compatible serial port by polling its line
// status register.
//
// The driver only sees a Registers implementation: on hardware that is the
// MMIO window at the device base address; hosted, it is a simulated Device
// bridged to an io.Reader and io.Writer.
package uart

import (
	"context"
	"io"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/heap/spin"
)

// Register offsets and bits of a 16550.
const (
	RBR = 0 // receive buffer (read)
	THR = 0 // transmit holding (write)
	LSR = 5 // line status

	LSRDataReady = 1 << 0 // a received byte is waiting in RBR
	LSRTxEmpty   = 1 << 5 // THR can take another byte
)

// DefaultBase is where the QEMU virt machine maps its UART.
const DefaultBase mem.Addr = 0x1000_0000

// Registers is byte access to the device's register block.
type Registers interface {
	Load8(off uint8) byte
	Store8(off uint8, v byte)
}

// closer is implemented by register blocks whose input can end.
type closer interface {
	Closed() bool
}

// Driver polls a 16550. It holds no buffer; every byte goes straight to or
// from the device.
type Driver struct {
	regs Registers
}

// New returns a driver for regs.
func New(regs Registers) *Driver {
	return &Driver{regs: regs}
}

// PutByte waits until the transmitter is empty, then writes b.
func (d *Driver) PutByte(b byte) {
	for d.regs.Load8(LSR)&LSRTxEmpty == 0 {
		spin.Pause()
	}
	d.regs.Store8(THR, b)
}

// GetByte waits until a byte has been received and returns it.
func (d *Driver) GetByte() byte {
	for d.regs.Load8(LSR)&LSRDataReady == 0 {
		spin.Pause()
	}
	return d.regs.Load8(RBR)
}

// GetByteContext is GetByte with an exit: it returns ctx.Err() when ctx ends
// and io.EOF when the device reports its input closed and drained.
func (d *Driver) GetByteContext(ctx context.Context) (byte, error) {
	c, canClose := d.regs.(closer)
	for d.regs.Load8(LSR)&LSRDataReady == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if canClose && c.Closed() && d.regs.Load8(LSR)&LSRDataReady == 0 {
			return 0, io.EOF
		}
		spin.Pause()
	}
	return d.regs.Load8(RBR), nil
}

// Write sends p byte by byte. It never fails.
func (d *Driver) Write(p []byte) (int, error) {
	for _, b := range p {
		d.PutByte(b)
	}
	return len(p), nil
}

// MMIO exposes a register block mapped into memory at base. Accesses are plain
// loads and stores with no device behind them.
type MMIO struct {
	mem  *mem.Memory
	base mem.Addr
}

// NewMMIO maps the register block at base inside m.
func NewMMIO(m *mem.Memory, base mem.Addr) *MMIO {
	return &MMIO{mem: m, base: base}
}

// Load8 reads the register at off.
func (r *MMIO) Load8(off uint8) byte { return r.mem.Load8(r.base + mem.Addr(off)) }

// Store8 writes the register at off.
func (r *MMIO) Store8(off uint8, v byte) { r.mem.Store8(r.base+mem.Addr(off), v) }
