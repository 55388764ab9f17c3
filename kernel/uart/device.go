package uart

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// fifoDepth matches the 16550's receive FIFO.
const fifoDepth = 16

// Device simulates a 16550 on the host. Bytes read from in show up in RBR;
// bytes written to THR go to out. The transmitter is always ready.
type Device struct {
	in  io.Reader
	out io.Writer

	rx     chan byte
	closed atomic.Bool

	mu  sync.Mutex // serializes out and err
	err error

	once sync.Once
}

// NewDevice returns a device bridging in and out. Call Start to begin
// receiving; without it RBR never becomes ready.
func NewDevice(in io.Reader, out io.Writer) *Device {
	return &Device{
		in:  in,
		out: out,
		rx:  make(chan byte, fifoDepth),
	}
}

// Start launches the receiver goroutine. It stops when in is exhausted or
// ctx ends, after which Closed reports true. Start is idempotent.
func (d *Device) Start(ctx context.Context) {
	d.once.Do(func() {
		if d.in == nil {
			d.closed.Store(true)
			return
		}
		go d.receive(ctx)
	})
}

func (d *Device) receive(ctx context.Context) {
	defer d.closed.Store(true)

	r := bufio.NewReader(d.in)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.setErr(err)
			}
			return
		}
		select {
		case d.rx <- b:
		case <-ctx.Done():
			return
		}
	}
}

// Closed reports whether the input side has ended.
func (d *Device) Closed() bool {
	return d.closed.Load() && len(d.rx) == 0
}

// Err returns the first read or write error seen by the device.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Load8 implements Registers.
func (d *Device) Load8(off uint8) byte {
	switch off {
	case RBR:
		select {
		case b := <-d.rx:
			return b
		default:
			return 0
		}
	case LSR:
		v := byte(LSRTxEmpty)
		if len(d.rx) > 0 {
			v |= LSRDataReady
		}
		return v
	default:
		return 0
	}
}

// Store8 implements Registers.
func (d *Device) Store8(off uint8, v byte) {
	if off != THR || d.out == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.out.Write([]byte{v}); err != nil && d.err == nil {
		d.err = err
	}
}

func (d *Device) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = err
	}
}
