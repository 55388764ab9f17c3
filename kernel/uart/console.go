package uart

import (
	"context"
	"fmt"

	"github.com/joshuapare/heapkit/heap/spin"
)

// Console serializes output through one Driver so that concurrent prints do
// not interleave within a message.
type Console struct {
	drv *spin.Locked[*Driver]
}

// NewConsole wraps d.
func NewConsole(d *Driver) *Console {
	return &Console{drv: spin.NewLocked(d)}
}

// Write sends p as one unit.
func (c *Console) Write(p []byte) (int, error) {
	d, unlock := c.drv.Lock()
	defer unlock()
	return d.Write(p)
}

// Print formats like fmt.Sprint and writes the result.
func (c *Console) Print(args ...any) {
	_, _ = c.Write([]byte(fmt.Sprint(args...)))
}

// Printf formats like fmt.Sprintf and writes the result.
func (c *Console) Printf(format string, args ...any) {
	_, _ = c.Write([]byte(fmt.Sprintf(format, args...)))
}

// Println formats like fmt.Sprintln and writes the result.
func (c *Console) Println(args ...any) {
	_, _ = c.Write([]byte(fmt.Sprintln(args...)))
}

// GetByteContext reads one byte; see Driver.GetByteContext.
func (c *Console) GetByteContext(ctx context.Context) (byte, error) {
	d, unlock := c.drv.Lock()
	defer unlock()
	return d.GetByteContext(ctx)
}
