package sim

import (
	"errors"
	"sync"

	"github.com/calvinmclean/speedctl"
)

// ErrEmpty is returned by Console.ReadByte when nothing is queued
var ErrEmpty = errors.New("no input")

// Buttons latches presses from other goroutines until the control loop reads them. A latched button
// reads as pressed once.
type Buttons struct {
	mu      sync.Mutex
	latched map[speedctl.Button]bool
}

// NewButtons creates Buttons with nothing pressed
func NewButtons() *Buttons {
	return &Buttons{latched: map[speedctl.Button]bool{}}
}

// Press latches b
func (b *Buttons) Press(button speedctl.Button) {
	if button == speedctl.ButtonNone {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.latched[button] = true
}

// IsPressed reports and clears the latch for button
func (b *Buttons) IsPressed(button speedctl.Button) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	pressed := b.latched[button]
	delete(b.latched, button)
	return pressed
}

// Console is a byte queue standing in for the serial receive buffer
type Console struct {
	mu  sync.Mutex
	buf []byte
}

// NewConsole creates an empty Console
func NewConsole() *Console {
	return &Console{}
}

// Write queues p
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = append(c.buf, p...)
	return len(p), nil
}

// Send queues line followed by a newline
func (c *Console) Send(line string) {
	_, _ = c.Write([]byte(line + "\n"))
}

// ReadByte dequeues a single byte or returns ErrEmpty
func (c *Console) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buf) == 0 {
		return 0, ErrEmpty
	}

	b := c.buf[0]
	c.buf = c.buf[1:]
	return b, nil
}

// Buffered is the number of queued bytes
func (c *Console) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}
