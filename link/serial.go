package link

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Conn sends instruction frames to the controller board and streams
// its notifications back. The transport is an io.ReadWriter so tests
// run over an in-memory pipe; Open wires a real serial port.
type Conn struct {
	mu sync.Mutex
	rw io.ReadWriter

	closer io.Closer
}

// Open connects to the board with 8N1 framing at the given baud rate.
func Open(port string, baud int) (*Conn, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("link: opening %s: %w", port, err)
	}
	if err := p.SetReadTimeout(500 * time.Millisecond); err != nil {
		p.Close()
		return nil, fmt.Errorf("link: setting read timeout: %w", err)
	}
	log.Printf("[link] connected to %s at %d baud", port, baud)
	return &Conn{rw: p, closer: p}, nil
}

// NewConn wraps an existing transport (a pipe in tests).
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// Close releases the underlying port, if any.
func (c *Conn) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Send writes one instruction frame.
func (c *Conn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.rw.Write(frame); err != nil {
		return fmt.Errorf("link: write failed: %w", err)
	}
	return nil
}

// Notifications reads the line byte by byte and hands each decoded
// notification to fn until the context is canceled or the transport
// fails. Serial read timeouts surface as zero-byte reads and are
// retried.
func (c *Conn) Notifications(ctx context.Context, fn func(Notification)) error {
	buf := make([]byte, 1)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := c.rw.Read(buf)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("link: read failed: %w", err)
		}
		if n == 0 {
			continue
		}
		fn(DecodeNotification(buf[0]))
	}
}
