// Package console talks to the firmware's serial console from a PC: it
// splits the output into lines, waits for the boot banner and runs echo
// checks against the firmware's echo loop.
package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"bluepill/host/serial"
)

var (
	ErrClosed       = errors.New("console closed")
	ErrEchoMismatch = errors.New("echo mismatch")
	ErrBadCR1Line   = errors.New("malformed CR1 line")
)

// Banner is what the firmware prints after boot
type Banner struct {
	Text  string
	USART string // e.g. "USART1"
	CR1   uint32
}

// Console reads the port in the background so reads can honour a context.
// Reads are meant to come from a single goroutine.
type Console struct {
	port serial.Port

	rx   chan byte
	done chan struct{}

	mu      sync.Mutex
	readErr error
	once    sync.Once

	// set after a line ended on LF: a CR right behind it belongs to the
	// same terminator
	afterLF bool
}

// New starts reading port
func New(port serial.Port) *Console {
	c := &Console{
		port: port,
		rx:   make(chan byte, 256),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Console) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := c.port.Read(buf)
		for _, b := range buf[:n] {
			select {
			case c.rx <- b:
			case <-c.done:
				return
			}
		}
		if err == nil || err == io.EOF {
			// EOF is a read timeout on a serial line
			select {
			case <-c.done:
				return
			default:
			}
			continue
		}
		c.mu.Lock()
		c.readErr = err
		c.mu.Unlock()
		close(c.rx)
		return
	}
}

// ReadByte waits for one byte from the board. The CR of an LF CR line
// end already consumed by ReadLine is skipped.
func (c *Console) ReadByte(ctx context.Context) (byte, error) {
	for {
		b, err := c.next(ctx)
		if err != nil {
			return 0, err
		}
		afterLF := c.afterLF
		c.afterLF = false
		if afterLF && b == '\r' {
			continue
		}
		return b, nil
	}
}

func (c *Console) next(ctx context.Context) (byte, error) {
	select {
	case b, ok := <-c.rx:
		if !ok {
			return 0, c.err()
		}
		return b, nil
	case <-c.done:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c *Console) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return c.readErr
	}
	return ErrClosed
}

// ReadLine returns the next non-empty line. The firmware ends lines with
// LF CR, so both are treated as terminators.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	var line bytes.Buffer
	for {
		b, err := c.ReadByte(ctx)
		if err != nil {
			return "", err
		}
		if b == '\n' || b == '\r' {
			c.afterLF = b == '\n'
			if line.Len() > 0 {
				return line.String(), nil
			}
			continue
		}
		line.WriteByte(b)
	}
}

// WaitBanner skips output until want is printed and returns it with the
// CR1 line that follows. An empty want accepts the first line.
func (c *Console) WaitBanner(ctx context.Context, want string) (Banner, error) {
	for {
		line, err := c.ReadLine(ctx)
		if err != nil {
			return Banner{}, err
		}
		if want != "" && line != want {
			continue
		}
		next, err := c.ReadLine(ctx)
		if err != nil {
			return Banner{}, err
		}
		usart, cr1, err := ParseCR1Line(next)
		if err != nil {
			return Banner{}, err
		}
		return Banner{Text: line, USART: usart, CR1: cr1}, nil
	}
}

// ParseCR1Line parses "USART1_CR1: 200C"
func ParseCR1Line(line string) (string, uint32, error) {
	name, value, ok := strings.Cut(line, "_CR1: ")
	if !ok || !strings.HasPrefix(name, "USART") {
		return "", 0, fmt.Errorf("%w: %q", ErrBadCR1Line, line)
	}
	v, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrBadCR1Line, line)
	}
	return name, uint32(v), nil
}

// Echo writes payload and expects the same bytes back. Output already
// buffered from earlier lines is discarded first.
func (c *Console) Echo(ctx context.Context, payload []byte) error {
	c.drain()
	if _, err := c.port.Write(payload); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	got := make([]byte, 0, len(payload))
	for len(got) < len(payload) {
		b, err := c.ReadByte(ctx)
		if err != nil {
			return fmt.Errorf("after %d of %d bytes: %w", len(got), len(payload), err)
		}
		got = append(got, b)
	}
	if !bytes.Equal(got, payload) {
		return fmt.Errorf("%w: sent %q, got %q", ErrEchoMismatch, payload, got)
	}
	return nil
}

// drain drops whatever the reader has queued without waiting for more
func (c *Console) drain() {
	for {
		select {
		case _, ok := <-c.rx:
			if !ok {
				return
			}
			c.afterLF = false
		default:
			return
		}
	}
}

// Write sends raw bytes to the board
func (c *Console) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

// Close stops the reader and closes the port
func (c *Console) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.port.Close()
	})
	return err
}
