package serial

import (
	"io"
	"sync"
	"time"

	"bluepill/core"
)

// SimPort connects a host tool to a USART of the simulated STM32F103.
// Writes arrive as received bytes on the simulated RX line; reads return
// what the firmware has transmitted. Something must be polling the
// firmware (App.Run) for the board side to make progress.
type SimPort struct {
	sim     *core.F103Sim
	usart   core.USART
	timeout time.Duration

	mu     sync.Mutex
	offset int
	closed bool
}

var _ Port = (*SimPort)(nil)

// NewSimPort attaches to usart of sim. Reads with nothing pending wait up
// to timeout and then return io.EOF, like a native port.
func NewSimPort(sim *core.F103Sim, usart core.USART, timeout time.Duration) *SimPort {
	return &SimPort{sim: sim, usart: usart, timeout: timeout}
}

// Read returns transmitted bytes not yet seen
func (p *SimPort) Read(b []byte) (int, error) {
	deadline := time.Now().Add(p.timeout)
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return 0, io.ErrClosedPipe
		}
		tx := p.sim.TxBytes(p.usart)
		if p.offset < len(tx) {
			n := copy(b, tx[p.offset:])
			p.offset += n
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()

		if !time.Now().Before(deadline) {
			return 0, io.EOF
		}
		time.Sleep(time.Millisecond)
	}
}

// Write queues b on the simulated RX line
func (p *SimPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.sim.InjectRx(p.usart, b...)
	return len(b), nil
}

// Flush skips everything transmitted so far
func (p *SimPort) Flush() error {
	p.mu.Lock()
	p.offset = len(p.sim.TxBytes(p.usart))
	p.mu.Unlock()
	return nil
}

// Close detaches the port
func (p *SimPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
