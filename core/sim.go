package core

import (
	"sync"

	"golang.org/x/exp/slices"
)

// Access is one traced register operation
type Access struct {
	Write bool
	Reg   Reg
	Value uint32
}

// WriteHook decides the value stored by a write. regs is the live bank;
// hooks run with the bus lock held and may update other registers in it.
type WriteHook func(regs map[Reg]uint32, v uint32) uint32

// ReadHook decides the value returned by a read and may update the bank
type ReadHook func(regs map[Reg]uint32, v uint32) uint32

// SimBus is an in-memory register bank. Unknown registers read as zero.
// Every Read and Write is recorded in the trace; Peek and Poke are not.
type SimBus struct {
	mu      sync.Mutex
	regs    map[Reg]uint32
	trace   []Access
	onWrite map[Reg]WriteHook
	onRead  map[Reg]ReadHook
}

var _ Bus = (*SimBus)(nil)

// NewSimBus creates an empty bank
func NewSimBus() *SimBus {
	return &SimBus{
		regs:    make(map[Reg]uint32),
		onWrite: make(map[Reg]WriteHook),
		onRead:  make(map[Reg]ReadHook),
	}
}

// Read implements Bus
func (s *SimBus) Read(r Reg) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.regs[r]
	if h := s.onRead[r]; h != nil {
		v = h(s.regs, v)
	}
	s.trace = append(s.trace, Access{Reg: r, Value: v})
	return v
}

// Write implements Bus
func (s *SimBus) Write(r Reg, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trace = append(s.trace, Access{Write: true, Reg: r, Value: v})
	if h := s.onWrite[r]; h != nil {
		v = h(s.regs, v)
	}
	s.regs[r] = v
}

// Peek reads r without tracing or hooks
func (s *SimBus) Peek(r Reg) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[r]
}

// Poke sets r without tracing or hooks
func (s *SimBus) Poke(r Reg, v uint32) {
	s.mu.Lock()
	s.regs[r] = v
	s.mu.Unlock()
}

// OnWrite installs a hook for writes to r
func (s *SimBus) OnWrite(r Reg, h WriteHook) {
	s.mu.Lock()
	s.onWrite[r] = h
	s.mu.Unlock()
}

// OnRead installs a hook for reads of r
func (s *SimBus) OnRead(r Reg, h ReadHook) {
	s.mu.Lock()
	s.onRead[r] = h
	s.mu.Unlock()
}

// Trace returns a copy of the recorded accesses
func (s *SimBus) Trace() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.trace)
}

// ResetTrace drops the recorded accesses
func (s *SimBus) ResetTrace() {
	s.mu.Lock()
	s.trace = s.trace[:0]
	s.mu.Unlock()
}

// Writes returns the values written to r, in order
func (s *SimBus) Writes(r Reg) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []uint32
	for _, a := range s.trace {
		if a.Write && a.Reg == r {
			out = append(out, a.Value)
		}
	}
	return out
}

// FirstWrite returns the trace index of the first write to r whose value
// satisfies match, or -1
func (s *SimBus) FirstWrite(r Reg, match func(v uint32) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.IndexFunc(s.trace, func(a Access) bool {
		return a.Write && a.Reg == r && match(a.Value)
	})
}
