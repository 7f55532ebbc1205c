//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// critical stands in for interrupt masking on regular Go builds so that
// host tools and tests sharing a Bus across goroutines keep register
// read-modify-write sequences whole.
var critical sync.Mutex

// disableInterrupts enters the critical section. Not reentrant.
func disableInterrupts() State {
	critical.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	critical.Unlock()
}
