package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a configuration step for post-mortem analysis. When the
// firmware hangs in a spin-wait, the last entry names the step it is stuck on.
type Event struct {
	Type   uint8  // Event type code
	ID     uint8  // Port, USART or clock step
	Seq    uint32 // Monotonic sequence number
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtClockStep  = 1 // clock sequencer step entered
	EvtClockDone  = 2 // system clock switched
	EvtPinConfig  = 3 // pin nibble written
	EvtBaudChange = 4 // BRR rewritten
	EvtTxTimeout  = 5 // TC never set within the spin limit
	EvtSerialUp   = 6 // USART enabled
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// Diagnostics are off until SetDebugEnabled(true); the writer is set by
	// whoever owns an output (the console on target, stdout on the host)
	debugMu      sync.Mutex
	debugWriter  DebugWriter
	debugEnabled bool
	debugChan    chan string

	// Event ring buffer
	eventMu       sync.Mutex
	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventSeq      uint32
)

// SetDebugWriter sets where debug output goes; nil discards it
func SetDebugWriter(writer DebugWriter) {
	debugMu.Lock()
	debugWriter = writer
	debugMu.Unlock()
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugMu.Lock()
	debugEnabled = enabled
	debugMu.Unlock()
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	debugMu.Lock()
	defer debugMu.Unlock()
	return debugEnabled
}

// activeWriter returns the writer if output is enabled, nil otherwise
func activeWriter() DebugWriter {
	debugMu.Lock()
	defer debugMu.Unlock()
	if !debugEnabled {
		return nil
	}
	return debugWriter
}

// InitAsyncDebug starts the worker behind DebugAsync. Later calls are
// no-ops.
func InitAsyncDebug() {
	debugMu.Lock()
	defer debugMu.Unlock()
	if debugChan != nil {
		return
	}
	debugChan = make(chan string, 16)
	go debugOutputWorker(debugChan)
}

func debugOutputWorker(msgs <-chan string) {
	for msg := range msgs {
		DebugPrintln(msg)
	}
}

// DebugPrintln writes msg if debug output is enabled
func DebugPrintln(msg string) {
	if w := activeWriter(); w != nil {
		w(msg)
	}
}

// DebugAsync queues msg for the async worker without blocking. It is for
// paths that must not stall on a slow writer, such as the transmit loop
// reporting its own timeout. The message is dropped if debug output is
// off, the worker is not running or its queue is full.
func DebugAsync(msg string) {
	debugMu.Lock()
	ch, enabled := debugChan, debugEnabled
	debugMu.Unlock()
	if ch == nil || !enabled {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

// RecordEvent appends an event to the ring buffer
func RecordEvent(eventType, id uint8, value1, value2 uint32) {
	eventMu.Lock()
	eventSeq++
	eventRing[eventRingHead] = Event{
		Type:   eventType,
		ID:     id,
		Seq:    eventSeq,
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (eventRingHead + 1) % EventRingSize
	eventMu.Unlock()
}

// Events returns the recorded events, oldest first
func Events() []Event {
	eventMu.Lock()
	defer eventMu.Unlock()

	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// LastEvent returns the most recent event, if any
func LastEvent() (Event, bool) {
	evts := Events()
	if len(evts) == 0 {
		return Event{}, false
	}
	return evts[len(evts)-1], true
}

// DumpEvents writes the event ring through the debug writer, whether or
// not debug output is enabled
func DumpEvents() {
	debugMu.Lock()
	w := debugWriter
	debugMu.Unlock()
	if w == nil {
		return
	}

	w("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		w("[EVENTS] " + eventName(evt) +
			" seq=" + itoa(evt.Seq) +
			" v1=0x" + hex(evt.Value1) +
			" v2=0x" + hex(evt.Value2))
	}
	w("[EVENTS] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	eventMu.Lock()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	eventSeq = 0
	eventMu.Unlock()
}

func eventName(evt Event) string {
	switch evt.Type {
	case EvtClockStep:
		return "CLOCK " + ClockStep(evt.ID).String()
	case EvtClockDone:
		return "CLOCK_DONE"
	case EvtPinConfig:
		return "PIN P" + Port(evt.ID).String() + itoa(evt.Value1)
	case EvtBaudChange:
		return "BAUD " + USART(evt.ID).String()
	case EvtTxTimeout:
		return "TX_TIMEOUT! " + USART(evt.ID).String()
	case EvtSerialUp:
		return "SERIAL_UP " + USART(evt.ID).String()
	default:
		return "UNKNOWN"
	}
}
