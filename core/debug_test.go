package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRingWraps(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	for i := uint32(1); i <= EventRingSize+5; i++ {
		RecordEvent(EvtBaudChange, uint8(USART1), i, 0)
	}
	evts := Events()
	require.Len(t, evts, EventRingSize)
	assert.Equal(t, uint32(6), evts[0].Value1, "oldest survivor")
	assert.Equal(t, uint32(EventRingSize+5), evts[len(evts)-1].Seq)

	ClearEvents()
	assert.Empty(t, Events())
	_, ok := LastEvent()
	assert.False(t, ok)
}

func TestDumpEvents(t *testing.T) {
	ClearEvents()
	defer ClearEvents()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordEvent(EvtClockStep, uint8(StepPLLOn), 0, 0)
	RecordEvent(EvtPinConfig, uint8(PortC), 13, 0x1)
	RecordEvent(EvtTxTimeout, uint8(USART2), 'x', 1)
	DumpEvents()

	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "[EVENTS] CLOCK PLL_ON seq=1"))
	assert.True(t, strings.HasPrefix(lines[2], "[EVENTS] PIN PC13 seq=2"))
	assert.Equal(t, "[EVENTS] TX_TIMEOUT! USART2 seq=3 v1=0x78 v2=0x1", lines[3])
}

func TestDebugPrintlnGated(t *testing.T) {
	var got []string
	SetDebugWriter(func(s string) { got = append(got, s) })
	defer SetDebugWriter(func(string) {})

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	assert.Equal(t, []string{"shown"}, got)
	assert.False(t, IsDebugEnabled())
}

func TestDebugAsyncGated(t *testing.T) {
	got := make(chan string, 4)
	SetDebugWriter(func(s string) { got <- s })
	defer SetDebugWriter(func(string) {})
	defer SetDebugEnabled(false)
	InitAsyncDebug()
	InitAsyncDebug()

	SetDebugEnabled(false)
	DebugAsync("hidden")
	SetDebugEnabled(true)
	DebugAsync("shown")

	select {
	case msg := <-got:
		assert.Equal(t, "shown", msg)
	case <-time.After(time.Second):
		t.Fatal("queued message never written")
	}
	assert.Empty(t, got)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "-42", itoa(-42))
	assert.Equal(t, "115200", itoa(uint32(115200)))
	assert.Equal(t, "200C", hex(uint32(0x200C)))
	assert.Equal(t, "0", hex(uint8(0)))
	assert.Equal(t, "FFFFFFFF", hex(uint32(0xFFFFFFFF)))
}
