package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppBoot(t *testing.T) {
	sim := NewF103Sim()
	app := NewApp(sim, DefaultAppConfig())
	require.NoError(t, app.Boot())

	assert.Equal(t, SYSCLKFrequency, app.Clocks().SYSCLK)
	assert.Equal(t, uint32(2), sim.Peek(FLASH_ACR)&0x7)
	assert.Equal(t, uint32(DebugPortSWD), sim.Peek(AFIO_MAPR)>>afioMAPR_SWJ_Pos&0x7)

	// LED on PC13: general purpose push-pull, off (pin high, active low)
	assert.Equal(t, uint32(0x1), sim.Peek(PortC.CRH())>>20&0xF)
	assert.NotZero(t, sim.Peek(PortC.ODR())&(1<<13))

	assert.Equal(t,
		"\nSTM32F103C8T6 serial test in USART1\n\rUSART1_CR1: 200C\n\r",
		string(sim.TxBytes(USART1)))

	// The clock tree is up before any pin is touched
	sw := sim.FirstWrite(RCC_CFGR, func(v uint32) bool { return v&0x3 == rccCFGR_SW_PLL })
	crh := sim.FirstWrite(PortC.CRH(), func(uint32) bool { return true })
	assert.Less(t, sw, crh)
}

func TestAppBootDebugConsole(t *testing.T) {
	t.Cleanup(func() {
		SetDebugEnabled(false)
		SetDebugWriter(func(string) {})
	})

	cfg := DefaultAppConfig()
	cfg.DebugConsole = true
	sim := NewF103Sim()
	require.NoError(t, NewApp(sim, cfg).Boot())

	assert.True(t, IsDebugEnabled())
	assert.Equal(t,
		"\nSTM32F103C8T6 serial test in USART1\n\rUSART1_CR1: 200C\n\r"+
			"boot: sysclk=72000000 pclk1=36000000\n\r",
		string(sim.TxBytes(USART1)))
}

func TestAppBootInvalidPlan(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Clock.PLLMul = 12
	sim := NewF103Sim()
	assert.ErrorIs(t, NewApp(sim, cfg).Boot(), ErrInvalidPlan)
	assert.Empty(t, sim.Trace())
}

func TestAppConsoleOnUSART2(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Console = SerialConfig{USART: USART2, BaudRate: 9600}
	cfg.Banner = ""
	sim := NewF103Sim()
	require.NoError(t, NewApp(sim, cfg).Boot())

	// PCLK1 is 36MHz
	assert.Equal(t, uint32(234<<4|6), sim.Peek(USART2.BRR()))
	assert.Equal(t, "\nUSART2_CR1: 200C\n\r", string(sim.TxBytes(USART2)))
	assert.Empty(t, sim.TxBytes(USART1))
}

func TestAppPollEcho(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.HeartbeatPolls = 2
	sim := NewF103Sim()
	app := NewApp(sim, cfg)
	require.NoError(t, app.Boot())
	sim.ResetTx(USART1)

	echoed, err := app.Poll()
	require.NoError(t, err)
	assert.False(t, echoed)

	sim.InjectRx(USART1, 'o', 'k', 0x00)
	for i := 0; i < 4; i++ {
		_, err := app.Poll()
		require.NoError(t, err)
	}
	assert.Equal(t, []byte{'o', 'k', 0x00}, sim.TxBytes(USART1))
	assert.Equal(t, uint32(3), app.Echoed())

	// Five polls with a heartbeat every two: toggled twice, back to off
	assert.False(t, bool(app.LED().Level()))
}

func TestAppRunStops(t *testing.T) {
	sim := NewF103Sim()
	cfg := DefaultAppConfig()
	cfg.PollInterval = time.Microsecond
	app := NewApp(sim, cfg)
	require.NoError(t, app.Boot())
	sim.InjectRx(USART1, 'z')

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, app.Run(ctx), context.DeadlineExceeded)
	assert.Equal(t, uint32(1), app.Echoed())
}
