package core

import (
	"context"
	"time"
)

// AppConfig is everything the entry routine needs to bring the board up
type AppConfig struct {
	Clock        ClockPlan
	LED          Pin
	LEDActiveLow bool
	Console      SerialConfig
	DebugPort    DebugPort
	Banner       string

	// DebugConsole sends DebugPrintln output to the console once it is
	// configured and turns debug output on
	DebugConsole bool

	// HeartbeatPolls toggles the LED every n polls; zero leaves it alone
	HeartbeatPolls uint32
	PollInterval   time.Duration
}

// DefaultPollInterval is the pause between console polls
const DefaultPollInterval = 200 * time.Microsecond

// DefaultAppConfig is a Blue Pill: 72MHz, LED on PC13 (active low),
// console on USART1 at 115200, SWD kept and JTAG released.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Clock:        DefaultClockPlan(),
		LED:          Pin{Port: PortC, Num: 13},
		LEDActiveLow: true,
		Console:      SerialConfig{USART: USART1, BaudRate: DefaultBaudRate},
		DebugPort:    DebugPortSWD,
		Banner:       "STM32F103C8T6 serial test in " + USART1.String(),
		PollInterval: DefaultPollInterval,
	}
}

// App is the firmware entry flow: clocks, pins, console, then an echo loop
type App struct {
	bus Bus
	cfg AppConfig

	clocks  Clocks
	gpio    *GPIO
	led     *OutputPin
	console *Serial

	sched     Scheduler
	heartbeat Timer
	ledErr    error

	echoed uint32
}

// NewApp binds cfg to a register surface. Nothing is touched until Boot.
func NewApp(bus Bus, cfg AppConfig) *App {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &App{bus: bus, cfg: cfg}
}

// Boot runs the startup sequence once. The clock tree comes first; the
// console divisor is derived from the bus clock it produced.
func (a *App) Boot() error {
	clocks, err := ConfigureClock(a.bus, a.cfg.Clock)
	if err != nil {
		return err
	}
	a.clocks = clocks

	a.gpio = NewGPIO(a.bus)
	SetGPIODriver(a.gpio)

	if err := a.gpio.SetDebugPort(a.cfg.DebugPort); err != nil {
		return err
	}

	a.led, err = NewOutputPin(a.gpio, a.cfg.LED, ModeOutput10MHz, a.cfg.LEDActiveLow)
	if err != nil {
		return err
	}
	a.sched.Remove(&a.heartbeat)
	if n := a.cfg.HeartbeatPolls; n > 0 {
		a.heartbeat = Timer{WakeTime: a.sched.Now() + n, Handler: a.toggleLED}
		a.sched.Add(&a.heartbeat)
	}

	sc := a.cfg.Console
	if sc.USART == 0 {
		sc.USART = USART1
	}
	if sc.ClockHz == 0 {
		sc.ClockHz = sc.USART.BusClock(clocks)
	}
	a.console = NewSerial(a.bus, a.gpio, sc)
	if err := a.console.Configure(); err != nil {
		return err
	}
	if a.cfg.DebugConsole {
		console := a.console
		SetDebugWriter(func(s string) { _ = console.Println(s) })
		SetDebugEnabled(true)
	}

	if a.cfg.Banner != "" {
		if err := a.console.Println(a.cfg.Banner); err != nil {
			return err
		}
	}
	cr1 := a.bus.Read(sc.USART.CR1())
	if err := a.console.Println(sc.USART.String() + "_CR1: " + hex(cr1)); err != nil {
		return err
	}

	DebugPrintln("boot: sysclk=" + itoa(Hz(clocks.SYSCLK)) + " pclk1=" + itoa(Hz(clocks.PCLK1)))
	return nil
}

// Poll echoes one received byte, if any, and advances the heartbeat.
// It reports whether a byte was echoed.
func (a *App) Poll() (bool, error) {
	a.sched.Advance(1)
	if err := a.ledErr; err != nil {
		a.ledErr = nil
		return false, err
	}

	b, err := a.console.ReadByte()
	if err == ErrNoData {
		return false, nil
	}
	if err := a.console.WriteByte(b); err != nil {
		return false, err
	}
	a.echoed++
	return true, nil
}

func (a *App) toggleLED(t *Timer) uint8 {
	a.ledErr = a.led.Toggle()
	t.WakeTime += a.cfg.HeartbeatPolls
	return SF_RESCHEDULE
}

// Run polls until ctx is done, pausing PollInterval between polls.
// Transmit timeouts are counted by the console and do not stop the loop.
func (a *App) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := a.Poll(); err != nil && err != ErrTxTimeout {
			return err
		}
		time.Sleep(a.cfg.PollInterval)
	}
}

// Clocks returns the bus frequencies set up by Boot
func (a *App) Clocks() Clocks { return a.clocks }

// Console returns the serial transport, nil before Boot
func (a *App) Console() *Serial { return a.console }

// LED returns the status LED, nil before Boot
func (a *App) LED() *OutputPin { return a.led }

// Echoed counts bytes echoed back so far
func (a *App) Echoed() uint32 { return a.echoed }
