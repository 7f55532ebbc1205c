// GPIO pin configuration for the STM32F1 port controller.
//
// Every port has two control registers: CRL for pins 0-7 and CRH for pins
// 8-15. Each pin owns one nibble in its control register with MODE in the
// low two bits and CNF in the high two bits. Output levels go through the
// write-only BSRR so that driving a pin never needs a read-modify-write.
package core

import "strings"

// Port identifies a GPIO bank
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
	PortF
	PortG

	numPorts
)

// Valid reports whether the port exists on the STM32F1 family
func (p Port) Valid() bool { return p < numPorts }

func (p Port) String() string {
	if !p.Valid() {
		return "?"
	}
	return string(rune('A' + p))
}

func (p Port) base() uint32 { return gpioBase + uint32(p)*gpioSpan }

// CRL is the control register for pins 0-7
func (p Port) CRL() Reg { return Reg(p.base() + gpioCRL) }

// CRH is the control register for pins 8-15
func (p Port) CRH() Reg { return Reg(p.base() + gpioCRH) }

// IDR is the input data register
func (p Port) IDR() Reg { return Reg(p.base() + gpioIDR) }

// ODR is the output data register; it also selects pull direction for
// pulled inputs
func (p Port) ODR() Reg { return Reg(p.base() + gpioODR) }

// BSRR is the write-only bit set/reset register
func (p Port) BSRR() Reg { return Reg(p.base() + gpioBSRR) }

// clockEnable returns the port's IOPxEN bit in RCC_APB2ENR
func (p Port) clockEnable() uint32 { return rccAPB2ENR_IOPAEN << p }

// Pin identifies a physical pin. It is a plain value: two Pins may name the
// same hardware pin and nothing arbitrates between them.
type Pin struct {
	Port Port
	Num  uint8 // 0-15
}

// Valid reports whether the pin exists
func (p Pin) Valid() bool { return p.Port.Valid() && p.Num < 16 }

func (p Pin) String() string {
	return "P" + p.Port.String() + itoa(p.Num)
}

// control returns the control register holding the pin's nibble and the
// nibble's bit offset within it
func (p Pin) control() (Reg, uint32) {
	n := uint32(p.Num) * 4
	if p.Num > 7 {
		return p.Port.CRH(), n - 32
	}
	return p.Port.CRL(), n
}

// ParsePin parses a board pin name such as "PC13" or "pa9"
func ParsePin(name string) (Pin, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if len(s) < 3 || len(s) > 4 || s[0] != 'P' {
		return Pin{}, ErrInvalidPin
	}
	port := Port(s[1] - 'A')
	if s[1] < 'A' || !port.Valid() {
		return Pin{}, ErrInvalidPin
	}
	num := 0
	for _, c := range s[2:] {
		if c < '0' || c > '9' {
			return Pin{}, ErrInvalidPin
		}
		num = num*10 + int(c-'0')
	}
	if len(s) == 4 && s[2] == '0' {
		return Pin{}, ErrInvalidPin
	}
	if num > 15 {
		return Pin{}, ErrInvalidPin
	}
	return Pin{Port: port, Num: uint8(num)}, nil
}

// Config is the 2-bit CNF field. Its meaning depends on whether the pin is
// an input (Mode == ModeInput) or an output.
type Config uint8

const (
	ConfigAnalogOrPushPull    Config = 0 // analog input / general purpose push-pull
	ConfigFloatingOrOpenDrain Config = 1 // floating input / general purpose open-drain
	ConfigPulledOrAltPushPull Config = 2 // pull-up/down input / alternate function push-pull
	ConfigAltOpenDrain        Config = 3 // alternate function open-drain
)

// Mode is the 2-bit MODE field: input, or output with a maximum slew rate
type Mode uint8

const (
	ModeInput       Mode = 0
	ModeOutput10MHz Mode = 1
	ModeOutput2MHz  Mode = 2
	ModeOutput50MHz Mode = 3
)

// Pull selects the resistor of a pulled input. PullNone leaves ODR alone.
type Pull uint8

const (
	PullNone Pull = iota
	PullDown
	PullUp
)

// bit is the ODR value selecting the pull direction
func (p Pull) bit() uint32 {
	if p == PullUp {
		return 1
	}
	return 0
}

// PinConfig is the electrical configuration applied by Configure
type PinConfig struct {
	Config Config
	Mode   Mode
	Pull   Pull
}

// Common configurations
var (
	PinOutputPushPull = PinConfig{Config: ConfigAnalogOrPushPull, Mode: ModeOutput10MHz}
	PinAltPushPull    = PinConfig{Config: ConfigPulledOrAltPushPull, Mode: ModeOutput50MHz}
	PinInputFloating  = PinConfig{Config: ConfigFloatingOrOpenDrain, Mode: ModeInput}
	PinInputPullUp    = PinConfig{Config: ConfigPulledOrAltPushPull, Mode: ModeInput, Pull: PullUp}
	PinInputPullDown  = PinConfig{Config: ConfigPulledOrAltPushPull, Mode: ModeInput, Pull: PullDown}
)

func (c PinConfig) valid() bool {
	return c.Config <= ConfigAltOpenDrain && c.Mode <= ModeOutput50MHz && c.Pull <= PullUp
}

// nibble encodes the pin's 4-bit control field
func (c PinConfig) nibble() uint32 {
	return uint32(c.Config)<<2 | uint32(c.Mode)
}

// GPIO drives the port controllers through a Bus
type GPIO struct {
	bus Bus
}

// NewGPIO creates a pin engine on the given register surface
func NewGPIO(bus Bus) *GPIO {
	return &GPIO{bus: bus}
}

// Configure enables the port clock and writes the pin's MODE/CNF nibble.
// The nibble is cleared and rewritten in a single read-modify-write so no
// stale bits from a previous configuration survive. For pulled inputs the
// pull direction is written to ODR; for any other Config a Pull is ignored.
func (g *GPIO) Configure(pin Pin, cfg PinConfig) error {
	if !pin.Valid() {
		return ErrInvalidPin
	}
	if !cfg.valid() {
		return ErrInvalidPinConfig
	}

	state := disableInterrupts()
	setBits(g.bus, RCC_APB2ENR, pin.Port.clockEnable())
	reg, off := pin.control()
	writeField(g.bus, reg, off, 4, cfg.nibble())
	if cfg.Config == ConfigPulledOrAltPushPull && cfg.Pull != PullNone {
		writeField(g.bus, pin.Port.ODR(), uint32(pin.Num), 1, cfg.Pull.bit())
	}
	restoreInterrupts(state)

	RecordEvent(EvtPinConfig, uint8(pin.Port), uint32(pin.Num), cfg.nibble())
	return nil
}

// Set drives a pin through BSRR: bit n sets, bit n+16 resets
func (g *GPIO) Set(pin Pin, high bool) error {
	if !pin.Valid() {
		return ErrInvalidPin
	}
	g.bus.Write(pin.Port.BSRR(), bsrrMask(pin, high))
	return nil
}

// High drives the pin high
func (g *GPIO) High(pin Pin) error { return g.Set(pin, true) }

// Low drives the pin low
func (g *GPIO) Low(pin Pin) error { return g.Set(pin, false) }

// Get reads the pin's input level from IDR
func (g *GPIO) Get(pin Pin) (bool, error) {
	if !pin.Valid() {
		return false, ErrInvalidPin
	}
	return g.bus.Read(pin.Port.IDR())&(1<<pin.Num) != 0, nil
}

// Toggle inverts the pin's output latch
func (g *GPIO) Toggle(pin Pin) error {
	if !pin.Valid() {
		return ErrInvalidPin
	}
	on := g.bus.Read(pin.Port.ODR())&(1<<pin.Num) != 0
	return g.Set(pin, !on)
}

func bsrrMask(pin Pin, high bool) uint32 {
	if high {
		return 1 << pin.Num
	}
	return 1 << (pin.Num + 16)
}
