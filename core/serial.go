package core

import "strings"

// USART identifies one of the STM32F103 USART instances
type USART uint8

const (
	USART1 USART = iota + 1
	USART2
	USART3
)

// DefaultBaudRate is the console rate
const DefaultBaudRate = 115200

// Valid reports whether u names USART1, USART2 or USART3
func (u USART) Valid() bool { return u >= USART1 && u <= USART3 }

func (u USART) String() string {
	if !u.Valid() {
		return "USART?"
	}
	return "USART" + itoa(uint8(u))
}

// ParseUSART parses "usart1".."usart3" (case-insensitive)
func ParseUSART(name string) (USART, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "usart1":
		return USART1, nil
	case "usart2":
		return USART2, nil
	case "usart3":
		return USART3, nil
	}
	return 0, ErrUnknownUSART
}

func (u USART) base() uint32 {
	switch u {
	case USART2:
		return usart2Base
	case USART3:
		return usart3Base
	default:
		return usart1Base
	}
}

// SR is the status register
func (u USART) SR() Reg { return Reg(u.base() + usartSR) }

// DR is the data register
func (u USART) DR() Reg { return Reg(u.base() + usartDR) }

// BRR is the baud rate register
func (u USART) BRR() Reg { return Reg(u.base() + usartBRR) }

// CR1 is control register 1
func (u USART) CR1() Reg { return Reg(u.base() + usartCR1) }

// GTPR is the guard time and prescaler register
func (u USART) GTPR() Reg { return Reg(u.base() + usartGTPR) }

// Pins returns the default (non-remapped) TX and RX pins
func (u USART) Pins() (tx, rx Pin) {
	switch u {
	case USART2:
		return Pin{Port: PortA, Num: 2}, Pin{Port: PortA, Num: 3}
	case USART3:
		return Pin{Port: PortB, Num: 10}, Pin{Port: PortB, Num: 11}
	default:
		return Pin{Port: PortA, Num: 9}, Pin{Port: PortA, Num: 10}
	}
}

// clockEnable returns the RCC enable register and bit for the instance.
// USART1 hangs off APB2, the others off APB1.
func (u USART) clockEnable() (Reg, uint32) {
	switch u {
	case USART2:
		return RCC_APB1ENR, rccAPB1ENR_USART2EN
	case USART3:
		return RCC_APB1ENR, rccAPB1ENR_USART3EN
	default:
		return RCC_APB2ENR, rccAPB2ENR_USART1EN
	}
}

// BusClock returns the peripheral clock feeding the instance
func (u USART) BusClock(c Clocks) uint32 {
	if u == USART1 {
		return Hz(c.PCLK2)
	}
	return Hz(c.PCLK1)
}

// SerialConfig selects the instance and line settings
type SerialConfig struct {
	USART    USART
	BaudRate uint32 // DefaultBaudRate if zero
	ClockHz  uint32 // peripheral clock; default plan's bus clock if zero

	// TxSpinLimit bounds the transmit-complete wait in status polls.
	// Zero waits forever.
	TxSpinLimit uint32
}

// Serial is a polled USART console
type Serial struct {
	bus       Bus
	pins      GPIODriver
	usart     USART
	clockHz   uint32
	baud      uint32
	spinLimit uint32

	txTimeouts uint32
}

// NewSerial creates a transport on bus. Pins are configured through pins;
// a nil pins uses the registered GPIO driver.
func NewSerial(bus Bus, pins GPIODriver, cfg SerialConfig) *Serial {
	if cfg.USART == 0 {
		cfg.USART = USART1
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ClockHz == 0 {
		cfg.ClockHz = cfg.USART.BusClock(DefaultClockPlan().Clocks())
	}
	if pins == nil {
		pins = MustGPIO()
	}
	return &Serial{
		bus:       bus,
		pins:      pins,
		usart:     cfg.USART,
		clockHz:   cfg.ClockHz,
		baud:      cfg.BaudRate,
		spinLimit: cfg.TxSpinLimit,
	}
}

// USART returns the instance driven by s
func (s *Serial) USART() USART { return s.usart }

// BaudRate returns the last rate programmed or requested
func (s *Serial) BaudRate() uint32 { return s.baud }

// TxTimeouts counts writes abandoned because TC never came up
func (s *Serial) TxTimeouts() uint32 { return s.txTimeouts }

// Configure brings the USART up. The peripheral is disabled first so a
// reconfiguration never shifts out a half-changed frame.
func (s *Serial) Configure() error {
	if !s.usart.Valid() {
		return ErrUnknownUSART
	}
	div, err := ComputeBaudDivisor(s.clockHz, s.baud)
	if err != nil {
		return err
	}

	s.Disable()

	// Peripheral and AFIO clocks
	enReg, enBit := s.usart.clockEnable()
	state := disableInterrupts()
	setBits(s.bus, enReg, enBit)
	setBits(s.bus, RCC_APB2ENR, rccAPB2ENR_AFIOEN)
	restoreInterrupts(state)

	// TX and RX share one alternate function push-pull configuration
	tx, rx := s.usart.Pins()
	if err := s.pins.Configure(tx, PinAltPushPull); err != nil {
		return err
	}
	if err := s.pins.Configure(rx, PinAltPushPull); err != nil {
		return err
	}

	state = disableInterrupts()
	setBits(s.bus, s.usart.GTPR(), 1) // default prescaler
	setBits(s.bus, s.usart.CR1(), usartCR1_TE)
	setBits(s.bus, s.usart.CR1(), usartCR1_RE)
	restoreInterrupts(state)

	s.writeBRR(div)
	s.Enable()
	RecordEvent(EvtSerialUp, uint8(s.usart), s.baud, s.bus.Read(s.usart.CR1()))

	return s.WriteByte('\n')
}

// Enable sets CR1.UE
func (s *Serial) Enable() {
	state := disableInterrupts()
	setBits(s.bus, s.usart.CR1(), usartCR1_UE)
	restoreInterrupts(state)
}

// Disable clears CR1.UE
func (s *Serial) Disable() {
	state := disableInterrupts()
	clearBits(s.bus, s.usart.CR1(), usartCR1_UE)
	restoreInterrupts(state)
}

// SetBaudRate reprograms BRR. Changing it while a frame is in flight
// corrupts that frame; callers serialize with their own writes.
func (s *Serial) SetBaudRate(baud uint32) error {
	div, err := ComputeBaudDivisor(s.clockHz, baud)
	if err != nil {
		return err
	}
	s.baud = baud
	s.writeBRR(div)
	return nil
}

func (s *Serial) writeBRR(div BaudDivisor) {
	s.bus.Write(s.usart.BRR(), div.BRR())
	RecordEvent(EvtBaudChange, uint8(s.usart), s.baud, div.BRR())
}

// WriteByte loads DR and spins until the frame has left the shift register.
// With no spin limit the wait is unbounded.
func (s *Serial) WriteByte(b byte) error {
	s.bus.Write(s.usart.DR(), uint32(b))
	if s.spinLimit == 0 {
		for !hasBits(s.bus, s.usart.SR(), usartSR_TC) {
		}
		return nil
	}
	for i := uint32(0); i < s.spinLimit; i++ {
		if hasBits(s.bus, s.usart.SR(), usartSR_TC) {
			return nil
		}
	}
	s.txTimeouts++
	RecordEvent(EvtTxTimeout, uint8(s.usart), uint32(b), s.txTimeouts)
	DebugAsync(s.usart.String() + ": tx timeout")
	return ErrTxTimeout
}

// Write implements io.Writer
func (s *Serial) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := s.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Print writes the bytes of str
func (s *Serial) Print(str string) error {
	for i := 0; i < len(str); i++ {
		if err := s.WriteByte(str[i]); err != nil {
			return err
		}
	}
	return nil
}

// Println writes str followed by LF, CR
func (s *Serial) Println(str string) error {
	if err := s.Print(str); err != nil {
		return err
	}
	if err := s.WriteByte('\n'); err != nil {
		return err
	}
	return s.WriteByte('\r')
}

// Poll returns the received byte if RXNE is set and 0 otherwise. A
// received 0x00 is indistinguishable from an empty receiver; use ReadByte
// when that matters.
func (s *Serial) Poll() byte {
	b, _ := s.ReadByte()
	return b
}

// ReadByte returns the received byte, or ErrNoData when RXNE is clear
func (s *Serial) ReadByte() (byte, error) {
	if !hasBits(s.bus, s.usart.SR(), usartSR_RXNE) {
		return 0, ErrNoData
	}
	return byte(s.bus.Read(s.usart.DR())), nil
}
