package core

import "sync"

// F103Sim is a SimBus with just enough STM32F103 behaviour for the
// firmware to run off-chip: oscillator and PLL ready flags follow their
// enables, SWS follows SW, BSRR updates ODR, IDR reads back ODR, and the
// USARTs complete transmission immediately and deliver injected bytes.
type F103Sim struct {
	*SimBus

	mu    sync.Mutex
	tx    map[USART][]byte
	rx    map[USART][]byte
	stall map[USART]bool
}

// NewF103Sim creates a simulator in reset state
func NewF103Sim() *F103Sim {
	f := &F103Sim{
		SimBus: NewSimBus(),
		tx:     make(map[USART][]byte),
		rx:     make(map[USART][]byte),
		stall:  make(map[USART]bool),
	}
	f.reset()
	return f
}

func (f *F103Sim) reset() {
	// HSI on and ready out of reset
	f.Poke(RCC_CR, rccCR_HSION|rccCR_HSIRDY)

	f.OnWrite(RCC_CR, func(_ map[Reg]uint32, v uint32) uint32 {
		v &^= rccCR_HSIRDY | rccCR_HSERDY | rccCR_PLLRDY
		if v&rccCR_HSION != 0 {
			v |= rccCR_HSIRDY
		}
		if v&rccCR_HSEON != 0 {
			v |= rccCR_HSERDY
		}
		if v&rccCR_PLLON != 0 {
			v |= rccCR_PLLRDY
		}
		return v
	})
	f.OnWrite(RCC_CFGR, func(_ map[Reg]uint32, v uint32) uint32 {
		sw := (v >> rccCFGR_SW_Pos) & 3
		return (v &^ fieldMask(rccCFGR_SWS_Pos, 2)) | sw<<rccCFGR_SWS_Pos
	})

	for p := PortA; p < numPorts; p++ {
		port := p
		f.OnWrite(port.BSRR(), func(regs map[Reg]uint32, v uint32) uint32 {
			odr := regs[port.ODR()]
			set, reset := v&0xFFFF, v>>16
			odr &^= reset &^ set // set wins over reset
			odr |= set
			regs[port.ODR()] = odr
			return 0
		})
		f.OnRead(port.IDR(), func(regs map[Reg]uint32, _ uint32) uint32 {
			return regs[port.ODR()] & 0xFFFF
		})
	}

	for u := USART1; u <= USART3; u++ {
		usart := u
		f.Poke(usart.SR(), usartSR_TC|usartSR_TXE)
		f.OnWrite(usart.DR(), func(regs map[Reg]uint32, v uint32) uint32 {
			f.mu.Lock()
			defer f.mu.Unlock()
			sr := regs[usart.SR()]
			if f.stall[usart] {
				sr &^= usartSR_TC | usartSR_TXE
			} else {
				f.tx[usart] = append(f.tx[usart], byte(v))
				sr |= usartSR_TC | usartSR_TXE
			}
			regs[usart.SR()] = sr
			return v & 0x1FF
		})
		f.OnRead(usart.SR(), func(_ map[Reg]uint32, v uint32) uint32 {
			f.mu.Lock()
			defer f.mu.Unlock()
			if len(f.rx[usart]) > 0 {
				return v | usartSR_RXNE
			}
			return v &^ usartSR_RXNE
		})
		f.OnRead(usart.DR(), func(_ map[Reg]uint32, v uint32) uint32 {
			f.mu.Lock()
			defer f.mu.Unlock()
			q := f.rx[usart]
			if len(q) == 0 {
				return v
			}
			f.rx[usart] = q[1:]
			return uint32(q[0])
		})
	}
}

// InjectRx queues bytes as if they had arrived on u's RX line
func (f *F103Sim) InjectRx(u USART, data ...byte) {
	f.mu.Lock()
	f.rx[u] = append(f.rx[u], data...)
	f.mu.Unlock()
}

// TxBytes returns everything u has transmitted so far
func (f *F103Sim) TxBytes(u USART) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.tx[u]...)
}

// ResetTx forgets the transmit log of u
func (f *F103Sim) ResetTx(u USART) {
	f.mu.Lock()
	f.tx[u] = nil
	f.mu.Unlock()
}

// StallTx makes u hold TC low from the next DR write on, so a bounded
// transmit wait runs out. Clearing it releases the line.
func (f *F103Sim) StallTx(u USART, stalled bool) {
	f.mu.Lock()
	f.stall[u] = stalled
	f.mu.Unlock()
	if !stalled {
		f.Poke(u.SR(), f.Peek(u.SR())|usartSR_TC|usartSR_TXE)
	}
}
