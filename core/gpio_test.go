package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinControlRegister(t *testing.T) {
	for num := uint8(0); num < 16; num++ {
		pin := Pin{Port: PortB, Num: num}
		reg, off := pin.control()
		if num < 8 {
			assert.Equal(t, PortB.CRL(), reg, pin.String())
			assert.Equal(t, uint32(num)*4, off, pin.String())
		} else {
			assert.Equal(t, PortB.CRH(), reg, pin.String())
			assert.Equal(t, uint32(num)*4-32, off, pin.String())
		}
	}
}

func TestConfigureWritesOnlyItsNibble(t *testing.T) {
	configs := []Config{
		ConfigAnalogOrPushPull,
		ConfigFloatingOrOpenDrain,
		ConfigPulledOrAltPushPull,
		ConfigAltOpenDrain,
	}
	modes := []Mode{ModeInput, ModeOutput10MHz, ModeOutput2MHz, ModeOutput50MHz}

	for num := uint8(0); num < 16; num++ {
		for _, c := range configs {
			for _, m := range modes {
				bus := NewSimBus()
				// Stale all-ones in every nibble must not survive the write
				bus.Poke(PortA.CRL(), 0xFFFFFFFF)
				bus.Poke(PortA.CRH(), 0xFFFFFFFF)

				pin := Pin{Port: PortA, Num: num}
				require.NoError(t, NewGPIO(bus).Configure(pin, PinConfig{Config: c, Mode: m}))

				reg, off := pin.control()
				want := uint32(0xFFFFFFFF)&^(0xF<<off) | (uint32(c)<<2|uint32(m))<<off
				assert.Equal(t, want, bus.Peek(reg), "%s cnf=%d mode=%d", pin, c, m)

				other := PortA.CRH()
				if reg == PortA.CRH() {
					other = PortA.CRL()
				}
				assert.Equal(t, uint32(0xFFFFFFFF), bus.Peek(other))
				assert.Empty(t, bus.Writes(other))
			}
		}
	}
}

func TestConfigureEnablesPortClock(t *testing.T) {
	bus := NewSimBus()
	bus.Poke(RCC_APB2ENR, rccAPB2ENR_AFIOEN)
	g := NewGPIO(bus)

	require.NoError(t, g.Configure(Pin{Port: PortC, Num: 13}, PinOutputPushPull))
	assert.Equal(t, uint32(rccAPB2ENR_AFIOEN|1<<4), bus.Peek(RCC_APB2ENR))

	// Already enabled: still safe, value unchanged
	require.NoError(t, g.Configure(Pin{Port: PortC, Num: 14}, PinOutputPushPull))
	assert.Equal(t, uint32(rccAPB2ENR_AFIOEN|1<<4), bus.Peek(RCC_APB2ENR))

	require.NoError(t, g.Configure(Pin{Port: PortG, Num: 0}, PinInputFloating))
	assert.Equal(t, uint32(rccAPB2ENR_AFIOEN|1<<4|1<<8), bus.Peek(RCC_APB2ENR))
}

func TestConfigurePull(t *testing.T) {
	pin := Pin{Port: PortA, Num: 3}
	tests := []struct {
		name      string
		cfg       PinConfig
		odrBefore uint32
		odrAfter  uint32
		writesODR bool
	}{
		{"pulled up", PinInputPullUp, 0x0000, 0x0008, true},
		{"pulled down clears", PinInputPullDown, 0xFFFF, 0xFFF7, true},
		{"pulled no pull", PinConfig{Config: ConfigPulledOrAltPushPull}, 0x1234, 0x1234, false},
		{"floating pull ignored", PinConfig{Config: ConfigFloatingOrOpenDrain, Pull: PullUp}, 0x0000, 0x0000, false},
		{"floating no pull", PinInputFloating, 0x00FF, 0x00FF, false},
		{"output pull ignored", PinConfig{Config: ConfigAnalogOrPushPull, Mode: ModeOutput2MHz, Pull: PullDown}, 0xFFFF, 0xFFFF, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewSimBus()
			bus.Poke(PortA.ODR(), tt.odrBefore)
			require.NoError(t, NewGPIO(bus).Configure(pin, tt.cfg))
			assert.Equal(t, tt.odrAfter, bus.Peek(PortA.ODR()))
			assert.Equal(t, tt.writesODR, len(bus.Writes(PortA.ODR())) > 0)
		})
	}
}

func TestSetUsesBSRR(t *testing.T) {
	for num := uint8(0); num < 16; num++ {
		bus := NewSimBus()
		g := NewGPIO(bus)
		pin := Pin{Port: PortB, Num: num}

		require.NoError(t, g.High(pin))
		require.NoError(t, g.Low(pin))
		assert.Equal(t, []uint32{1 << num, 1 << (num + 16)}, bus.Writes(PortB.BSRR()))

		// Driving a level never reads anything back
		for _, a := range bus.Trace() {
			assert.True(t, a.Write)
		}
	}
}

func TestGetAndToggle(t *testing.T) {
	sim := NewF103Sim()
	g := NewGPIO(sim)
	led := Pin{Port: PortC, Num: 13}

	on, err := g.Get(led)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, g.Toggle(led))
	on, err = g.Get(led)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, g.Toggle(led))
	on, _ = g.Get(led)
	assert.False(t, on)
}

func TestInvalidPin(t *testing.T) {
	bus := NewSimBus()
	g := NewGPIO(bus)

	for _, pin := range []Pin{{Port: PortA, Num: 16}, {Port: numPorts, Num: 0}} {
		assert.ErrorIs(t, g.Configure(pin, PinOutputPushPull), ErrInvalidPin)
		assert.ErrorIs(t, g.Set(pin, true), ErrInvalidPin)
		_, err := g.Get(pin)
		assert.ErrorIs(t, err, ErrInvalidPin)
	}
	assert.ErrorIs(t, g.Configure(Pin{Port: PortA}, PinConfig{Mode: 4}), ErrInvalidPinConfig)
	assert.Empty(t, bus.Trace())
}

func TestParsePin(t *testing.T) {
	good := map[string]Pin{
		"PC13":  {Port: PortC, Num: 13},
		"pa9":   {Port: PortA, Num: 9},
		" PB0 ": {Port: PortB, Num: 0},
		"PG15":  {Port: PortG, Num: 15},
	}
	for name, want := range good {
		got, err := ParsePin(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	for _, name := range []string{"", "P", "PA", "C13", "PA16", "PH1", "PA01", "PAx", "PA123"} {
		_, err := ParsePin(name)
		assert.ErrorIs(t, err, ErrInvalidPin, name)
	}

	assert.Equal(t, "PC13", Pin{Port: PortC, Num: 13}.String())
}
