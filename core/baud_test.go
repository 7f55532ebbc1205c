package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaudDivisor(t *testing.T) {
	tests := []struct {
		clock    uint32
		baud     uint32
		mantissa uint32
		fraction uint32
	}{
		{72000000, 115200, 39, 1}, // 39.0625
		{36000000, 115200, 19, 9}, // 19.53
		{72000000, 9600, 468, 12}, // 468.75
		{36000000, 9600, 234, 6},  // 234.375
		{8000000, 115200, 4, 5},   // 4.34
		{72000000, 4500000, 1, 0},
	}
	for _, tt := range tests {
		d, err := ComputeBaudDivisor(tt.clock, tt.baud)
		require.NoError(t, err)
		assert.Equal(t, tt.mantissa, d.Mantissa, "%d/%d", tt.clock, tt.baud)
		assert.Equal(t, tt.fraction, d.Fraction, "%d/%d", tt.clock, tt.baud)
	}
}

func TestBaudDivisorConsoleRate(t *testing.T) {
	d, err := ComputeBaudDivisor(72000000, 115200)
	require.NoError(t, err)
	assert.Equal(t, BaudDivisor{Mantissa: 39, Fraction: 1}, d)
	assert.Equal(t, uint32(0x271), d.BRR())
	assert.Equal(t, uint32(115200), d.Actual(72000000))

	again, err := ComputeBaudDivisor(72000000, 115200)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestBaudDivisorCarry(t *testing.T) {
	// USARTDIV = 3199 / (16*100) = 1.9994. Rounding the fraction on its own
	// gives 16/16, which must carry: mantissa 2, fraction 0.
	d, err := ComputeBaudDivisor(3199, 100)
	require.NoError(t, err)
	assert.Equal(t, BaudDivisor{Mantissa: 2, Fraction: 0}, d)

	// 253.97 sixteenths rounds to 254 with no carry
	d, err = ComputeBaudDivisor(16000000, 63000)
	require.NoError(t, err)
	assert.Equal(t, BaudDivisor{Mantissa: 15, Fraction: 14}, d)
}

func TestBaudDivisorErrors(t *testing.T) {
	_, err := ComputeBaudDivisor(72000000, 0)
	assert.ErrorIs(t, err, ErrInvalidBaud)

	_, err = ComputeBaudDivisor(0, 115200)
	assert.ErrorIs(t, err, ErrInvalidBaud)

	// Faster than clock/16
	_, err = ComputeBaudDivisor(72000000, 5000000)
	assert.ErrorIs(t, err, ErrBaudOutOfRange)

	// Mantissa above 12 bits
	_, err = ComputeBaudDivisor(72000000, 1000)
	assert.ErrorIs(t, err, ErrBaudOutOfRange)
}
