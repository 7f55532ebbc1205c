package core

// BaudDivisor is the USARTDIV value loaded into BRR: a 12-bit mantissa and
// a 4-bit fraction in sixteenths.
//
//	              f_ck
//	USARTDIV = -----------
//	           16 * baud
type BaudDivisor struct {
	Mantissa uint32
	Fraction uint32
}

// ComputeBaudDivisor derives the divisor for a peripheral clock in Hz.
// The fraction is rounded to the nearest sixteenth; a fraction that rounds
// up to 16 carries into the mantissa.
func ComputeBaudDivisor(clockHz, baud uint32) (BaudDivisor, error) {
	if clockHz == 0 || baud == 0 {
		return BaudDivisor{}, ErrInvalidBaud
	}
	// 16 * USARTDIV, rounded half up
	div16 := (uint64(clockHz) + uint64(baud)/2) / uint64(baud)
	d := BaudDivisor{
		Mantissa: uint32(div16 >> 4),
		Fraction: uint32(div16 & 0xF),
	}
	if d.Mantissa == 0 || d.Mantissa > 0xFFF {
		return BaudDivisor{}, ErrBaudOutOfRange
	}
	return d, nil
}

// BRR encodes the divisor as the register value
func (d BaudDivisor) BRR() uint32 {
	return d.Mantissa<<4 | d.Fraction
}

// Actual returns the baud rate the divisor really produces
func (d BaudDivisor) Actual(clockHz uint32) uint32 {
	return clockHz / d.BRR()
}
