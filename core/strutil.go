package core

import "golang.org/x/exp/constraints"

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa[T constraints.Integer](n T) string {
	if n < 0 {
		return "-" + formatUint(uint64(-int64(n)), 10)
	}
	return formatUint(uint64(n), 10)
}

// hex formats n in upper-case hexadecimal without a prefix
func hex[T constraints.Unsigned](n T) string {
	return formatUint(uint64(n), 16)
}

const digits = "0123456789ABCDEF"

func formatUint(n uint64, base uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = digits[n%base]
		n /= base
	}
	return string(buf[pos:])
}
