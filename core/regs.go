package core

// Reg is the absolute address of a 32-bit peripheral register.
type Reg uint32

// Bus is the register access surface the core drives.
// Implementations only need single-register atomic reads and writes;
// read-modify-write sequences are serialized by the caller.
type Bus interface {
	Read(r Reg) uint32
	Write(r Reg, v uint32)
}

// setBits ORs mask into r.
func setBits(b Bus, r Reg, mask uint32) {
	b.Write(r, b.Read(r)|mask)
}

// clearBits clears mask in r.
func clearBits(b Bus, r Reg, mask uint32) {
	b.Write(r, b.Read(r)&^mask)
}

// hasBits reports whether every bit of mask is set in r.
func hasBits(b Bus, r Reg, mask uint32) bool {
	return b.Read(r)&mask == mask
}

// writeField replaces the width-bit field at pos with val in one
// read-modify-write.
func writeField(b Bus, r Reg, pos, width, val uint32) {
	mask := fieldMask(pos, width)
	b.Write(r, (b.Read(r)&^mask)|((val<<pos)&mask))
}

// readField extracts the width-bit field at pos.
func readField(b Bus, r Reg, pos, width uint32) uint32 {
	return (b.Read(r) & fieldMask(pos, width)) >> pos
}

func fieldMask(pos, width uint32) uint32 {
	return ((1 << width) - 1) << pos
}
