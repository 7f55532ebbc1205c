package core

import "strings"

// DebugPort is the AFIO_MAPR SWJ_CFG setting. Releasing the JTAG pins frees
// PA15, PB3 and PB4 for general use.
type DebugPort uint8

const (
	DebugPortFull     DebugPort = 0 // full SWJ (JTAG-DP + SW-DP)
	DebugPortNoJNTRST DebugPort = 1 // full SWJ without NJTRST
	DebugPortSWD      DebugPort = 2 // JTAG-DP disabled, SW-DP enabled
	DebugPortNone     DebugPort = 4 // JTAG-DP and SW-DP disabled
)

func (d DebugPort) String() string {
	switch d {
	case DebugPortFull:
		return "full"
	case DebugPortNoJNTRST:
		return "nojntrst"
	case DebugPortSWD:
		return "swd"
	case DebugPortNone:
		return "none"
	default:
		return "?"
	}
}

// ParseDebugPort parses "full", "nojntrst", "swd" or "none"
func ParseDebugPort(name string) (DebugPort, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "full":
		return DebugPortFull, nil
	case "nojntrst":
		return DebugPortNoJNTRST, nil
	case "swd":
		return DebugPortSWD, nil
	case "none":
		return DebugPortNone, nil
	}
	return 0, ErrUnknownDebugPort
}

// SetDebugPort enables the AFIO clock and writes SWJ_CFG
func (g *GPIO) SetDebugPort(mode DebugPort) error {
	if mode.String() == "?" {
		return ErrUnknownDebugPort
	}
	state := disableInterrupts()
	setBits(g.bus, RCC_APB2ENR, rccAPB2ENR_AFIOEN)
	writeField(g.bus, AFIO_MAPR, afioMAPR_SWJ_Pos, 3, uint32(mode))
	restoreInterrupts(state)
	return nil
}
