//go:build tinygo

package core

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the on-chip register surface: every Reg is a memory-mapped
// peripheral address accessed with volatile loads and stores.
type MMIO struct{}

// Read loads the register at r
func (MMIO) Read(r Reg) uint32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(r))).Get()
}

// Write stores v to the register at r
func (MMIO) Write(r Reg, v uint32) {
	(*volatile.Register32)(unsafe.Pointer(uintptr(r))).Set(v)
}
