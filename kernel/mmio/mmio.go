// Package mmio provides 32-bit wide accessors for memory-mapped hardware
// registers. The compiler cannot reorder these accesses across function call
// boundaries which is enough of an ordering guarantee for the strongly
// ordered uncached mappings the kernel uses for device windows.
package mmio

import "unsafe"

// Read32 returns the value of the 32-bit register at addr.
//
//go:nosplit
func Read32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

// Write32 stores val into the 32-bit register at addr.
//
//go:nosplit
func Write32(addr uintptr, val uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = val
}
