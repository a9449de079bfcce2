// Package cpu provides access to the architectural state of the processor:
// the hardware interrupt flag, port-mapped I/O and CPU identification. The
// primitives are implemented in assembly; callers that need to stub them out
// for testing should route calls through package-level function vars.
package cpu

var (
	cpuidFn = ID
)

// EnableInterrupts sets the hardware interrupt flag, allowing the local core
// to receive maskable interrupts.
func EnableInterrupts()

// DisableInterrupts clears the hardware interrupt flag. Interrupts raised
// while the flag is clear are held pending by the interrupt controller and
// re-delivered once the flag is set again.
func DisableInterrupts()

// InterruptsEnabled returns the state of the hardware interrupt flag
// (RFLAGS.IF) on the local core.
func InterruptsEnabled() bool

// Halt stops instruction execution until the next interrupt. With interrupts
// disabled this stops the core for good.
func Halt()

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortWriteWord writes a uint16 value to the requested port.
func PortWriteWord(port uint16, val uint16)

// PortWriteDword writes a uint32 value to the requested port.
func PortWriteDword(port uint16, val uint32)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

// PortReadWord reads a uint16 value from the requested port.
func PortReadWord(port uint16) uint16

// PortReadDword reads a uint32 value from the requested port.
func PortReadDword(port uint16) uint32
