package irq

import "helios/kernel/cpu"

var (
	// interrupt flag hooks; tests swap these to fake the hardware flag.
	intsEnabledFn = cpu.InterruptsEnabled
	disableIntsFn = cpu.DisableInterrupts
	enableIntsFn  = cpu.EnableInterrupts
)

// State records whether hardware interrupts were enabled ahead of a call to
// Disable. It is the token that closes a critical section:
//
//	defer irq.Disable().Restore()
//
// The primitive does not count nesting. Pairs may nest because restoring an
// already-disabled state is a no-op, but the caller owns the pairing: calling
// Restore on a stale State that predates an outer Disable re-enables
// interrupts inside the outer section.
type State bool

// Disable clears the hardware interrupt flag and returns the previous state.
// Calling Disable with interrupts already disabled returns a State whose
// Restore does nothing.
func Disable() State {
	if !intsEnabledFn() {
		return false
	}

	disableIntsFn()
	return true
}

// Restore re-enables hardware interrupts only if they were enabled when the
// matching Disable was called. It never enables interrupts unconditionally.
func (s State) Restore() {
	if s {
		enableIntsFn()
	}
}
