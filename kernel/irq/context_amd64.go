package irq

import "helios/kernel/kfmt"

// Regs contains a snapshot of the register values when an interrupt occurred.
type Regs struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64
}

// Print outputs a dump of the register values to the active console.
func (r *Regs) Print() {
	kfmt.Printf("RAX = %16x RBX = %16x\n", r.RAX, r.RBX)
	kfmt.Printf("RCX = %16x RDX = %16x\n", r.RCX, r.RDX)
	kfmt.Printf("RSI = %16x RDI = %16x\n", r.RSI, r.RDI)
	kfmt.Printf("RBP = %16x\n", r.RBP)
	kfmt.Printf("R8  = %16x R9  = %16x\n", r.R8, r.R9)
	kfmt.Printf("R10 = %16x R11 = %16x\n", r.R10, r.R11)
	kfmt.Printf("R12 = %16x R13 = %16x\n", r.R12, r.R13)
	kfmt.Printf("R14 = %16x R15 = %16x\n", r.R14, r.R15)
}

// Frame describes the stack frame that is automatically pushed by the CPU
// when an interrupt occurs.
type Frame struct {
	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// Print outputs a dump of the frame to the active console.
func (f *Frame) Print() {
	kfmt.Printf("RIP = %16x CS  = %16x\n", f.RIP, f.CS)
	kfmt.Printf("RSP = %16x SS  = %16x\n", f.RSP, f.SS)
	kfmt.Printf("RFL = %16x\n", f.RFlags)
}

// rflagsIF is the interrupt-enable bit of the saved RFLAGS value.
const rflagsIF = 1 << 9

// Context carries the saved execution state handed to the dispatcher by the
// trap entry code. The trap layer owns the memory backing Frame and Regs; a
// handler must not retain pointers into it past its own return.
type Context struct {
	// Line holds the trapped vector number.
	Line Line

	// Frame and Regs point into the state saved by the trap entry stub.
	// Modifications are propagated back when the trap returns.
	Frame *Frame
	Regs  *Regs
}

// IntsEnabled reports whether hardware interrupts were enabled at the moment
// the trap was taken, as recorded in the saved RFLAGS value.
func (c *Context) IntsEnabled() bool {
	return c.Frame.RFlags&rflagsIF != 0
}

// Print outputs a dump of the full saved context to the active console.
func (c *Context) Print() {
	kfmt.Printf("interrupt line %d\n", uint16(c.Line))
	c.Frame.Print()
	c.Regs.Print()
}
