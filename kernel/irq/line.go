// Package irq implements the kernel's interrupt management core: the
// interrupt line space, the controller capability contract, the shared
// handler table and the dispatcher invoked by the trap layer on every
// hardware interrupt.
package irq

// Line identifies a CPU trap vector. Interrupt controllers translate logical
// device IRQ numbers into Line values; the dispatcher only ever sees lines.
type Line uint16

const (
	// numLines defines the number of vectors in the IDT.
	numLines = 256

	// MinLine is the lowest line that can be individually registered;
	// everything below it belongs to the CPU exception range.
	MinLine Line = 0x20

	// MaxLine is the highest registrable line.
	MaxLine Line = numLines - 1

	// PanicLine is the reserved line used to funnel a panic through the
	// interrupt path. Its handler-table slot is installed at init time and
	// can never be removed.
	PanicLine Line = 0x20

	// SpuriousLine is the vector programmed into the local controller's
	// spurious vector register.
	SpuriousLine Line = MaxLine
)
