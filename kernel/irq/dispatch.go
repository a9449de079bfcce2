package irq

import (
	"sync/atomic"

	"helios/kernel"
	"helios/kernel/kfmt"
	"helios/kernel/sync"
)

// Handler is a callback registered for an interrupt line. Handlers run on the
// core that took the trap, as a continuation of it: they must not block,
// sleep or wait on anything the scheduler hands out.
type Handler func(*Context)

var (
	errUnhandledInterrupt = &kernel.Error{Module: "irq", Message: "unhandled interrupt with no registered handler"}

	// handlerTable maps each line to its registered handler. Slots are
	// mutated under tableLock; the dispatch path reads a slot with a
	// single bounded array access and takes no lock.
	handlerTable [numLines]Handler

	tableLock sync.Spinlock

	// spuriousCount tracks the spurious interrupts absorbed since boot.
	spuriousCount uint64

	// panicFn is the escalation path into the panic subsystem. Swapped by
	// tests; kfmt.Panic never returns.
	panicFn = kfmt.Panic
)

// Init resets the interrupt manager: all handler slots are cleared, the
// panic-line slot gets its permanent handler and interrupt delivery is left
// disabled until the boot sequence explicitly enables it.
func Init() {
	Disable()

	tableLock.Acquire()
	for i := range handlerTable {
		handlerTable[i] = nil
	}
	handlerTable[PanicLine] = panicHandler
	tableLock.Release()

	atomic.StoreUint64(&spuriousCount, 0)
	activeController = nullController{}
}

// Dispatch is the single entry point invoked by the trap layer for every
// hardware interrupt. It decides, in order, whether the trap must be ignored
// (it fired while software had interrupts masked), escalated (panic line),
// absorbed (spurious) or serviced by the registered handler. An in-range
// interrupt with no registered handler is a fatal kernel defect.
func Dispatch(ctx *Context) {
	line := ctx.Line

	// A general-range interrupt that fired while interrupts were disabled
	// in software must not be serviced re-entrantly. The controller keeps
	// it pending and re-raises it once interrupts are enabled again, so it
	// is dropped here with no further action.
	if !ctx.IntsEnabled() && line != PanicLine && line >= MinLine {
		return
	}

	if line == PanicLine {
		panicHandler(ctx)
		return
	}

	if activeController.HandleSpurious(line) == IntTypeSpurious {
		atomic.AddUint64(&spuriousCount, 1)
		return
	}

	var handler Handler
	if line < numLines {
		handler = handlerTable[line]
	}

	if handler == nil {
		handler = panicHandler
	}

	handler(ctx)
}

// SpuriousCount returns the number of spurious interrupts absorbed since the
// interrupt manager was initialized.
func SpuriousCount() uint64 {
	return atomic.LoadUint64(&spuriousCount)
}

// panicHandler serves the reserved panic line and every unregistered line. It
// dumps the saved context and hands off to the panic subsystem; it never
// returns.
func panicHandler(ctx *Context) {
	ctx.Print()
	panicFn(errUnhandledInterrupt)
}
