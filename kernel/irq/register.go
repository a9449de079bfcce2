package irq

import "helios/kernel"

var (
	// ErrLineOutOfRange is returned when a line falls outside the
	// registrable [MinLine, MaxLine] window.
	ErrLineOutOfRange = &kernel.Error{Module: "irq", Message: "interrupt line out of range"}

	// ErrNoSuchIrq is returned when the active controller cannot translate
	// a logical IRQ to an interrupt line.
	ErrNoSuchIrq = &kernel.Error{Module: "irq", Message: "irq not served by the active controller"}

	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = &kernel.Error{Module: "irq", Message: "handler must not be nil"}

	// ErrLineBusy is returned when registering a handler on a line that
	// already has one.
	ErrLineBusy = &kernel.Error{Module: "irq", Message: "interrupt line already has a registered handler"}

	// ErrLineNotRegistered is returned when removing a handler from a line
	// that has none.
	ErrLineNotRegistered = &kernel.Error{Module: "irq", Message: "interrupt line has no registered handler"}

	// ErrReservedLine is returned when trying to remove the permanent
	// panic-line handler.
	ErrReservedLine = &kernel.Error{Module: "irq", Message: "the panic line handler cannot be removed"}
)

// Register attaches handler to the given interrupt line. A line holds at most
// one handler at any time; registering on a busy line fails with ErrLineBusy
// and leaves the existing handler in place.
func Register(line Line, handler Handler) *kernel.Error {
	if line < MinLine || line > MaxLine {
		return ErrLineOutOfRange
	}
	if handler == nil {
		return ErrNilHandler
	}

	state := Disable()
	tableLock.Acquire()

	if handlerTable[line] != nil {
		tableLock.Release()
		state.Restore()
		return ErrLineBusy
	}

	handlerTable[line] = handler

	tableLock.Release()
	state.Restore()

	return nil
}

// RegisterIRQ attaches handler to the interrupt line the active controller
// routes the logical IRQ to. The controller mask is left untouched; callers
// unmask the IRQ through SetIrqMask once they are ready to service it.
func RegisterIRQ(irq uint32, handler Handler) *kernel.Error {
	line, ok := activeController.InterruptLine(irq)
	if !ok {
		return ErrNoSuchIrq
	}

	return Register(line, handler)
}

// Remove detaches the handler registered for the given interrupt line. The
// panic-line slot is permanent and cannot be removed.
func Remove(line Line) *kernel.Error {
	if line < MinLine || line > MaxLine {
		return ErrLineOutOfRange
	}
	if line == PanicLine {
		return ErrReservedLine
	}

	state := Disable()
	tableLock.Acquire()

	if handlerTable[line] == nil {
		tableLock.Release()
		state.Restore()
		return ErrLineNotRegistered
	}

	handlerTable[line] = nil

	tableLock.Release()
	state.Restore()

	return nil
}

// RemoveIRQ detaches the handler from the line the active controller routes
// the logical IRQ to. The controller mask is left untouched; callers mask the
// IRQ before removing its handler so the line cannot fire into an empty slot.
func RemoveIRQ(irq uint32) *kernel.Error {
	line, ok := activeController.InterruptLine(irq)
	if !ok {
		return ErrNoSuchIrq
	}

	return Remove(line)
}
