package irq

import (
	"helios/kernel"
	"helios/kernel/sync"
)

// IntType is the classification assigned to a trapped line by the active
// interrupt controller.
type IntType uint8

const (
	// IntTypeRegular flags a genuine interrupt that must be dispatched.
	IntTypeRegular IntType = iota

	// IntTypeSpurious flags a hardware artifact that must be absorbed
	// without running any handler.
	IntTypeSpurious
)

// Controller is the capability contract every interrupt controller driver
// must satisfy to act as the system's IRQ routing authority. The dispatcher
// and the IRQ-based registration calls only ever reach hardware through this
// interface.
type Controller interface {
	// SetIrqMask enables or disables delivery of the logical IRQ. The IRQ
	// must resolve through this controller's translation; presenting an
	// unknown IRQ is a wiring defect and results in a kernel panic.
	SetIrqMask(irq uint32, enabled bool)

	// SetIrqEOI acknowledges completion of servicing the IRQ so the
	// controller may deliver further interrupts on its line. It must be
	// called exactly once per serviced interrupt, after the handler ran.
	SetIrqEOI(irq uint32)

	// HandleSpurious classifies the trapped line. A Spurious classification
	// also performs whatever acknowledgement the hardware needs to keep
	// the line usable (e.g. an upstream EOI on a cascaded pair).
	HandleSpurious(line Line) IntType

	// InterruptLine translates a logical IRQ to the CPU line it is routed
	// to. The second return value is false if this controller does not
	// serve the IRQ.
	InterruptLine(irq uint32) (Line, bool)
}

// nullController takes the place of the active controller until a real driver
// registers itself. It accepts no IRQs and classifies every line as regular,
// so a stray early interrupt escalates instead of being absorbed silently.
type nullController struct{}

func (nullController) SetIrqMask(_ uint32, _ bool)         {}
func (nullController) SetIrqEOI(_ uint32)                  {}
func (nullController) HandleSpurious(_ Line) IntType       { return IntTypeRegular }
func (nullController) InterruptLine(_ uint32) (Line, bool) { return 0, false }

var (
	// ErrNilController is returned when registering a nil controller.
	ErrNilController = &kernel.Error{Module: "irq", Message: "controller must not be nil"}

	// ErrControllerAlreadySet is returned on any attempt to register a
	// second active controller. Controller selection is a one-time boot
	// decision, never a runtime reconfiguration.
	ErrControllerAlreadySet = &kernel.Error{Module: "irq", Message: "only one interrupt controller can be active"}

	controllerLock   sync.Spinlock
	activeController Controller = nullController{}
)

// SetController installs c as the active IRQ routing authority. Exactly one
// controller can ever be installed; the first registration wins and every
// later attempt fails with ErrControllerAlreadySet. Boot code treats that
// error as fatal since it indicates two drivers claiming the same hardware
// role.
func SetController(c Controller) *kernel.Error {
	if c == nil {
		return ErrNilController
	}

	state := Disable()
	controllerLock.Acquire()

	if _, isNull := activeController.(nullController); !isNull {
		controllerLock.Release()
		state.Restore()
		return ErrControllerAlreadySet
	}

	activeController = c

	controllerLock.Release()
	state.Restore()

	return nil
}

// ActiveController returns the currently installed controller. Before a
// driver registers one, the returned controller accepts no IRQs.
func ActiveController() Controller {
	return activeController
}

// SetIrqMask enables or disables delivery of a logical IRQ through the active
// controller.
func SetIrqMask(irq uint32, enabled bool) {
	activeController.SetIrqMask(irq, enabled)
}

// SetIrqEOI signals end-of-interrupt for a logical IRQ through the active
// controller.
func SetIrqEOI(irq uint32) {
	activeController.SetIrqEOI(irq)
}
