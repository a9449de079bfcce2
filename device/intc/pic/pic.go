// Package pic implements a driver for the legacy 8259 programmable interrupt
// controller pair. The driver always remaps and masks the controllers so the
// legacy hardware stays silent; it claims the IRQ routing role only on
// machines that do not advertise an I/O APIC.
package pic

import (
	"io"

	"helios/device"
	"helios/device/acpi/table"
	"helios/kernel"
	"helios/kernel/cpu"
	"helios/kernel/irq"
	"helios/kernel/kfmt"
	"helios/kernel/sync"
)

const (
	masterCommandPort uint16 = 0x20
	masterDataPort    uint16 = 0x21
	slaveCommandPort  uint16 = 0xa0
	slaveDataPort     uint16 = 0xa1

	// cmdEOI signals end-of-interrupt when written to a command port.
	cmdEOI = 0x20

	// cmdReadISR selects the in-service register for the next read from a
	// command port.
	cmdReadISR = 0x0b

	icw1Init     = 0x10
	icw1NeedICW4 = 0x01
	icw4Mode8086 = 0x01

	// cascadeIRQ is the master IRQ the slave controller is chained to.
	cascadeIRQ = 2

	maxIRQ = 15

	// The last IRQ of each controller can be raised spuriously. A genuine
	// interrupt sets the matching in-service bit; a spurious one does not.
	spuriousIRQMaster = 7
	spuriousIRQSlave  = 15
	spuriousISRBit    = 0x80

	// defaultLineOffset is the line the lowest IRQ is remapped to. The
	// power-on offset overlaps the CPU exception range and must never be
	// kept.
	defaultLineOffset = 0x30
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
	setControllerFn = irq.SetController
	irqDisableFn    = irq.Disable

	errNoSuchIRQ = &kernel.Error{Module: "pic", Message: "IRQ not serviced by the PIC"}

	panicFn = kfmt.Panic
)

type picDriver struct {
	// offset is the interrupt line the lowest IRQ is remapped to. The
	// slave controller's IRQs follow at offset+8.
	offset irq.Line

	lock sync.Spinlock
}

// DriverInit remaps both controllers to the configured line offset and masks
// every IRQ. On machines without an I/O APIC the driver then registers itself
// as the active interrupt controller.
func (drv *picDriver) DriverInit(w io.Writer) *kernel.Error {
	drv.initController(masterCommandPort, masterDataPort, uint8(drv.offset), 1<<cascadeIRQ)
	drv.initController(slaveCommandPort, slaveDataPort, uint8(drv.offset)+8, cascadeIRQ)

	if table.LookupTable(table.SignatureMADT) != nil {
		kfmt.Fprintf(w, "remapped to lines [0x%x, 0x%x]; leaving routing to the I/O APIC\n", uint16(drv.offset), uint16(drv.offset)+maxIRQ)
		return nil
	}

	if err := setControllerFn(drv); err != nil {
		return err
	}

	kfmt.Fprintf(w, "remapped to lines [0x%x, 0x%x]\n", uint16(drv.offset), uint16(drv.offset)+maxIRQ)
	return nil
}

// DriverName returns the name of this driver.
func (*picDriver) DriverName() string {
	return "8259-PIC"
}

// DriverVersion returns the version of this driver.
func (*picDriver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// initController runs the ICW init sequence on one controller: remap to the
// requested offset, wire the cascade and mask every IRQ.
func (drv *picDriver) initController(commandPort, dataPort uint16, offset, cascadeWiring uint8) {
	portWriteByteFn(commandPort, icw1Init|icw1NeedICW4)
	portWriteByteFn(dataPort, offset)
	portWriteByteFn(dataPort, cascadeWiring)
	portWriteByteFn(dataPort, icw4Mode8086)

	// Clear any interrupt the controller still considers in service.
	portWriteByteFn(commandPort, cmdEOI)

	portWriteByteFn(dataPort, 0xff)
}

// SetIrqMask enables or disables delivery of the given IRQ. Unmasking a slave
// IRQ also unmasks the cascade IRQ on the master; masking the last slave IRQ
// masks the cascade again.
func (drv *picDriver) SetIrqMask(irqNumber uint32, enabled bool) {
	if irqNumber > maxIRQ {
		panicFn(errNoSuchIRQ)
		return
	}

	state := irqDisableFn()
	drv.lock.Acquire()
	defer func() {
		drv.lock.Release()
		state.Restore()
	}()

	if irqNumber < 8 {
		mask := portReadByteFn(masterDataPort)
		if enabled {
			mask &^= 1 << irqNumber
		} else {
			mask |= 1 << irqNumber
		}
		portWriteByteFn(masterDataPort, mask)
		return
	}

	// The slave only delivers through the cascade line; keep the cascade
	// unmasked while any slave IRQ is in use.
	mask := portReadByteFn(masterDataPort)
	portWriteByteFn(masterDataPort, mask&^(1<<cascadeIRQ))

	slaveIRQ := irqNumber - 8
	mask = portReadByteFn(slaveDataPort)
	if enabled {
		mask &^= 1 << slaveIRQ
	} else {
		mask |= 1 << slaveIRQ
	}
	portWriteByteFn(slaveDataPort, mask)

	if mask == 0xff {
		mask = portReadByteFn(masterDataPort)
		portWriteByteFn(masterDataPort, mask|1<<cascadeIRQ)
	}
}

// SetIrqEOI acknowledges the given IRQ. Slave IRQs are acknowledged on both
// controllers since they are delivered through the cascade.
func (drv *picDriver) SetIrqEOI(irqNumber uint32) {
	if irqNumber > maxIRQ {
		panicFn(errNoSuchIRQ)
		return
	}

	state := irqDisableFn()
	drv.lock.Acquire()
	defer func() {
		drv.lock.Release()
		state.Restore()
	}()

	if irqNumber > 7 {
		portWriteByteFn(slaveCommandPort, cmdEOI)
	}
	portWriteByteFn(masterCommandPort, cmdEOI)
}

// HandleSpurious classifies the trapped line. Only the last IRQ of each
// controller can be spurious; for those the in-service register decides. A
// spurious slave interrupt still consumed the cascade on the master and is
// acknowledged there.
func (drv *picDriver) HandleSpurious(line irq.Line) irq.IntType {
	irqNumber := int32(line) - int32(drv.offset)
	if irqNumber < 0 || irqNumber > maxIRQ {
		return irq.IntTypeRegular
	}

	if irqNumber > 7 {
		if irqNumber != spuriousIRQSlave {
			return irq.IntTypeRegular
		}

		portWriteByteFn(slaveCommandPort, cmdReadISR)
		if portReadByteFn(slaveCommandPort)&spuriousISRBit != 0 {
			return irq.IntTypeRegular
		}

		drv.SetIrqEOI(cascadeIRQ)
		return irq.IntTypeSpurious
	}

	if irqNumber != spuriousIRQMaster {
		return irq.IntTypeRegular
	}

	portWriteByteFn(masterCommandPort, cmdReadISR)
	if portReadByteFn(masterCommandPort)&spuriousISRBit != 0 {
		return irq.IntTypeRegular
	}

	return irq.IntTypeSpurious
}

// InterruptLine translates an IRQ to the line it was remapped to.
func (drv *picDriver) InterruptLine(irqNumber uint32) (irq.Line, bool) {
	if irqNumber > maxIRQ {
		return 0, false
	}

	return drv.offset + irq.Line(irqNumber), true
}

// probeForPIC returns a driver for the legacy controller pair. The hardware
// or an emulation of it is present on every PC-compatible machine.
func probeForPIC() device.Driver {
	return &picDriver{offset: defaultLineOffset}
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderLast,
		Probe: probeForPIC,
	})
}
