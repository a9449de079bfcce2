// Package ioapic implements a driver for the I/O interrupt controllers that
// route device interrupts on APIC-based machines. Each controller chip owns a
// window of global system interrupts; legacy IRQ numbers are translated
// through the ACPI interrupt source overrides before routing. End-of-interrupt
// handling is delegated to the local controller.
package ioapic

import (
	"io"
	"unsafe"

	"helios/device"
	"helios/device/acpi/table"
	"helios/device/intc/lapic"
	"helios/kernel"
	"helios/kernel/irq"
	"helios/kernel/kfmt"
	"helios/kernel/mmio"
	"helios/kernel/sync"
)

const (
	// The controller exposes two memory-mapped registers: an index
	// register and a data window the indexed register is accessed through.
	regSelect uintptr = 0x00
	regWindow uintptr = 0x10

	regVersion = 0x01

	versionMask     = 0x000000ff
	redirCountMask  = 0x00ff0000
	redirCountShift = 16

	// redirBase is the index of the first redirection entry. Each entry
	// occupies two registers; the low word carries the vector and the
	// mask bit.
	redirBase    = 0x10
	redirMaskBit = 1 << 16

	// defaultLineOffset is the line the lowest global system interrupt is
	// routed to.
	defaultLineOffset = 0x30
)

var (
	mmioRead32Fn  = mmio.Read32
	mmioWrite32Fn = mmio.Write32

	setControllerFn = irq.SetController
	lapicEOIFn      = lapic.SetIrqEOI
	lapicPresentFn  = lapic.Present
	lapicSpuriousFn = lapic.SpuriousLine
	irqDisableFn    = irq.Disable

	errNoSuchIRQ = &kernel.Error{Module: "ioapic", Message: "IRQ not routed by any I/O controller chip"}

	panicFn = kfmt.Panic
)

// chip describes a single I/O controller and the window of global system
// interrupts it owns.
type chip struct {
	baseAddr uintptr
	id       uint8
	version  uint8

	// The chip routes global system interrupts in [gsiBase, gsiLimit).
	gsiBase  uint32
	gsiLimit uint32

	lock sync.Spinlock
}

func (c *chip) read(reg uint32) uint32 {
	mmioWrite32Fn(c.baseAddr+regSelect, reg)
	return mmioRead32Fn(c.baseAddr + regWindow)
}

func (c *chip) write(reg, val uint32) {
	mmioWrite32Fn(c.baseAddr+regSelect, reg)
	mmioWrite32Fn(c.baseAddr+regWindow, val)
}

type ioapicDriver struct {
	chips []*chip

	// offset is the interrupt line the lowest global system interrupt is
	// routed to.
	offset irq.Line

	// overrides maps legacy ISA IRQ numbers to the global system
	// interrupt they are wired to, per the ACPI interrupt source
	// overrides.
	overrides map[uint8]uint32

	// spuriousLine is the vector the local controller reserves for
	// spurious interrupts.
	spuriousLine irq.Line
}

// DriverInit sizes each chip's interrupt window from its version register,
// masks every interrupt it routes and registers the driver as the active
// interrupt controller.
func (drv *ioapicDriver) DriverInit(w io.Writer) *kernel.Error {
	for _, c := range drv.chips {
		version := c.read(regVersion)
		c.version = uint8(version & versionMask)
		c.gsiLimit = c.gsiBase + 1 + (version&redirCountMask)>>redirCountShift

		for gsi := c.gsiBase; gsi < c.gsiLimit; gsi++ {
			drv.setGSIMask(c, gsi, false)
		}

		kfmt.Fprintf(w, "chip %d version 0x%x routing [%d, %d)\n", c.id, c.version, c.gsiBase, c.gsiLimit)
	}

	return setControllerFn(drv)
}

// DriverName returns the name of this driver.
func (*ioapicDriver) DriverName() string {
	return "IO-APIC"
}

// DriverVersion returns the version of this driver.
func (*ioapicDriver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// remapIRQ translates a legacy IRQ number to its global system interrupt.
// IRQs without an override map to the identical interrupt number.
func (drv *ioapicDriver) remapIRQ(irqNumber uint32) uint32 {
	if irqNumber <= 0xff {
		if gsi, ok := drv.overrides[uint8(irqNumber)]; ok {
			return gsi
		}
	}

	return irqNumber
}

// findChip returns the chip routing the given global system interrupt or nil
// if no chip owns it.
func (drv *ioapicDriver) findChip(gsi uint32) *chip {
	for _, c := range drv.chips {
		if c.gsiBase <= gsi && gsi < c.gsiLimit {
			return c
		}
	}

	return nil
}

// SetIrqMask enables or disables delivery of the given IRQ. Presenting an IRQ
// no chip routes is a wiring defect and escalates to a panic.
func (drv *ioapicDriver) SetIrqMask(irqNumber uint32, enabled bool) {
	gsi := drv.remapIRQ(irqNumber)

	c := drv.findChip(gsi)
	if c == nil {
		panicFn(errNoSuchIRQ)
		return
	}

	drv.setGSIMask(c, gsi, enabled)
}

// setGSIMask rewrites the low word of the redirection entry for the given
// global system interrupt: its routed vector plus the mask bit. Delivery is
// physical mode to the bootstrap core.
func (drv *ioapicDriver) setGSIMask(c *chip, gsi uint32, enabled bool) {
	entryLow := uint32(drv.offset) + gsi
	if !enabled {
		entryLow |= redirMaskBit
	}

	state := irqDisableFn()
	c.lock.Acquire()
	c.write(redirBase+2*(gsi-c.gsiBase), entryLow)
	c.lock.Release()
	state.Restore()
}

// SetIrqEOI acknowledges the interrupt. The chips have no acknowledge
// register of their own; completion is signalled through the local
// controller.
func (drv *ioapicDriver) SetIrqEOI(irqNumber uint32) {
	lapicEOIFn(irqNumber)
}

// HandleSpurious classifies the trapped line. The only spurious source on an
// APIC machine is the local controller's spurious vector; it is acknowledged
// and absorbed.
func (drv *ioapicDriver) HandleSpurious(line irq.Line) irq.IntType {
	if line == drv.spuriousLine {
		lapicEOIFn(uint32(line))
		return irq.IntTypeSpurious
	}

	return irq.IntTypeRegular
}

// InterruptLine translates an IRQ to the line its global system interrupt is
// routed to.
func (drv *ioapicDriver) InterruptLine(irqNumber uint32) (irq.Line, bool) {
	gsi := drv.remapIRQ(irqNumber)
	if drv.findChip(gsi) == nil {
		return 0, false
	}

	return drv.offset + irq.Line(gsi), true
}

// probeForIOAPIC returns a driver when the ACPI tables advertise at least one
// I/O controller chip and the local controller driver the chips delegate
// their acknowledgements to is initialized.
func probeForIOAPIC() device.Driver {
	header := table.LookupTable(table.SignatureMADT)
	if header == nil || !lapicPresentFn() {
		return nil
	}

	drv := &ioapicDriver{
		offset:       defaultLineOffset,
		overrides:    make(map[uint8]uint32),
		spuriousLine: lapicSpuriousFn(),
	}

	madt := (*table.MADT)(unsafe.Pointer(header))
	madt.VisitEntries(func(entry *table.MADTEntry) {
		switch entry.Type {
		case table.MADTEntryTypeIOAPIC:
			ioapicEntry := (*table.MADTEntryIOAPIC)(unsafe.Pointer(entry))
			drv.chips = append(drv.chips, &chip{
				baseAddr: uintptr(ioapicEntry.Address),
				id:       ioapicEntry.APICID,
				gsiBase:  ioapicEntry.SysInterruptBase,
			})
		case table.MADTEntryTypeIntSrcOverride:
			override := (*table.MADTEntryInterruptSrcOverride)(unsafe.Pointer(entry))
			drv.overrides[override.IRQSrc] = override.GlobalInterrupt
		}
	})

	if len(drv.chips) == 0 {
		return nil
	}

	return drv
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		// Probes after the local controller driver whose EOI handling
		// the chips delegate to.
		Order: device.DetectOrderACPI + 1,
		Probe: probeForIOAPIC,
	})
}
