// Package lapic implements a driver for the per-core local interrupt
// controller. Besides end-of-interrupt handling it provides inter-processor
// interrupts, application processor startup and the spurious vector setup.
// Other drivers reach the local controller through the package-level
// functions which operate on the single active instance.
package lapic

import (
	"io"
	"sync/atomic"
	"unsafe"

	"helios/device"
	"helios/device/acpi/table"
	"helios/kernel"
	"helios/kernel/irq"
	"helios/kernel/kfmt"
	"helios/kernel/mmio"
	"helios/kernel/sync"
)

const (
	regID    = 0x20
	regEOI   = 0xb0
	regTPR   = 0x80
	regLDR   = 0xd0
	regDFR   = 0xe0
	regSVR   = 0xf0
	regICRLo = 0x300
	regICRHi = 0x310

	// svrEnable turns the local controller on when written to the
	// spurious vector register together with the spurious vector.
	svrEnable = 0x100

	icrInit             = 0x00000500
	icrStartup          = 0x00000600
	icrPhysical         = 0x00000000
	icrAssert           = 0x00004000
	icrEdge             = 0x00000000
	icrNoShorthand      = 0x00000000
	icrSendPending      = 0x00001000
	icrAllExcludingSelf = 0x000c0000

	icrDestinationShift = 24
)

var (
	mmioRead32Fn  = mmio.Read32
	mmioWrite32Fn = mmio.Write32

	setPanicBroadcastFn = kfmt.SetPanicBroadcast
	irqDisableFn        = irq.Disable

	// startupDelayFn waits the 10ms the startup protocol requires between
	// the INIT and STARTUP rounds. Timers are not available that early so
	// the default implementation busy-waits.
	startupDelayFn = busyDelay

	// bootedCount tracks the cores that completed their boot sequence.
	// Each application processor increments it from InitAPCore.
	bootedCount uint32 = 1

	// apTrampolineAddr is the physical address of the real-mode code an
	// application processor starts executing at. It must be page aligned
	// and below 1MB.
	apTrampolineAddr uintptr = 0x8000

	errCPUStartFailed = &kernel.Error{Module: "lapic", Message: "application processor did not complete startup"}
	errNoActiveDriver = &kernel.Error{Module: "lapic", Message: "no local controller driver is active"}

	activeDriver *lapicDriver
)

// CPU describes one processor discovered through the ACPI tables.
type CPU struct {
	// ProcessorID is the ACPI processor identifier.
	ProcessorID uint8

	// APICID is the identifier of the processor's local controller and
	// the destination used when sending it an IPI.
	APICID uint8
}

type lapicDriver struct {
	// baseAddr is the memory-mapped register window shared by the local
	// controller of every core.
	baseAddr uintptr

	// spuriousLine is the vector programmed into the spurious vector
	// register.
	spuriousLine irq.Line

	cpus []CPU

	lock sync.Spinlock
}

// DriverInit programs the bootstrap core's local controller and installs the
// panic broadcast so a panicking core can stop the others.
func (drv *lapicDriver) DriverInit(w io.Writer) *kernel.Error {
	drv.initLocalController()

	activeDriver = drv
	setPanicBroadcastFn(broadcastPanic)

	kfmt.Fprintf(w, "base address 0x%x, %d processor(s), spurious vector 0x%x\n",
		drv.baseAddr, len(drv.cpus), uint16(drv.spuriousLine))

	return nil
}

// DriverName returns the name of this driver.
func (*lapicDriver) DriverName() string {
	return "LAPIC"
}

// DriverVersion returns the version of this driver.
func (*lapicDriver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// initLocalController enables the calling core's local controller: accept all
// priorities, flat logical destination mode and the spurious vector armed.
func (drv *lapicDriver) initLocalController() {
	drv.write(regTPR, 0)
	drv.write(regDFR, 0xffffffff)
	drv.write(regLDR, 0x01000000)
	drv.write(regSVR, svrEnable|uint32(drv.spuriousLine))
}

func (drv *lapicDriver) read(reg uintptr) uint32 {
	return mmioRead32Fn(drv.baseAddr + reg)
}

func (drv *lapicDriver) write(reg uintptr, val uint32) {
	mmioWrite32Fn(drv.baseAddr+reg, val)
}

// sendIPI delivers vector to the core owning the given controller ID and
// waits until the delivery is no longer pending.
func (drv *lapicDriver) sendIPI(apicID uint8, vector uint8) {
	state := irqDisableFn()
	drv.lock.Acquire()
	defer func() {
		drv.lock.Release()
		state.Restore()
	}()

	drv.write(regICRHi, uint32(apicID)<<icrDestinationShift)
	drv.write(regICRLo, uint32(vector)|icrPhysical|icrAssert|icrEdge|icrNoShorthand)
	for drv.read(regICRLo)&icrSendPending != 0 {
	}
}

// startCPU boots the application processor owning the given controller ID
// using the INIT plus double-STARTUP sequence. Success is detected by the
// booted core incrementing the boot counter.
func (drv *lapicDriver) startCPU(apicID uint8) *kernel.Error {
	drv.write(regICRHi, uint32(apicID)<<icrDestinationShift)
	drv.write(regICRLo, icrAssert|icrInit|icrPhysical|icrEdge|icrNoShorthand)
	for drv.read(regICRLo)&icrSendPending != 0 {
	}

	startupDelayFn()

	oldBootedCount := atomic.LoadUint32(&bootedCount)
	startupVector := uint32(apTrampolineAddr>>12) & 0xff

	for try := 0; try < 2; try++ {
		drv.write(regICRHi, uint32(apicID)<<icrDestinationShift)
		drv.write(regICRLo, startupVector|icrAssert|icrStartup|icrPhysical|icrEdge|icrNoShorthand)
		for drv.read(regICRLo)&icrSendPending != 0 {
		}

		startupDelayFn()
		if atomic.LoadUint32(&bootedCount) != oldBootedCount {
			return nil
		}
	}

	return errCPUStartFailed
}

// broadcastPanic raises the panic line on every other core. Installed as the
// panic subsystem's broadcast hook.
func broadcastPanic() {
	drv := activeDriver
	if drv == nil {
		return
	}

	drv.write(regICRHi, 0)
	drv.write(regICRLo, uint32(irq.PanicLine)|icrAllExcludingSelf|icrAssert|icrEdge)
	for drv.read(regICRLo)&icrSendPending != 0 {
	}
}

// Present returns true once the driver has been initialized.
func Present() bool {
	return activeDriver != nil
}

// SetIrqEOI acknowledges the interrupt currently being serviced on the local
// core. The controller tracks the interrupt itself so the IRQ number is not
// needed.
func SetIrqEOI(_ uint32) {
	if drv := activeDriver; drv != nil {
		drv.write(regEOI, 0)
	}
}

// SpuriousLine returns the vector programmed into the spurious vector
// register.
func SpuriousLine() irq.Line {
	if drv := activeDriver; drv != nil {
		return drv.spuriousLine
	}

	return irq.SpuriousLine
}

// ID returns the local controller ID of the calling core, or zero before the
// driver is initialized.
func ID() uint8 {
	if drv := activeDriver; drv != nil {
		return uint8(drv.read(regID) >> icrDestinationShift)
	}

	return 0
}

// CPUList returns the processors discovered through the ACPI tables.
func CPUList() []CPU {
	if drv := activeDriver; drv != nil {
		return drv.cpus
	}

	return nil
}

// SendIPI delivers vector to the core owning the given controller ID.
func SendIPI(apicID uint8, vector uint8) {
	if drv := activeDriver; drv != nil {
		drv.sendIPI(apicID, vector)
	}
}

// StartCPU boots the application processor owning the given controller ID.
func StartCPU(apicID uint8) *kernel.Error {
	if drv := activeDriver; drv != nil {
		return drv.startCPU(apicID)
	}

	return errNoActiveDriver
}

// InitAPCore sets up the local controller of a freshly booted application
// processor and publishes its arrival to the boot counter.
func InitAPCore() {
	if drv := activeDriver; drv != nil {
		drv.initLocalController()
		atomic.AddUint32(&bootedCount, 1)
	}
}

// busyDelay burns enough cycles to cover the startup protocol delays on any
// reasonable machine.
func busyDelay() {
	for i := 0; i < 1<<24; i++ {
	}
}

// probeForLAPIC returns a driver when the ACPI tables advertise a local
// controller.
func probeForLAPIC() device.Driver {
	header := table.LookupTable(table.SignatureMADT)
	if header == nil {
		return nil
	}

	madt := (*table.MADT)(unsafe.Pointer(header))
	drv := &lapicDriver{
		baseAddr:     uintptr(madt.LocalControllerAddress),
		spuriousLine: irq.SpuriousLine,
	}

	madt.VisitEntries(func(entry *table.MADTEntry) {
		if entry.Type != table.MADTEntryTypeLocalAPIC {
			return
		}

		lapicEntry := (*table.MADTEntryLocalAPIC)(unsafe.Pointer(entry))
		if lapicEntry.Flags&table.MADTEntryLocalAPICFlagEnabled == 0 {
			return
		}

		drv.cpus = append(drv.cpus, CPU{
			ProcessorID: lapicEntry.ProcessorID,
			APICID:      lapicEntry.APICID,
		})
	})

	return drv
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderACPI,
		Probe: probeForLAPIC,
	})
}
