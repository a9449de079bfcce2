package table

import "unsafe"

// SignatureMADT is the table signature the MADT is registered under.
const SignatureMADT = "APIC"

// MADT (Multiple APIC Description Table) is an ACPI table containing
// information about the interrupt controllers and the number of installed
// CPUs. Following the table header are a series of variable sized records
// (see MADTEntry) which contain additional information.
type MADT struct {
	SDTHeader

	// LocalControllerAddress contains the physical address of the
	// memory-mapped register window shared by every local controller.
	LocalControllerAddress uint32

	Flags uint32
}

// MADTEntryType describes the type of a MADT record.
type MADTEntryType uint8

// The list of supported MADT entry types.
const (
	MADTEntryTypeLocalAPIC MADTEntryType = iota
	MADTEntryTypeIOAPIC
	MADTEntryTypeIntSrcOverride
)

// MADTEntry defines the common header for the variable sized records that
// follow the MADT. Each record begins with this header; its Length field
// covers the header plus the type-specific payload and is the stride used to
// reach the next record.
type MADTEntry struct {
	Type   MADTEntryType
	Length uint8
}

// MADTEntryLocalAPIC describes a single physical processor and its local
// interrupt controller. A MADTEntry with type MADTEntryTypeLocalAPIC can be
// cast to this type.
type MADTEntryLocalAPIC struct {
	MADTEntry

	ProcessorID uint8
	APICID      uint8
	Flags       uint32
}

// MADTEntryLocalAPICFlagEnabled is set when the processor described by a
// local APIC entry is available for use.
const MADTEntryLocalAPICFlagEnabled = 1 << 0

// MADTEntryIOAPIC describes an I/O Advanced Programmable Interrupt
// Controller. A MADTEntry with type MADTEntryTypeIOAPIC can be cast to this
// type.
type MADTEntryIOAPIC struct {
	MADTEntry

	APICID   uint8
	reserved uint8

	// Address contains the physical address of the controller's register
	// window.
	Address uint32

	// SysInterruptBase defines the first global system interrupt number
	// that this controller handles.
	SysInterruptBase uint32
}

// MADTEntryInterruptSrcOverride maps a legacy ISA IRQ source to the global
// system interrupt it is actually wired to. A MADTEntry with type
// MADTEntryTypeIntSrcOverride can be cast to this type.
type MADTEntryInterruptSrcOverride struct {
	MADTEntry

	BusSrc          uint8
	IRQSrc          uint8
	GlobalInterrupt uint32
	Flags           uint16
}

// VisitEntries walks the variable sized records that follow the MADT header
// and invokes visit with each record. Records with an unknown type are still
// visited; records with a corrupt zero length terminate the walk.
func (m *MADT) VisitEntries(visit func(*MADTEntry)) {
	var (
		cur = uintptr(unsafe.Pointer(m)) + unsafe.Sizeof(MADT{})
		end = uintptr(unsafe.Pointer(m)) + uintptr(m.Length)
	)

	for cur < end {
		entry := (*MADTEntry)(unsafe.Pointer(cur))
		if entry.Length == 0 {
			return
		}

		visit(entry)
		cur += uintptr(entry.Length)
	}
}
