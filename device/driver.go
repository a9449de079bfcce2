// Package device defines the driver contract implemented by all hardware
// drivers and the registry the HAL consults when probing for hardware.
package device

import (
	"io"

	"helios/kernel"
)

// Driver is an interface implemented by all hardware drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version as a (major, minor, patch)
	// tuple.
	DriverVersion() (uint16, uint16, uint16)

	// DriverInit initializes the device driver. Drivers may write
	// initialization details to the supplied writer.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn checks for the presence of a particular piece of hardware and
// returns a driver for it, or nil if the hardware is not present.
type ProbeFn func() Driver

// DetectOrder specifies when each driver probe runs relative to the ACPI
// table scan. Probes that feed the table resolver must run before it; probes
// that consume resolved tables must run after it.
type DetectOrder int

const (
	// DetectOrderEarly probes run before anything else and may only rely
	// on information provided by the bootloader.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderBeforeACPI probes run just before the ACPI table scan.
	DetectOrderBeforeACPI DetectOrder = -64

	// DetectOrderACPI probes run after the ACPI tables have been parsed
	// and may look up any table through the registered resolver.
	DetectOrderACPI DetectOrder = 0

	// DetectOrderLast probes run at the end of the hardware detection
	// phase.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo describes a driver and the probe that detects its hardware.
type DriverInfo struct {
	// Order defines when the probe runs during hardware detection.
	Order DetectOrder

	// Probe returns a Driver instance if the expected hardware is present.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that can be sorted by
// detection order.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list by their detection order.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var registeredDrivers DriverInfoList

// RegisterDriver adds the supplied driver info to the list of drivers probed
// by the HAL. It is meant to be called from a package init function.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}
