// Package device defines the interface implemented by hardware drivers and
// the registry the HAL probes at boot.
package device

import (
	"bibos/kernel"
	"io"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it or nil if the hardware is
// not present.
type ProbeFn func() Driver

// DetectOrder specifies when a driver gets probed relative to the others.
type DetectOrder int8

const (
	// DetectOrderEarly drivers are probed first. Output devices use it so
	// the remaining drivers can log their init messages.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderInterruptController is used by interrupt controllers;
	// they must be remapped before any device that raises interrupts.
	DetectOrderInterruptController DetectOrder = -64

	// DetectOrderNormal is the default order.
	DetectOrderNormal DetectOrder = 0

	// DetectOrderLast drivers are probed after every other driver.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo pairs a probe function with its detection order.
type DriverInfo struct {
	Order DetectOrder
	Probe ProbeFn
}

// DriverInfoList implements sort.Interface ordering drivers by DetectOrder.
type DriverInfoList []*DriverInfo

func (l DriverInfoList) Len() int           { return len(l) }
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }
func (l DriverInfoList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

var registeredDrivers DriverInfoList

// RegisterDriver adds info to the list of drivers probed by the HAL. Drivers
// call it from an init() block.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns a copy of the registered driver list.
func DriverList() DriverInfoList {
	list := make(DriverInfoList, len(registeredDrivers))
	copy(list, registeredDrivers)
	return list
}
