package pic

import (
	"bibos/device"
	"bibos/kernel/sync"
)

const (
	// PrimaryOffset is the first vector used by the primary controller.
	PrimaryOffset = uint8(32)

	// SecondaryOffset is the first vector used by the secondary controller.
	SecondaryOffset = PrimaryOffset + linesPerPIC
)

var (
	defaultLock sync.IRQSpinlock
	defaultPICs *ChainedPICs
)

// Default returns the controller pair mapped to PrimaryOffset and
// SecondaryOffset. The instance is created on first use.
func Default() *ChainedPICs {
	defaultLock.Do(func() {
		if defaultPICs == nil {
			// the offsets are constants known to be valid
			defaultPICs, _ = NewChainedPICs(PrimaryOffset, SecondaryOffset)
		}
	})
	return defaultPICs
}

func probeForPICs() device.Driver {
	return Default()
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderInterruptController,
		Probe: probeForPICs,
	})
}
