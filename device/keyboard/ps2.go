package keyboard

import (
	"bibos/device"
	"bibos/kernel"
	"bibos/kernel/cpu"
	"bibos/kernel/kfmt"
	"io"
)

const (
	// DataPort is the PS/2 controller data port.
	DataPort = uint16(0x60)

	// StatusPort is the PS/2 controller status port.
	StatusPort = uint16(0x64)

	statusOutputFull = 1 << 0
	maxFlushReads    = 16
)

var (
	portReadByteFn = cpu.PortReadByte

	errNoController = &kernel.Error{Module: "keyboard", Message: "no PS/2 controller present"}
)

// ReadScancode reads the pending scancode byte from the controller data port.
func ReadScancode() byte {
	return portReadByteFn(DataPort)
}

// PS2 is the driver for the keyboard attached to the first PS/2 port.
type PS2 struct{}

// DriverName returns the name of this driver.
func (*PS2) DriverName() string {
	return "ps2_keyboard"
}

// DriverVersion returns the version of this driver.
func (*PS2) DriverVersion() (uint16, uint16, uint16) {
	return 1, 0, 0
}

// DriverInit drains any bytes left in the controller output buffer so the
// first interrupt delivers a fresh scancode.
func (*PS2) DriverInit(w io.Writer) *kernel.Error {
	var flushed int
	for ; flushed < maxFlushReads; flushed++ {
		status := portReadByteFn(StatusPort)
		if status == 0xff {
			return errNoController
		}
		if status&statusOutputFull == 0 {
			break
		}
		_ = portReadByteFn(DataPort)
	}

	kfmt.Fprintf(w, "flushed %d byte(s) from the output buffer\n", flushed)
	return nil
}

func probeForPS2() device.Driver {
	return &PS2{}
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderNormal,
		Probe: probeForPS2,
	})
}
