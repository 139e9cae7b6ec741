// Package qemu talks to the isa-debug-exit device that test harnesses attach
// to the virtual machine so the kernel can report a result and shut down.
package qemu

import "bibos/kernel/cpu"

// ExitCode is the status reported to the harness. The device exits the
// virtual machine with status (code << 1) | 1.
type ExitCode uint32

// The exit codes understood by the test harness.
const (
	ExitSuccess ExitCode = 0x10
	ExitFailed  ExitCode = 0x11
)

// ExitPort is the I/O port the debug exit device listens on.
const ExitPort = uint16(0xf4)

var portWriteDwordFn = cpu.PortWriteDword

// Exit reports code to the harness. On a machine without the device the write
// is ignored and Exit returns.
func Exit(code ExitCode) {
	portWriteDwordFn(ExitPort, uint32(code))
}
