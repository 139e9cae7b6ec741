package machine

import (
	"bibos/device/keyboard"
	"bibos/device/qemu"
	"bibos/kernel/cpu"
	"sync"
)

const (
	keyboardIRQ      = 1
	statusOutputFull = 1 << 0
)

// KeyboardController emulates the PS/2 controller. Scancodes are queued in a
// FIFO; the head of the queue is readable from the data port and IRQ 1 is
// raised each time a new byte reaches the head.
type KeyboardController struct {
	mu    sync.Mutex
	fifo  []byte
	last  byte
	raise func(line uint8)
}

// NewKeyboardController returns a controller that signals new data through
// raise.
func NewKeyboardController(raise func(line uint8)) *KeyboardController {
	return &KeyboardController{raise: raise}
}

// Press queues scancodes as if they were typed on the keyboard.
func (k *KeyboardController) Press(codes ...byte) {
	if len(codes) == 0 {
		return
	}

	k.mu.Lock()
	wasEmpty := len(k.fifo) == 0
	k.fifo = append(k.fifo, codes...)
	k.mu.Unlock()

	if wasEmpty {
		k.raise(keyboardIRQ)
	}
}

// Buffered returns the number of scancodes that have not been read yet.
func (k *KeyboardController) Buffered() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.fifo)
}

// PortRead implements cpu.PortDevice. Reading the data port with an empty
// queue returns the last byte again.
func (k *KeyboardController) PortRead(port uint16, _ uint8) uint32 {
	k.mu.Lock()

	if port == keyboard.StatusPort {
		var status uint32
		if len(k.fifo) != 0 {
			status |= statusOutputFull
		}
		k.mu.Unlock()
		return status
	}

	if len(k.fifo) == 0 {
		k.mu.Unlock()
		return uint32(k.last)
	}

	k.last, k.fifo = k.fifo[0], k.fifo[1:]
	more := len(k.fifo) != 0
	k.mu.Unlock()

	if more {
		k.raise(keyboardIRQ)
	}
	return uint32(k.last)
}

// PortWrite implements cpu.PortDevice. Controller commands are accepted and
// ignored.
func (k *KeyboardController) PortWrite(uint16, uint8, uint32) {}

// DebugExit emulates the isa-debug-exit device. A write to its port records
// the status and powers the machine off.
type DebugExit struct {
	mu     sync.Mutex
	code   qemu.ExitCode
	exited bool

	powerOffFn func()
}

// NewDebugExit returns a debug exit device that powers off the CPU.
func NewDebugExit() *DebugExit {
	return &DebugExit{powerOffFn: cpu.PowerOff}
}

// PortWrite implements cpu.PortDevice.
func (d *DebugExit) PortWrite(_ uint16, _ uint8, val uint32) {
	d.mu.Lock()
	if !d.exited {
		d.code, d.exited = qemu.ExitCode(val), true
	}
	d.mu.Unlock()

	d.powerOffFn()
}

// PortRead implements cpu.PortDevice.
func (d *DebugExit) PortRead(uint16, uint8) uint32 { return 0xffffffff }

// ExitCode returns the code written by the kernel and whether one has been
// written at all.
func (d *DebugExit) ExitCode() (qemu.ExitCode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.code, d.exited
}

// Status returns the process exit status QEMU would report for the recorded
// code.
func (d *DebugExit) Status() int {
	code, _ := d.ExitCode()
	return int(code)<<1 | 1
}
