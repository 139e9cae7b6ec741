// Package machine models the parts of a PC that the kernel talks to so that
// it can boot and be tested as an ordinary host process: a pair of 8259
// interrupt controllers, a PS/2 keyboard controller, the debug exit port, text
// mode video memory and the RAM backing the kernel heap.
//
// The kernel drives its hardware through package level state in the cpu
// package, so only one Machine can be attached at a time.
package machine

import (
	"bibos/device/keyboard"
	"bibos/device/qemu"
	"bibos/device/video/console"
	"bibos/kernel"
	"bibos/kernel/cpu"
	"bibos/kernel/hal/bootinfo"
	"bibos/kernel/mem"
	"bibos/machine/physmem"
	"strings"
	"time"
	"unsafe"
)

const timerIRQ = 0

var errIdleTimeout = &kernel.Error{Module: "machine", Message: "timed out waiting for the CPU to go idle"}

// Config describes the machine to build.
type Config struct {
	// Columns and Rows set the text mode dimensions.
	Columns, Rows uint32

	// HeapSize is the amount of RAM handed to the kernel heap.
	HeapSize mem.Size

	// CmdLine is passed to the kernel through the boot information.
	CmdLine string
}

// DefaultConfig returns an 80x25 machine with a 100 KiB heap.
func DefaultConfig() Config {
	return Config{Columns: 80, Rows: 25, HeapSize: 100 * mem.Kb}
}

// Machine wires the emulated devices to the cpu package.
type Machine struct {
	PIC       *PIC8259Pair
	Keyboard  *KeyboardController
	DebugExit *DebugExit

	cfg  Config
	vram []uint16
	ram  []uint64

	idle chan struct{}
	done chan struct{}
}

// New builds a machine, attaches its devices to the CPU and records the boot
// information the kernel reads on startup. Video memory and RAM are mapped
// outside the Go heap and stay mapped for the life of the process.
func New(cfg Config) *Machine {
	m := &Machine{
		PIC:       NewPIC8259Pair(),
		DebugExit: NewDebugExit(),
		cfg:       cfg,
		vram:      physmem.MustMap(int(cfg.Columns*cfg.Rows) * 2).Cells(),
		ram:       physmem.MustMap(int(cfg.HeapSize)).Words(),
		idle:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	m.Keyboard = NewKeyboardController(m.RaiseIRQ)

	cpu.Reset()
	cpu.DetachPortDevices()
	cpu.AttachPortDevice(m.PIC, 0x20, 0x21, 0xa0, 0xa1)
	cpu.AttachPortDevice(m.Keyboard, keyboard.DataPort, keyboard.StatusPort)
	cpu.AttachPortDevice(m.DebugExit, qemu.ExitPort)
	cpu.SetInterruptLine(m.PIC)
	cpu.SetIdleHook(m.signalIdle)

	info := bootinfo.Info{
		FramebufferWidth:  cfg.Columns,
		FramebufferHeight: cfg.Rows,
		CmdLine:           cfg.CmdLine,
	}
	if len(m.vram) != 0 {
		info.FramebufferAddr = uintptr(unsafe.Pointer(&m.vram[0]))
	}
	if len(m.ram) != 0 {
		info.HeapStart = uintptr(unsafe.Pointer(&m.ram[0]))
		info.HeapSize = uint64(cfg.HeapSize)
	}
	bootinfo.SetInfo(info)

	return m
}

// Boot runs entry on its own goroutine, which plays the role of the CPU.
// The goroutine ends when the CPU halts.
func (m *Machine) Boot(entry func()) {
	go func() {
		defer close(m.done)
		entry()
	}()
}

// Done is closed once the CPU has halted.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Halted returns true if the CPU has stopped.
func (m *Machine) Halted() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Shutdown powers the machine off and waits for the CPU to stop.
func (m *Machine) Shutdown() {
	cpu.PowerOff()
	<-m.done
}

// RaiseIRQ asserts an interrupt line and wakes the CPU.
func (m *Machine) RaiseIRQ(line uint8) {
	m.PIC.RaiseIRQ(line)
	cpu.Interrupt()
}

// Tick raises the timer interrupt.
func (m *Machine) Tick() {
	m.RaiseIRQ(timerIRQ)
}

// PressScancodes feeds scancodes to the keyboard controller.
func (m *Machine) PressScancodes(codes ...byte) {
	m.Keyboard.Press(codes...)
}

func (m *Machine) signalIdle() {
	select {
	case m.idle <- struct{}{}:
	default:
	}
}

// WaitIdle blocks until the CPU goes to sleep in WaitForInterrupt or halts.
// Once it returns, video memory reflects everything the kernel did before
// going idle.
func (m *Machine) WaitIdle(timeout time.Duration) *kernel.Error {
	select {
	case <-m.idle:
		return nil
	case <-m.done:
		return nil
	case <-time.After(timeout):
		return errIdleTimeout
	}
}

// Step discards any stale idle notification, runs fn to stimulate the machine
// and waits until the CPU is idle again.
func (m *Machine) Step(fn func(), timeout time.Duration) *kernel.Error {
	select {
	case <-m.idle:
	default:
	}

	fn()
	return m.WaitIdle(timeout)
}

// Snapshot returns a copy of the text mode framebuffer, one slice per row.
// It should only be taken while the CPU is idle or halted.
func (m *Machine) Snapshot() [][]console.Cell {
	rows := make([][]console.Cell, m.cfg.Rows)
	for row := range rows {
		rows[row] = make([]console.Cell, m.cfg.Columns)
		for col := range rows[row] {
			v := m.vram[uint32(row)*m.cfg.Columns+uint32(col)]
			rows[row][col] = console.Cell{Char: byte(v), Attr: console.Attr(v >> 8)}
		}
	}
	return rows
}

// Screen returns the characters on screen with trailing blanks removed.
func (m *Machine) Screen() []string {
	snapshot := m.Snapshot()
	lines := make([]string, len(snapshot))
	for row, cells := range snapshot {
		var sb strings.Builder
		for _, c := range cells {
			ch := c.Char
			if ch == 0 {
				ch = ' '
			}
			sb.WriteByte(ch)
		}
		lines[row] = strings.TrimRight(sb.String(), " ")
	}
	return lines
}

// Config returns the configuration the machine was built with.
func (m *Machine) Config() Config {
	return m.cfg
}
