// Package irq installs the kernel's exception and hardware interrupt
// handlers.
package irq

import (
	"bibos/device/keyboard"
	"bibos/kernel"
	"bibos/kernel/cpu"
	"bibos/kernel/gate"
	"bibos/kernel/kfmt"
	"bibos/kernel/sync"
	"sync/atomic"
)

// Controller is implemented by the interrupt controller that routes the
// timer and keyboard lines.
type Controller interface {
	// Offsets returns the first vector of the primary and secondary
	// controller.
	Offsets() (uint8, uint8)

	// NotifyEndOfInterrupt acknowledges the interrupt for vector.
	NotifyEndOfInterrupt(vector uint8)
}

// Console is implemented by the output sink the timer handler animates.
type Console interface {
	Dimensions() (uint32, uint32)
	Modify(row, col uint32, fn func(byte) byte) *kernel.Error
}

// Line offsets relative to the primary controller vector offset.
const (
	TimerLine    = 0
	KeyboardLine = 1
)

var (
	// The following functions are mocked by tests.
	handleInterruptFn = gate.HandleInterrupt
	readCR2Fn         = cpu.ReadCR2
	readScancodeFn    = keyboard.ReadScancode
	panicFn           = kfmt.Panic
	haltFn            = cpu.Halt

	pics    Controller
	console Console

	// decoder is only ever used from the keyboard handler. The lock
	// guards it in case a second keyboard source is added.
	decoder     keyboard.Decoder
	decoderLock sync.Spinlock

	timerVector    uint8
	keyboardVector uint8

	ticks      uint64
	keystrokes uint64

	errDoubleFault = &kernel.Error{Module: "irq", Message: "double fault"}
)

// Init registers the exception handlers and the timer and keyboard interrupt
// handlers. It must be called before the interrupt descriptor table is
// loaded.
func Init(controller Controller, cons Console, dec keyboard.Decoder) *kernel.Error {
	pics, console, decoder = controller, cons, dec

	primaryOffset, _ := controller.Offsets()
	timerVector = primaryOffset + TimerLine
	keyboardVector = primaryOffset + KeyboardLine

	handlers := []struct {
		num      gate.InterruptNumber
		istIndex uint8
		handler  gate.Handler
	}{
		{gate.Breakpoint, 0, breakpointHandler},
		{gate.DoubleFault, gate.DoubleFaultISTIndex, doubleFaultHandler},
		{gate.PageFaultException, 0, pageFaultHandler},
		{gate.GPFException, 0, generalProtectionFaultHandler},
		{gate.InterruptNumber(timerVector), 0, timerHandler},
		{gate.InterruptNumber(keyboardVector), 0, keyboardHandler},
	}

	for _, h := range handlers {
		if err := handleInterruptFn(h.num, h.istIndex, h.handler); err != nil {
			return err
		}
	}

	return nil
}

// Ticks returns the number of timer interrupts serviced so far.
func Ticks() uint64 {
	return atomic.LoadUint64(&ticks)
}

// Keystrokes returns the number of keyboard interrupts serviced so far.
func Keystrokes() uint64 {
	return atomic.LoadUint64(&keystrokes)
}

// nextSpinnerGlyph advances the busy indicator drawn by the timer handler.
func nextSpinnerGlyph(cur byte) byte {
	switch cur {
	case '|':
		return '/'
	case '/':
		return '-'
	case '-':
		return '\\'
	default:
		return '|'
	}
}

func timerHandler(_ *gate.Registers) {
	width, _ := console.Dimensions()
	if err := console.Modify(0, width-1, nextSpinnerGlyph); err != nil {
		panicFn(err)
	}

	atomic.AddUint64(&ticks, 1)
	pics.NotifyEndOfInterrupt(timerVector)
}

func keyboardHandler(_ *gate.Registers) {
	scancode := readScancodeFn()

	var (
		key  keyboard.DecodedKey
		have bool
	)

	decoderLock.Acquire()
	if ev, ok, err := decoder.AddByte(scancode); err == nil && ok {
		key, have = decoder.ProcessKeyEvent(ev)
	}
	decoderLock.Release()

	if have {
		if key.IsUnicode() {
			kfmt.Printf("%c", key.Rune)
		} else {
			kfmt.Printf("%s", key.Code.String())
		}
	}

	atomic.AddUint64(&keystrokes, 1)
	pics.NotifyEndOfInterrupt(keyboardVector)
}
