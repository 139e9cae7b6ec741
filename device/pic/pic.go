// Package pic drives the pair of chained 8259 programmable interrupt
// controllers found on PC compatible machines.
package pic

import (
	"bibos/device"
	"bibos/kernel"
	"bibos/kernel/cpu"
	"bibos/kernel/kfmt"
	"bibos/kernel/sync"
	"io"
)

const (
	primaryCommand   = uint16(0x20)
	primaryData      = uint16(0x21)
	secondaryCommand = uint16(0xa0)
	secondaryData    = uint16(0xa1)

	cmdInit       = 0x11 // ICW1: edge triggered, cascade, ICW4 follows
	cmdEndOfIntr  = 0x20
	mode8086      = 0x01
	cascadeLine   = 2
	linesPerPIC   = 8
	firstFreeIntr = 32

	// DefaultPrimaryMask leaves the timer, keyboard and cascade lines
	// unmasked.
	DefaultPrimaryMask = uint8(0xf8)

	// DefaultSecondaryMask masks every line of the secondary controller.
	DefaultSecondaryMask = uint8(0xff)
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
	ioWaitFn        = cpu.IOWait

	errReservedOffset   = &kernel.Error{Module: "pic", Message: "vector offset overlaps the CPU exception range"}
	errUnalignedOffset  = &kernel.Error{Module: "pic", Message: "vector offset must be a multiple of 8"}
	errOverlappingRange = &kernel.Error{Module: "pic", Message: "vector ranges of the two controllers overlap"}
	errInvalidLine      = &kernel.Error{Module: "pic", Message: "interrupt line must be in [0, 16)"}
)

type controller struct {
	offset  uint8
	command uint16
	data    uint16
}

func (c *controller) handlesInterrupt(vector uint8) bool {
	return vector >= c.offset && vector < c.offset+linesPerPIC
}

func (c *controller) endOfInterrupt() {
	portWriteByteFn(c.command, cmdEndOfIntr)
}

// ChainedPICs models the primary controller and the secondary controller
// cascaded onto its line 2.
type ChainedPICs struct {
	lock sync.IRQSpinlock

	primary   controller
	secondary controller
}

// NewChainedPICs validates the vector offsets and returns a driver for the
// controller pair. The offsets are where the 8 lines of each controller are
// mapped in the vector table; they must lie outside the CPU exception range,
// be 8-aligned and must not overlap. An 8-aligned offset always leaves room
// for all 8 lines below vector 256.
func NewChainedPICs(offset1, offset2 uint8) (*ChainedPICs, *kernel.Error) {
	for _, off := range []uint8{offset1, offset2} {
		switch {
		case off < firstFreeIntr:
			return nil, errReservedOffset
		case off%linesPerPIC != 0:
			return nil, errUnalignedOffset
		}
	}

	if offset1 == offset2 {
		return nil, errOverlappingRange
	}

	return &ChainedPICs{
		primary:   controller{offset: offset1, command: primaryCommand, data: primaryData},
		secondary: controller{offset: offset2, command: secondaryCommand, data: secondaryData},
	}, nil
}

// Offsets returns the vector offsets of the primary and secondary controller.
func (p *ChainedPICs) Offsets() (uint8, uint8) {
	return p.primary.offset, p.secondary.offset
}

// HandlesInterrupt returns true if vector is mapped to one of the controllers.
func (p *ChainedPICs) HandlesInterrupt(vector uint8) bool {
	return p.primary.handlesInterrupt(vector) || p.secondary.handlesInterrupt(vector)
}

// Initialize remaps both controllers to their configured offsets and then
// applies the supplied interrupt masks. Each command byte is followed by an
// I/O wait as older controllers need time to process it.
func (p *ChainedPICs) Initialize(mask1, mask2 uint8) {
	p.lock.Do(func() {
		// start the initialization sequence
		portWriteByteFn(p.primary.command, cmdInit)
		ioWaitFn()
		portWriteByteFn(p.secondary.command, cmdInit)
		ioWaitFn()

		// ICW2: vector offsets
		portWriteByteFn(p.primary.data, p.primary.offset)
		ioWaitFn()
		portWriteByteFn(p.secondary.data, p.secondary.offset)
		ioWaitFn()

		// ICW3: primary has a secondary on line 2 (bitmask), secondary
		// has cascade identity 2
		portWriteByteFn(p.primary.data, 1<<cascadeLine)
		ioWaitFn()
		portWriteByteFn(p.secondary.data, cascadeLine)
		ioWaitFn()

		// ICW4: 8086 mode
		portWriteByteFn(p.primary.data, mode8086)
		ioWaitFn()
		portWriteByteFn(p.secondary.data, mode8086)
		ioWaitFn()

		portWriteByteFn(p.primary.data, mask1)
		portWriteByteFn(p.secondary.data, mask2)
	})
}

// Masks returns the interrupt masks currently programmed in the controllers.
func (p *ChainedPICs) Masks() (uint8, uint8) {
	var mask1, mask2 uint8
	p.lock.Do(func() {
		mask1 = portReadByteFn(p.primary.data)
		mask2 = portReadByteFn(p.secondary.data)
	})
	return mask1, mask2
}

// SetMask masks or unmasks a single interrupt line. Lines 0-7 belong to the
// primary controller and lines 8-15 to the secondary.
func (p *ChainedPICs) SetMask(line uint8, masked bool) *kernel.Error {
	if line >= 2*linesPerPIC {
		return errInvalidLine
	}

	ctrl := &p.primary
	if line >= linesPerPIC {
		ctrl, line = &p.secondary, line-linesPerPIC
	}

	p.lock.Do(func() {
		mask := portReadByteFn(ctrl.data)
		if masked {
			mask |= 1 << line
		} else {
			mask &^= 1 << line
		}
		portWriteByteFn(ctrl.data, mask)
	})
	return nil
}

// NotifyEndOfInterrupt acknowledges the interrupt for vector. Interrupts
// routed through the secondary controller must be acknowledged by both
// controllers. Vectors that neither controller handles are ignored.
func (p *ChainedPICs) NotifyEndOfInterrupt(vector uint8) {
	if !p.HandlesInterrupt(vector) {
		return
	}

	state := p.lock.Lock()
	if p.secondary.handlesInterrupt(vector) {
		p.secondary.endOfInterrupt()
	}
	p.primary.endOfInterrupt()
	p.lock.Unlock(state)
}

// DriverName returns the name of this driver.
func (p *ChainedPICs) DriverName() string {
	return "pic8259"
}

// DriverVersion returns the version of this driver.
func (p *ChainedPICs) DriverVersion() (uint16, uint16, uint16) {
	return 1, 0, 0
}

// DriverInit remaps the controllers using the default masks.
func (p *ChainedPICs) DriverInit(w io.Writer) *kernel.Error {
	p.Initialize(DefaultPrimaryMask, DefaultSecondaryMask)
	kfmt.Fprintf(w, "remapped IRQ 0-7 to vectors %d-%d and IRQ 8-15 to vectors %d-%d\n",
		p.primary.offset, p.primary.offset+linesPerPIC-1,
		p.secondary.offset, p.secondary.offset+linesPerPIC-1,
	)
	return nil
}

var _ device.Driver = (*ChainedPICs)(nil)
