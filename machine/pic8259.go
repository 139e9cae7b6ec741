package machine

import "sync"

const (
	icw1Init     = 0x10
	icw1NeedICW4 = 0x01
	ocw2EOI      = 0x20
	ocw3Select   = 0x08
	ocw3ReadISR  = 0x03

	cascadeLine = 2

	// The offsets programmed by the BIOS before the kernel remaps the
	// controllers. The primary range collides with the CPU exceptions.
	biosPrimaryOffset   = 0x08
	biosSecondaryOffset = 0x70
)

type initStep uint8

const (
	initDone initStep = iota
	awaitICW2
	awaitICW3
	awaitICW4
)

// chip holds the register file of a single 8259.
type chip struct {
	offset uint8
	imr    uint8
	irr    uint8
	isr    uint8

	step      initStep
	needICW4  bool
	readISR   bool
	initCount int
}

func (c *chip) command(val uint8) {
	switch {
	case val&icw1Init != 0:
		// ICW1 restarts initialization and clears the mask register.
		c.step = awaitICW2
		c.needICW4 = val&icw1NeedICW4 != 0
		c.imr, c.isr, c.irr = 0, 0, 0
		c.readISR = false
	case val&ocw3Select != 0:
		if val&0x02 != 0 {
			c.readISR = val&ocw3ReadISR == ocw3ReadISR
		}
	case val&0xe0 == ocw2EOI:
		c.endOfInterrupt()
	}
}

func (c *chip) data(val uint8) {
	switch c.step {
	case awaitICW2:
		c.offset = val &^ 0x07
		c.step = awaitICW3
	case awaitICW3:
		if c.needICW4 {
			c.step = awaitICW4
		} else {
			c.step = initDone
			c.initCount++
		}
	case awaitICW4:
		c.step = initDone
		c.initCount++
	default:
		c.imr = val
	}
}

// endOfInterrupt clears the highest priority in-service bit.
func (c *chip) endOfInterrupt() {
	for line := uint8(0); line < 8; line++ {
		if c.isr&(1<<line) != 0 {
			c.isr &^= 1 << line
			return
		}
	}
}

// highestRequest returns the line that would be acknowledged next. Lines of
// lower priority than one that is in service are held back; cascaded reports
// whether the cascade input is asserted.
func (c *chip) highestRequest(cascaded bool) (uint8, bool) {
	irr := c.irr
	if cascaded {
		irr |= 1 << cascadeLine
	}

	for line := uint8(0); line < 8; line++ {
		bit := uint8(1) << line
		if c.isr&bit != 0 {
			return 0, false
		}
		if irr&bit != 0 && c.imr&bit == 0 {
			return line, true
		}
	}
	return 0, false
}

// PIC8259Pair emulates the two cascaded 8259 interrupt controllers of a PC.
// It is attached to the command and data ports of both chips and acts as the
// CPU's interrupt line.
type PIC8259Pair struct {
	mu        sync.Mutex
	primary   chip
	secondary chip
}

// NewPIC8259Pair returns a controller pair in the state the BIOS leaves it.
func NewPIC8259Pair() *PIC8259Pair {
	return &PIC8259Pair{
		primary:   chip{offset: biosPrimaryOffset},
		secondary: chip{offset: biosSecondaryOffset},
	}
}

func (p *PIC8259Pair) chipFor(port uint16) (*chip, bool) {
	switch port {
	case 0x20:
		return &p.primary, true
	case 0x21:
		return &p.primary, false
	case 0xa0:
		return &p.secondary, true
	default:
		return &p.secondary, false
	}
}

// PortWrite implements cpu.PortDevice.
func (p *PIC8259Pair) PortWrite(port uint16, _ uint8, val uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, isCommand := p.chipFor(port)
	if isCommand {
		c.command(uint8(val))
	} else {
		c.data(uint8(val))
	}
}

// PortRead implements cpu.PortDevice. The data port returns the mask
// register; the command port returns the request or in-service register as
// selected by the last OCW3.
func (p *PIC8259Pair) PortRead(port uint16, _ uint8) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, isCommand := p.chipFor(port)
	switch {
	case !isCommand:
		return uint32(c.imr)
	case c.readISR:
		return uint32(c.isr)
	default:
		return uint32(c.irr)
	}
}

// RaiseIRQ latches an edge on the supplied line (0-15). Lines 8-15 belong to
// the secondary controller; line 2 carries the cascade and cannot be raised
// directly. Raising a line whose request is already latched has no further
// effect.
func (p *PIC8259Pair) RaiseIRQ(line uint8) {
	p.mu.Lock()
	switch {
	case line == cascadeLine:
	case line < 8:
		p.primary.irr |= 1 << line
	case line < 16:
		p.secondary.irr |= 1 << (line - 8)
	}
	p.mu.Unlock()
}

// Pending implements cpu.InterruptLine.
func (p *PIC8259Pair) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.primary.highestRequest(p.secondaryRequest())
	return ok
}

// Acknowledge implements cpu.InterruptLine. It moves the highest priority
// request into service and returns its vector.
func (p *PIC8259Pair) Acknowledge() (uint8, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line, ok := p.primary.highestRequest(p.secondaryRequest())
	if !ok {
		return 0, false
	}

	p.primary.irr &^= 1 << line
	p.primary.isr |= 1 << line
	if line != cascadeLine {
		return p.primary.offset + line, true
	}

	sline, _ := p.secondary.highestRequest(false)
	p.secondary.irr &^= 1 << sline
	p.secondary.isr |= 1 << sline
	return p.secondary.offset + sline, true
}

func (p *PIC8259Pair) secondaryRequest() bool {
	_, ok := p.secondary.highestRequest(false)
	return ok
}

// Offsets returns the vector offsets currently programmed into the chips.
func (p *PIC8259Pair) Offsets() (uint8, uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.primary.offset, p.secondary.offset
}

// Masks returns the mask registers of both chips.
func (p *PIC8259Pair) Masks() (uint8, uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.primary.imr, p.secondary.imr
}

// InService returns the in-service registers of both chips.
func (p *PIC8259Pair) InService() (uint8, uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.primary.isr, p.secondary.isr
}

// Initialized reports whether both chips have completed an ICW sequence.
func (p *PIC8259Pair) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.primary.initCount != 0 && p.secondary.initCount != 0
}
