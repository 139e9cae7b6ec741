package console

import (
	"bibos/device"
	"bibos/kernel"
	"bibos/kernel/cpu"
	"bibos/kernel/hal/bootinfo"
)

var (
	portWriteByteFn = cpu.PortWriteByte
	getBootInfoFn   = bootinfo.GetInfo

	errNoFramebuffer = &kernel.Error{Module: "console", Message: "no framebuffer address supplied"}

	// ProbeFuncs is a slice of device probe functions that is used by
	// the hal package to probe for console device hardware. Each driver
	// should use an init() block to append its probe function to this list.
	ProbeFuncs []device.ProbeFn
)

// probeForVgaText checks the boot information for a text mode framebuffer.
func probeForVgaText() device.Driver {
	info := getBootInfoFn()
	if info.FramebufferAddr == 0 || info.FramebufferWidth == 0 || info.FramebufferHeight == 0 {
		return nil
	}

	return NewVgaText(info.FramebufferWidth, info.FramebufferHeight, info.FramebufferAddr)
}

func init() {
	ProbeFuncs = append(ProbeFuncs, probeForVgaText)
}
