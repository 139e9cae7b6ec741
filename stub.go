package main

import (
	"bibos/kernel/hal/bootinfo"
	"bibos/kernel/kmain"
	"bibos/kernel/mem/heap"
)

const (
	vgaTextFramebuffer = 0xb8000
	vgaTextColumns     = 80
	vgaTextRows        = 25
)

// cmdLine is patched by the boot loader glue before main runs.
var cmdLine string

// main is the platform entry point for bare-metal builds. The boot code
// identity maps the VGA text framebuffer and maps the kernel heap at
// heap.HeapStart before jumping here. Hosted runs go through tools/hostrun
// instead.
func main() {
	bootinfo.SetInfo(bootinfo.Info{
		FramebufferAddr:   vgaTextFramebuffer,
		FramebufferWidth:  vgaTextColumns,
		FramebufferHeight: vgaTextRows,
		HeapStart:         heap.HeapStart,
		HeapSize:          uint64(heap.HeapSize),
		CmdLine:           cmdLine,
	})

	kmain.Kmain()
}
