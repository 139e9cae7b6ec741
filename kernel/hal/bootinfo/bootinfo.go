// Package bootinfo holds the machine description handed to the kernel by the
// platform entry point: where the text framebuffer lives, which virtual range
// is reserved for the heap and the boot command line.
package bootinfo

import "strings"

// Info describes the machine the kernel boots on.
type Info struct {
	// FramebufferAddr is the address of the text mode framebuffer. A zero
	// value means that no text console is present.
	FramebufferAddr   uintptr
	FramebufferWidth  uint32
	FramebufferHeight uint32

	// HeapStart and HeapSize describe a mapped, unused memory range that
	// is handed over to the kernel heap.
	HeapStart uintptr
	HeapSize  uint64

	// CmdLine is the raw boot command line.
	CmdLine string
}

var (
	info      Info
	cmdLineKV map[string]string
)

// SetInfo records the boot information. It is invoked by the platform entry
// point before the kernel main function runs.
func SetInfo(i Info) {
	info = i
	cmdLineKV = nil
}

// GetInfo returns the boot information.
func GetInfo() Info {
	return info
}

// CmdLine returns the boot command line parsed into key/value pairs. Entries
// have the form key=value; a bare flag maps to itself.
func CmdLine() map[string]string {
	if cmdLineKV != nil {
		return cmdLineKV
	}

	cmdLineKV = make(map[string]string)
	for _, pair := range strings.Fields(info.CmdLine) {
		kv := strings.Split(pair, "=")
		switch len(kv) {
		case 2: // foo=bar
			cmdLineKV[kv[0]] = kv[1]
		case 1: // nofoo
			cmdLineKV[kv[0]] = kv[0]
		}
	}

	return cmdLineKV
}
