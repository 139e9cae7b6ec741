// Package console provides the driver for the memory-mapped VGA text mode
// framebuffer.
package console

import (
	"bibos/kernel"
	"bibos/kernel/kfmt"
	"image/color"
	"io"
	"unsafe"
)

// VgaText implements an EGA-compatible text console using VGA mode 0x3.
//
// Each character in the console framebuffer is represented using two bytes,
// a byte for the character ASCII code and a byte that encodes the foreground
// and background colors (4 bits for each). Row and column coordinates are
// 0-based.
//
// The framebuffer is device memory: every load and store goes through the
// non-inlined loadCell/storeCell helpers so the compiler can neither elide
// nor merge them.
type VgaText struct {
	width  uint32
	height uint32

	fbAddr uintptr
	fb     []uint16

	palette color.Palette
}

// NewVgaText creates a new vga text console with its framebuffer located
// at fbAddr. The framebuffer is not accessed until DriverInit is invoked.
func NewVgaText(columns, rows uint32, fbAddr uintptr) *VgaText {
	return &VgaText{
		width:  columns,
		height: rows,
		fbAddr: fbAddr,
		palette: color.Palette{
			color.RGBA{R: 0, G: 0, B: 0, A: 255},       /* black */
			color.RGBA{R: 0, G: 0, B: 170, A: 255},     /* blue */
			color.RGBA{R: 0, G: 170, B: 0, A: 255},     /* green */
			color.RGBA{R: 0, G: 170, B: 170, A: 255},   /* cyan */
			color.RGBA{R: 170, G: 0, B: 0, A: 255},     /* red */
			color.RGBA{R: 170, G: 0, B: 170, A: 255},   /* magenta */
			color.RGBA{R: 170, G: 85, B: 0, A: 255},    /* brown */
			color.RGBA{R: 170, G: 170, B: 170, A: 255}, /* light gray */
			color.RGBA{R: 85, G: 85, B: 85, A: 255},    /* dark gray */
			color.RGBA{R: 85, G: 85, B: 255, A: 255},   /* light blue */
			color.RGBA{R: 85, G: 255, B: 85, A: 255},   /* light green */
			color.RGBA{R: 85, G: 255, B: 255, A: 255},  /* light cyan */
			color.RGBA{R: 255, G: 85, B: 85, A: 255},   /* light red */
			color.RGBA{R: 255, G: 85, B: 255, A: 255},  /* pink */
			color.RGBA{R: 255, G: 255, B: 85, A: 255},  /* yellow */
			color.RGBA{R: 255, G: 255, B: 255, A: 255}, /* white */
		},
	}
}

// Dimensions returns the console width and height in characters.
func (cons *VgaText) Dimensions() (uint32, uint32) {
	return cons.width, cons.height
}

// ReadCell returns the contents of the cell at (row, col). Reading outside
// the grid returns an empty cell.
func (cons *VgaText) ReadCell(row, col uint32) Cell {
	if row >= cons.height || col >= cons.width || cons.fb == nil {
		return Cell{}
	}
	return decodeCell(loadCell(&cons.fb[row*cons.width+col]))
}

// WriteCell stores c at (row, col). Writes outside the grid are ignored.
func (cons *VgaText) WriteCell(row, col uint32, c Cell) {
	if row >= cons.height || col >= cons.width || cons.fb == nil {
		return
	}
	storeCell(&cons.fb[row*cons.width+col], c.encode())
}

// Clear fills the whole grid with c.
func (cons *VgaText) Clear(c Cell) {
	v := c.encode()
	for i := range cons.fb {
		storeCell(&cons.fb[i], v)
	}
}

// Palette returns the active color palette for this console.
func (cons *VgaText) Palette() color.Palette {
	return cons.palette
}

// SetPaletteColor updates the color definition for the specified
// palette index. Passing a color index greater than the number of
// supported colors is a no-op.
func (cons *VgaText) SetPaletteColor(index Color, rgba color.RGBA) {
	if int(index) >= len(cons.palette) {
		return
	}

	cons.palette[index] = rgba

	// Load palette entry to the DAC. In this mode, colors are specified
	// using 6-bits for each component; the RGB values need to be converted
	// to the 0-63 range.
	portWriteByteFn(0x3c8, uint8(index))
	portWriteByteFn(0x3c9, rgba.R>>2)
	portWriteByteFn(0x3c9, rgba.G>>2)
	portWriteByteFn(0x3c9, rgba.B>>2)
}

// DriverName returns the name of this driver.
func (cons *VgaText) DriverName() string {
	return "vga_text_console"
}

// DriverVersion returns the version of this driver.
func (cons *VgaText) DriverVersion() (uint16, uint16, uint16) {
	return 1, 0, 0
}

// DriverInit initializes this driver.
func (cons *VgaText) DriverInit(w io.Writer) *kernel.Error {
	if cons.fbAddr == 0 {
		return errNoFramebuffer
	}

	cons.fb = unsafe.Slice((*uint16)(unsafe.Pointer(cons.fbAddr)), int(cons.width*cons.height))
	kfmt.Fprintf(w, "framebuffer at 0x%x (%dx%d)\n", cons.fbAddr, cons.width, cons.height)
	return nil
}

//go:noinline
func loadCell(p *uint16) uint16 {
	return *p
}

//go:noinline
func storeCell(p *uint16, v uint16) {
	*p = v
}
