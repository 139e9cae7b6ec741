package main

import (
	"bibos/device/video/console"
	"image/color"
	"io"
	"strings"

	"github.com/fogleman/gg"
)

const (
	cellWidth  = 8
	cellHeight = 16
)

// renderCells draws a text mode framebuffer snapshot using the console
// palette. Each cell is filled with its background color and the character
// is drawn centered in its foreground color.
func renderCells(cells [][]console.Cell, palette color.Palette) *gg.Context {
	var cols int
	if len(cells) != 0 {
		cols = len(cells[0])
	}

	dc := gg.NewContext(cols*cellWidth, len(cells)*cellHeight)
	dc.SetColor(palette[console.Black])
	dc.Clear()

	for row, line := range cells {
		for col, cell := range line {
			x, y := float64(col*cellWidth), float64(row*cellHeight)

			if bg := cell.Attr.Background(); bg != console.Black {
				dc.SetColor(palette[bg])
				dc.DrawRectangle(x, y, cellWidth, cellHeight)
				dc.Fill()
			}

			ch := printable(cell.Char)
			if ch == ' ' {
				continue
			}
			dc.SetColor(palette[cell.Attr.Foreground()])
			dc.DrawStringAnchored(string(ch), x+cellWidth/2, y+cellHeight/2, 0.5, 0.5)
		}
	}

	return dc
}

// printable maps framebuffer bytes to characters the default font can draw.
func printable(b byte) rune {
	switch {
	case b == 0:
		return ' '
	case b < 0x20 || b > 0x7e:
		return '#'
	default:
		return rune(b)
	}
}

// mirror redraws the host terminal with the contents of the framebuffer.
func mirror(w io.Writer, cells [][]console.Cell) {
	var sb strings.Builder
	sb.WriteString("\x1b[H")
	for row, line := range cells {
		if row != 0 {
			sb.WriteString("\r\n")
		}
		for _, cell := range line {
			sb.WriteRune(printable(cell.Char))
		}
	}
	_, _ = io.WriteString(w, sb.String())
}
