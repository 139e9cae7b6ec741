package console

// Color is one of the 16 EGA text mode colors.
type Color uint8

// The EGA color indices.
const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	Pink
	Yellow
	White
)

// Attr encodes a foreground and background color pair using 4 bits for each.
type Attr uint8

// ColorCode returns the attribute byte for the fg/bg color pair.
func ColorCode(fg, bg Color) Attr {
	return Attr((bg&0xf)<<4 | (fg & 0xf))
}

// Foreground returns the foreground color of the attribute.
func (a Attr) Foreground() Color { return Color(a & 0xf) }

// Background returns the background color of the attribute.
func (a Attr) Background() Color { return Color(a >> 4) }

// Cell is a character and its color attribute as stored in the framebuffer.
type Cell struct {
	Char byte
	Attr Attr
}

func (c Cell) encode() uint16 {
	return uint16(c.Attr)<<8 | uint16(c.Char)
}

func decodeCell(v uint16) Cell {
	return Cell{Char: byte(v), Attr: Attr(v >> 8)}
}
