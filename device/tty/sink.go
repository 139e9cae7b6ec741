// Package tty implements text output sinks on top of a character grid.
package tty

import (
	"bibos/device/video/console"
	"bibos/kernel"
	"bibos/kernel/sync"
)

// placeholder replaces bytes outside the printable ASCII range.
const placeholder = 0xfe

var (
	errOutOfBounds = &kernel.Error{Module: "tty", Message: "position outside the character grid"}

	blank = console.Cell{Char: ' ', Attr: console.ColorCode(console.Black, console.Black)}
)

// Grid is implemented by character grid devices that a Sink can render to.
type Grid interface {
	// Dimensions returns the grid width and height in characters.
	Dimensions() (uint32, uint32)

	// ReadCell returns the cell at the 0-based (row, col) position.
	ReadCell(row, col uint32) console.Cell

	// WriteCell updates the cell at the 0-based (row, col) position.
	WriteCell(row, col uint32, c console.Cell)
}

// Sink writes text to the bottom row of a grid using a fixed color attribute.
// When the row fills up or a newline is written, every row is copied one
// position up and the bottom row is cleared. Each Sink serializes access
// through its own lock; several sinks may share one grid but writes
// interleaved across sinks are not atomic with respect to each other.
type Sink struct {
	lock sync.IRQSpinlock

	grid   Grid
	attr   console.Attr
	width  uint32
	height uint32
	column uint32
}

// NewSink returns a Sink that renders to grid using attr.
func NewSink(grid Grid, attr console.Attr) *Sink {
	w, h := grid.Dimensions()
	return &Sink{
		grid:   grid,
		attr:   attr,
		width:  w,
		height: h,
	}
}

// Attr returns the color attribute used by the sink.
func (s *Sink) Attr() console.Attr {
	return s.attr
}

// Dimensions returns the width and height of the underlying grid.
func (s *Sink) Dimensions() (uint32, uint32) {
	return s.width, s.height
}

// Column returns the column where the next byte will be written.
func (s *Sink) Column() uint32 {
	var col uint32
	s.lock.Do(func() { col = s.column })
	return col
}

// WriteByte implements io.ByteWriter.
func (s *Sink) WriteByte(b byte) error {
	state := s.lock.Lock()
	s.putByte(b)
	s.lock.Unlock(state)
	return nil
}

// Write implements io.Writer. Writes never fail.
func (s *Sink) Write(p []byte) (int, error) {
	state := s.lock.Lock()
	for _, b := range p {
		s.putByte(b)
	}
	s.lock.Unlock(state)
	return len(p), nil
}

// WriteString implements io.StringWriter.
func (s *Sink) WriteString(str string) (int, error) {
	state := s.lock.Lock()
	for i := 0; i < len(str); i++ {
		s.putByte(str[i])
	}
	s.lock.Unlock(state)
	return len(str), nil
}

// WriteAt stores b at the 0-based (row, col) position without moving the
// cursor.
func (s *Sink) WriteAt(b byte, row, col uint32) *kernel.Error {
	if row >= s.height || col >= s.width {
		return errOutOfBounds
	}

	state := s.lock.Lock()
	s.grid.WriteCell(row, col, console.Cell{Char: printable(b), Attr: s.attr})
	s.lock.Unlock(state)
	return nil
}

// ReadRow appends the characters of the requested row to dst and returns the
// extended slice.
func (s *Sink) ReadRow(row uint32, dst []byte) ([]byte, *kernel.Error) {
	if row >= s.height {
		return dst, errOutOfBounds
	}

	state := s.lock.Lock()
	for col := uint32(0); col < s.width; col++ {
		dst = append(dst, s.grid.ReadCell(row, col).Char)
	}
	s.lock.Unlock(state)
	return dst, nil
}

// Modify replaces the character at (row, col) with the value returned by fn.
// The read and the write happen inside the same critical section.
func (s *Sink) Modify(row, col uint32, fn func(byte) byte) *kernel.Error {
	if row >= s.height || col >= s.width {
		return errOutOfBounds
	}

	state := s.lock.Lock()
	cur := s.grid.ReadCell(row, col)
	s.grid.WriteCell(row, col, console.Cell{Char: printable(fn(cur.Char)), Attr: s.attr})
	s.lock.Unlock(state)
	return nil
}

// Clear blanks the whole grid and moves the cursor to the start of the
// bottom row.
func (s *Sink) Clear() {
	state := s.lock.Lock()
	for row := uint32(0); row < s.height; row++ {
		s.clearRow(row)
	}
	s.column = 0
	s.lock.Unlock(state)
}

// putByte must be called with the lock held.
func (s *Sink) putByte(b byte) {
	if b == '\n' {
		s.newLine()
		return
	}

	if s.column >= s.width {
		s.newLine()
	}

	s.grid.WriteCell(s.height-1, s.column, console.Cell{Char: printable(b), Attr: s.attr})
	s.column++
}

func (s *Sink) newLine() {
	for row := uint32(1); row < s.height; row++ {
		for col := uint32(0); col < s.width; col++ {
			s.grid.WriteCell(row-1, col, s.grid.ReadCell(row, col))
		}
	}
	s.clearRow(s.height - 1)
	s.column = 0
}

func (s *Sink) clearRow(row uint32) {
	for col := uint32(0); col < s.width; col++ {
		s.grid.WriteCell(row, col, blank)
	}
}

func printable(b byte) byte {
	if b >= 0x20 && b <= 0x7e {
		return b
	}
	return placeholder
}
