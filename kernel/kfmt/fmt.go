// Package kfmt implements the kernel's formatted output. The formatter never
// allocates so it can be used from interrupt handlers and before the kernel
// heap is initialized.
package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize defines the buffer size for formatting numbers.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// earlyPrintBuffer captures output produced before a sink is attached.
	earlyPrintBuffer ringBuffer

	// outputSink receives Printf output; diagnosticSink receives Eprintf
	// output. A nil diagnosticSink falls back to outputSink and a nil
	// outputSink falls back to earlyPrintBuffer.
	outputSink     io.Writer
	diagnosticSink io.Writer
)

// formatter holds the scratch buffers used while rendering a single format
// string. Printf and Eprintf keep one each so a diagnostic message emitted by
// an interrupt handler cannot clobber a Printf that was interrupted midway.
type formatter struct {
	num    [maxBufSize + 1]byte
	single [1]byte
}

var (
	stdFormatter  formatter
	diagFormatter formatter
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the early print buffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		_, _ = io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the default target for calls to Printf.
func GetOutputSink() io.Writer {
	return outputSink
}

// SetDiagnosticSink sets the target for calls to Eprintf.
func SetDiagnosticSink(w io.Writer) {
	diagnosticSink = w
}

// GetDiagnosticSink returns the target used by Eprintf.
func GetDiagnosticSink() io.Writer {
	if diagnosticSink != nil {
		return diagnosticSink
	}
	return outputSink
}

// Printf provides a minimal Printf implementation that can be safely used
// before the heap is available and from interrupt context. The following
// subset of formatting verbs is supported:
//
//	%s the uninterpreted bytes of a string or byte slice
//	%c a single byte or rune (runes above 0xff print as '?')
//	%o base 8
//	%d base 10
//	%x base 16, with lower-case letters for a-f
//	%t "true" or "false"
//
// Width is specified by an optional decimal number immediately preceding the
// verb. Strings and base-10 integers are left-padded with spaces; base-8 and
// base-16 integers are left-padded with zeroes.
func Printf(format string, args ...interface{}) {
	stdFormatter.fprintf(outputSink, format, args...)
}

// Eprintf behaves like Printf but writes to the diagnostic sink.
func Eprintf(format string, args ...interface{}) {
	diagFormatter.fprintf(GetDiagnosticSink(), format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var f formatter
	f.fprintf(w, format, args...)
}

func (f *formatter) fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		nextArgIndex int
		padLen       int
		fmtLen       = len(format)
	)

	for i := 0; i < fmtLen; i++ {
		if format[i] != '%' {
			f.writeByte(w, format[i])
			continue
		}

		padLen = 0
	parseVerb:
		for i++; i < fmtLen; i++ {
			ch := format[i]
			switch {
			case ch == '%':
				f.writeByte(w, '%')
				break parseVerb
			case ch >= '0' && ch <= '9':
				padLen = (padLen * 10) + int(ch-'0')
			case ch == 'd' || ch == 'x' || ch == 'o' || ch == 's' || ch == 't' || ch == 'c':
				if nextArgIndex >= len(args) {
					doWrite(w, errMissingArg)
					break parseVerb
				}

				arg := args[nextArgIndex]
				nextArgIndex++

				switch ch {
				case 'o':
					f.fmtInt(w, arg, 8, padLen)
				case 'd':
					f.fmtInt(w, arg, 10, padLen)
				case 'x':
					f.fmtInt(w, arg, 16, padLen)
				case 's':
					f.fmtString(w, arg, padLen)
				case 't':
					fmtBool(w, arg)
				case 'c':
					f.fmtChar(w, arg)
				}
				break parseVerb
			default:
				doWrite(w, errNoVerb)
				break parseVerb
			}
		}

		if i == fmtLen {
			// format ended while scanning for a verb
			doWrite(w, errNoVerb)
		}
	}

	for ; nextArgIndex < len(args); nextArgIndex++ {
		doWrite(w, errExtraArg)
	}
}

func (f *formatter) writeByte(w io.Writer, b byte) {
	f.single[0] = b
	doWrite(w, f.single[:])
}

func fmtBool(w io.Writer, v interface{}) {
	bVal, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case bVal:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

func (f *formatter) fmtChar(w io.Writer, v interface{}) {
	switch ch := v.(type) {
	case byte:
		f.writeByte(w, ch)
	case rune:
		if ch < 0 || ch > 0xff {
			ch = '?'
		}
		f.writeByte(w, byte(ch))
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtString prints a string or []byte value, left-padded to padLen.
func (f *formatter) fmtString(w io.Writer, v interface{}, padLen int) {
	switch castedVal := v.(type) {
	case string:
		f.fmtRepeat(w, ' ', padLen-len(castedVal))
		// converting the string to a byte slice would allocate so it
		// gets written one byte at a time.
		for i := 0; i < len(castedVal); i++ {
			f.writeByte(w, castedVal[i])
		}
	case []byte:
		f.fmtRepeat(w, ' ', padLen-len(castedVal))
		doWrite(w, castedVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

func (f *formatter) fmtRepeat(w io.Writer, ch byte, count int) {
	for i := 0; i < count; i++ {
		f.writeByte(w, ch)
	}
}

// fmtInt prints v in the requested base applying the padding specified by
// padLen. All built-in signed and unsigned integer types are supported.
func (f *formatter) fmtInt(w io.Writer, v interface{}, base, padLen int) {
	var (
		uval     uint64
		negative bool
		padCh    byte = '0'
		divider       = uint64(base)
		right    int
	)

	if padLen >= maxBufSize {
		padLen = maxBufSize - 1
	}

	if base == 10 {
		padCh = ' '
	}

	switch t := v.(type) {
	case uint8:
		uval = uint64(t)
	case uint16:
		uval = uint64(t)
	case uint32:
		uval = uint64(t)
	case uint64:
		uval = t
	case uint:
		uval = uint64(t)
	case uintptr:
		uval = uint64(t)
	case int8:
		uval, negative = abs(int64(t))
	case int16:
		uval, negative = abs(int64(t))
	case int32:
		uval, negative = abs(int64(t))
	case int64:
		uval, negative = abs(t)
	case int:
		uval, negative = abs(int64(t))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	// Digits are generated in reverse order
	for right < maxBufSize {
		remainder := uval % divider
		if remainder < 10 {
			f.num[right] = byte(remainder) + '0'
		} else {
			f.num[right] = byte(remainder-10) + 'a'
		}
		right++

		uval /= divider
		if uval == 0 {
			break
		}
	}

	// Zero padding goes between the sign and the digits; space padding
	// goes before the sign.
	if padCh == '0' {
		zeroPadLen := padLen
		if negative {
			zeroPadLen--
		}
		for ; right < zeroPadLen; right++ {
			f.num[right] = '0'
		}
	}
	if negative {
		f.num[right] = '-'
		right++
	}
	for ; right < padLen; right++ {
		f.num[right] = padCh
	}

	for left, end := 0, right-1; left < end; left, end = left+1, end-1 {
		f.num[left], f.num[end] = f.num[end], f.num[left]
	}

	doWrite(w, f.num[:right])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

// doWrite hides p from the compiler's escape analysis. Without this hack the
// compiler cannot prove that p does not escape through the io.Writer
// interface call and moves every scratch buffer to the heap.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		_, _ = w.Write(p)
	} else {
		_, _ = earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
