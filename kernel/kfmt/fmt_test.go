package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintf(t *testing.T) {
	specs := []struct {
		fn        func(*bytes.Buffer)
		expOutput string
	}{
		{
			func(w *bytes.Buffer) { Fprintf(w, "no args") },
			"no args",
		},
		// bool values
		{
			func(w *bytes.Buffer) { Fprintf(w, "%t", true) },
			"true",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "%41t", false) },
			"false",
		},
		// strings and byte slices
		{
			func(w *bytes.Buffer) { Fprintf(w, "%s arg", "STRING") },
			"STRING arg",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "%s arg", []byte("BYTE SLICE")) },
			"BYTE SLICE arg",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "'%4s' arg with padding", "ABC") },
			"' ABC' arg with padding",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "'%4s' arg longer than padding", "ABCDE") },
			"'ABCDE' arg longer than padding",
		},
		// chars
		{
			func(w *bytes.Buffer) { Fprintf(w, "[%c%c]", byte('a'), 'b') },
			"[ab]",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "%c", 'λ') },
			"?",
		},
		// uints
		{
			func(w *bytes.Buffer) { Fprintf(w, "uint arg: %d", uint8(10)) },
			"uint arg: 10",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "uint arg: %o", uint16(0777)) },
			"uint arg: 777",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "uint arg: 0x%x", uint32(0xbadf00d)) },
			"uint arg: 0xbadf00d",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "uint arg with padding: '%10d'", uint64(123)) },
			"uint arg with padding: '       123'",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "uint arg with padding: '%4o'", uint64(0777)) },
			"uint arg with padding: '0777'",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "uint arg with padding: '0x%16x'", uint64(0xbadf00d)) },
			"uint arg with padding: '0x000000000badf00d'",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "uintptr arg: 0x%x", uintptr(0xb8000)) },
			"uintptr arg: 0xb8000",
		},
		// ints
		{
			func(w *bytes.Buffer) { Fprintf(w, "int arg: %d", int8(-10)) },
			"int arg: -10",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "int arg: %o", int16(0777)) },
			"int arg: 777",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "int arg: %x", int32(-0xbadf00d)) },
			"int arg: -badf00d",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "int arg with padding: '%10d'", int64(-12345678)) },
			"int arg with padding: ' -12345678'",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "int arg with padding: '%10d'", int(-123)) },
			"int arg with padding: '      -123'",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "int arg with padding: '%5x'", -0xf00) },
			"int arg with padding: '-0f00'",
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "padding larger than buffer: '%99d'", 0) },
			"padding larger than buffer: '" + string(bytes.Repeat([]byte{' '}, maxBufSize-2)) + "0'",
		},
		// multiple arguments
		{
			func(w *bytes.Buffer) { Fprintf(w, "%%%s%d%t", "foo", 123, true) },
			`%foo123true`,
		},
		// errors
		{
			func(w *bytes.Buffer) { Fprintf(w, "more args", "foo", "bar", "baz") },
			`more args%!(EXTRA)%!(EXTRA)%!(EXTRA)`,
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "missing args %s") },
			`missing args (MISSING)`,
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "bad verb %Q") },
			`bad verb %!(NOVERB)`,
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "no verb %") },
			`no verb %!(NOVERB)`,
		},
		{
			func(w *bytes.Buffer) { Fprintf(w, "wrong type %d %t %s %c", "foo", 1, 2, 3.0) },
			`wrong type %!(WRONGTYPE) %!(WRONGTYPE) %!(WRONGTYPE) %!(WRONGTYPE)`,
		},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		spec.fn(&buf)

		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected to get %q; got %q", specIndex, spec.expOutput, got)
		}
	}
}

func TestPrintfSinks(t *testing.T) {
	defer func() {
		outputSink, diagnosticSink = nil, nil
		earlyPrintBuffer = ringBuffer{}
	}()

	outputSink, diagnosticSink = nil, nil
	earlyPrintBuffer = ringBuffer{}

	Printf("early %d", 1)
	Eprintf(" and %d", 2)

	var stdout, stderr bytes.Buffer
	SetOutputSink(&stdout)
	if got, exp := stdout.String(), "early 1 and 2"; got != exp {
		t.Fatalf("expected early output %q to be flushed to the sink; got %q", exp, got)
	}
	if GetOutputSink() != &stdout {
		t.Fatal("expected GetOutputSink to return the attached sink")
	}

	// Without a diagnostic sink Eprintf falls back to the output sink
	Eprintf("!")
	if got := stdout.String(); got != "early 1 and 2!" {
		t.Fatalf("expected Eprintf to fall back to the output sink; got %q", got)
	}

	SetDiagnosticSink(&stderr)
	Printf("out")
	Eprintf("err")

	if got := stdout.String(); got != "early 1 and 2!out" {
		t.Fatalf("unexpected stdout contents %q", got)
	}
	if got := stderr.String(); got != "err" {
		t.Fatalf("unexpected stderr contents %q", got)
	}
}
