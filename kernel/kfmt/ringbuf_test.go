package kfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	var (
		buf      bytes.Buffer
		expStr   = "the big brown fox jumped over the lazy dog"
		rb       ringBuffer
		readBuf  = make([]byte, 8)
		overflow = ringBufferSize + 7
	)

	t.Run("read/write", func(t *testing.T) {
		rb = ringBuffer{}
		buf.Reset()
		_, _ = rb.Write([]byte(expStr))

		if _, err := io.Copy(&buf, &rb); err != nil {
			t.Fatal(err)
		}

		if got := buf.String(); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}

		if n, err := rb.Read(readBuf); n != 0 || err != io.EOF {
			t.Fatalf("expected a drained buffer to return (0, io.EOF); got (%d, %v)", n, err)
		}
	})

	t.Run("overwrite oldest bytes", func(t *testing.T) {
		rb = ringBuffer{}
		buf.Reset()

		for i := 0; i < overflow; i++ {
			_, _ = rb.Write([]byte{byte('a' + i%26)})
		}

		if _, err := io.Copy(&buf, &rb); err != nil {
			t.Fatal(err)
		}

		got := buf.Bytes()
		if len(got) != ringBufferSize-1 {
			t.Fatalf("expected to read back %d bytes; got %d", ringBufferSize-1, len(got))
		}

		if exp := byte('a' + (overflow-1)%26); got[len(got)-1] != exp {
			t.Fatalf("expected last byte to be %q; got %q", exp, got[len(got)-1])
		}
	})

	t.Run("empty read buffer", func(t *testing.T) {
		rb = ringBuffer{}
		_, _ = rb.Write([]byte("x"))
		if n, err := rb.Read(nil); n != 0 || err != nil {
			t.Fatalf("expected (0, nil) for an empty destination; got (%d, %v)", n, err)
		}
	})
}
