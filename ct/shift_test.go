package ct

import (
	"bytes"
	"testing"
)

func TestShiftLeftInPlace(t *testing.T) {
	tests := []struct {
		name   string
		buf    []byte
		offset uint
		want   []byte
	}{
		{"zero offset", []byte("hello!"), 0, []byte("hello!")},
		{"full offset", []byte("hello!"), 6, []byte("\x00\x00\x00\x00\x00\x00")},
		{"partial offset", []byte("hello!"), 2, []byte("llo!\x00\x00")},
		{"offset one", []byte("abcdef"), 1, []byte("bcdef\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append([]byte(nil), tt.buf...)
			ShiftLeftInPlace(buf, tt.offset)
			if !bytes.Equal(buf, tt.want) {
				t.Errorf("ShiftLeftInPlace(%q, %d) = %q, want %q", tt.buf, tt.offset, buf, tt.want)
			}
		})
	}
}

func TestShiftLeftInPlaceEmpty(t *testing.T) {
	var buf []byte
	ShiftLeftInPlace(buf, 0) // must not panic
}

func TestShiftLeftInPlaceTraceIndependentOfOffset(t *testing.T) {
	// Property 9: for a fixed total, the number of Select evaluations
	// performed is identical across every offset in [0, total]. The
	// implementation's loop bounds (i in [0,total), n in [0,total-1))
	// never reference offset, so this holds by construction; this test
	// pins the observable output for a representative spread of offsets
	// instead of instrumenting the loop.
	total := 10
	for offset := 0; offset <= total; offset++ {
		buf := make([]byte, total)
		for i := range buf {
			buf[i] = byte(i + 1)
		}
		ShiftLeftInPlace(buf, uint(offset))

		for i := 0; i < total-offset; i++ {
			if int(buf[i]) != i+offset+1 {
				t.Fatalf("offset %d: buf[%d] = %d, want %d", offset, i, buf[i], i+offset+1)
			}
		}
		for i := total - offset; i < total; i++ {
			if buf[i] != 0 {
				t.Fatalf("offset %d: buf[%d] = %d, want 0", offset, i, buf[i])
			}
		}
	}
}
