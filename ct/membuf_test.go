package ct

import (
	"bytes"
	"testing"
)

func TestMemCompareEqual(t *testing.T) {
	a := []byte("hello world")
	b := []byte("hello world")
	if got := MemCompare(a, b); got != 0 {
		t.Errorf("MemCompare(equal) = %d, want 0", got)
	}
}

func TestMemCompareDiffers(t *testing.T) {
	a := []byte("hello world")
	b := []byte("hello worlD")
	if got := MemCompare(a, b); got == 0 {
		t.Errorf("MemCompare(differing) = 0, want nonzero")
	}
}

func TestMemCompareEmpty(t *testing.T) {
	if got := MemCompare(nil, nil); got != 0 {
		t.Errorf("MemCompare(nil, nil) = %d, want 0", got)
	}
}

func TestMemCompareMismatchedLengthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MemCompare with mismatched lengths did not panic")
		}
	}()
	MemCompare([]byte("abc"), []byte("ab"))
}

func TestCopyIfEqual(t *testing.T) {
	src := []byte("secretdata")
	dst := make([]byte, len(src))
	original := bytes.Repeat([]byte{0xAA}, len(src))
	copy(dst, original)

	CopyIfEqual(dst, src, 5, 7)
	if !bytes.Equal(dst, original) {
		t.Errorf("CopyIfEqual with c1!=c2 modified dst: got %x, want %x", dst, original)
	}

	CopyIfEqual(dst, src, 5, 5)
	if !bytes.Equal(dst, src) {
		t.Errorf("CopyIfEqual with c1==c2 did not copy: got %x, want %x", dst, src)
	}
}

func TestCopyAtOffset(t *testing.T) {
	src := []byte("0123456789")
	dst := make([]byte, 3)

	CopyAtOffset(dst, src, 4, 0, 7)
	if !bytes.Equal(dst, []byte("456")) {
		t.Errorf("CopyAtOffset = %q, want %q", dst, "456")
	}
}

func TestCopyAtOffsetBadRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("CopyAtOffset with offsetMin > offsetMax did not panic")
		}
	}()
	dst := make([]byte, 2)
	CopyAtOffset(dst, []byte("abcdef"), 2, 5, 1)
}
