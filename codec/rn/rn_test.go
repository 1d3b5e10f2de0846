package rn

import (
	"testing"

	"github.com/lassohost/lasso/codec"
)

func TestDecoderAccumulatesUntilCRLF(t *testing.T) {
	d := NewDecoder()
	dest := make([]byte, 16)

	for _, b := range []byte("abc") {
		n, err := d.Byte(b, dest)
		if err != nil || n != 0 {
			t.Fatalf("Byte(%q) = %d, %v; want 0, nil", b, n, err)
		}
	}
	if n, err := d.Byte('\r', dest); err != nil || n != 0 {
		t.Fatalf("Byte('\\r') = %d, %v; want 0, nil", n, err)
	}
	n, err := d.Byte('\n', dest)
	if err != nil {
		t.Fatalf("Byte('\\n') error: %v", err)
	}
	if n != 3 || string(dest[:n]) != "abc" {
		t.Fatalf("decoded %q (n=%d), want \"abc\"", dest[:n], n)
	}
}

func TestDecoderRejectsBareLF(t *testing.T) {
	d := NewDecoder()
	dest := make([]byte, 16)
	d.Byte('a', dest)
	if _, err := d.Byte('\n', dest); err != codec.ErrIllegalSequence {
		t.Fatalf("err = %v, want ErrIllegalSequence", err)
	}
}

func TestDecoderOverrunResets(t *testing.T) {
	d := NewDecoder()
	dest := make([]byte, 2)
	d.Byte('a', dest)
	d.Byte('b', dest)
	if _, err := d.Byte('c', dest); err != codec.ErrOverrun {
		t.Fatalf("err = %v, want ErrOverrun", err)
	}
}

func TestEncoderAppendsCRLF(t *testing.T) {
	e := NewEncoder()
	dst := make([]byte, 8)
	n := e.Encode([]byte("hi"), dst)
	if n != 4 || string(dst[:n]) != "hi\r\n" {
		t.Fatalf("Encode = %q (n=%d), want \"hi\\r\\n\"", dst[:n], n)
	}
}
