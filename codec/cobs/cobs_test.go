package cobs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestEncodeS6 reproduces spec.md's S6 COBS round-trip scenario.
func TestEncodeS6(t *testing.T) {
	src := []byte{0x01, 0x00, 0x02, 0x03, 0x04, 0x00, 0x00, 0x05, 0x06, 0x07, 0x08}
	want := []byte{0x00, 0x02, 0x01, 0x04, 0x02, 0x03, 0x04, 0x01, 0x05, 0x05, 0x06, 0x07, 0x08, 0x00}

	dst := make([]byte, len(src)*2+3)
	n := NewEncoder().Encode(src, dst)

	if diff := cmp.Diff(want, dst[:n]); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeS6(t *testing.T) {
	encoded := []byte{0x00, 0x02, 0x01, 0x04, 0x02, 0x03, 0x04, 0x01, 0x05, 0x05, 0x06, 0x07, 0x08, 0x00}
	want := []byte{0x01, 0x00, 0x02, 0x03, 0x04, 0x00, 0x00, 0x05, 0x06, 0x07, 0x08}

	d := NewDecoder()
	dest := make([]byte, 64)
	var got []byte
	for _, b := range encoded {
		n, err := d.Byte(b, dest)
		if err != nil {
			t.Fatalf("Byte(%#x) error: %v", b, err)
		}
		if n > 0 {
			got = append(got, dest[:n]...)
		}
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripNoZeros(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	dst := make([]byte, len(src)*2+3)
	n := NewEncoder().Encode(src, dst)

	d := NewDecoder()
	dest := make([]byte, 64)
	var got []byte
	for _, b := range dst[:n] {
		m, err := d.Byte(b, dest)
		if err != nil {
			t.Fatalf("Byte(%#x): %v", b, err)
		}
		if m > 0 {
			got = append(got, dest[:m]...)
		}
	}

	if diff := cmp.Diff(src, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
