package crc

import "testing"

func TestXORWidths(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A}

	x := XOR{W: 1}
	if got := x.Sum(data); got != uint32(0x12^0x34^0x56^0x78^0x9A) {
		t.Fatalf("width-1 sum = %#x", got)
	}
	if x.Width() != 1 {
		t.Fatalf("Width() = %d, want 1", x.Width())
	}

	x4 := XOR{W: 4}
	if x4.Width() != 4 {
		t.Fatalf("Width() = %d, want 4", x4.Width())
	}
}

func TestXORInvalidWidthDefaultsToOne(t *testing.T) {
	x := XOR{W: 3}
	if x.Width() != 1 {
		t.Fatalf("Width() = %d, want 1 for an unsupported configured width", x.Width())
	}
}

func TestCCITTKnownVector(t *testing.T) {
	// CRC-16/CCITT-FALSE of ASCII "123456789" is the well-known 0x29B1.
	c := CCITT{}
	got := c.Sum([]byte("123456789"))
	if got != 0x29B1 {
		t.Fatalf("CCITT sum = %#x, want 0x29b1", got)
	}
	if c.Width() != 2 {
		t.Fatalf("Width() = %d, want 2", c.Width())
	}
}

func TestAppendWidthLittleEndian(t *testing.T) {
	dst := make([]byte, 2)
	AppendWidth(dst, 0xABCD, 2)
	if dst[0] != 0xCD || dst[1] != 0xAB {
		t.Fatalf("dst = %v, want [0xCD 0xAB]", dst)
	}
}
