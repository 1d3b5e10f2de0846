// Package cell implements the Lasso data-cell model: the packed type
// bitfield, the ordered registry clients see as the "data space", and
// the protocol-info word advertised to clients.
package cell

// Type is the 16-bit packed attribute word carried by every DataCell.
// Layout (bit 0 is least significant):
//
//	bit  0    enabled in current strobe
//	bits 1-3  byte width code (0->1, 1->2, 2->4, 3->8)
//	bits 4-7  kind (0=bool,1=char,2=uint,3=int,4=float)
//	bit  8    writeable by client
//	bit  9    permanent strobe member
//
// The on-wire representation is part of the protocol and must not
// change shape even though Go could express these as separate fields.
type Type uint16

// Kind enumerates the value categories a Type can carry.
type Kind uint8

const (
	KindBool Kind = iota
	KindChar
	KindUint
	KindInt
	KindFloat
)

const (
	bitEnabled     = 1 << 0
	widthShift     = 1
	widthMask      = 0x7
	kindShift      = 4
	kindMask       = 0xF
	bitWriteable   = 1 << 8
	bitPermanent   = 1 << 9
)

var widthCodes = [...]uint8{0: 1, 1: 2, 2: 4, 3: 8}

// NewType builds a packed Type from its constituent attributes.
// byteWidth must be one of 1, 2, 4, 8.
func NewType(kind Kind, byteWidth uint8, enabled, writeable, permanent bool) Type {
	var code uint16
	switch byteWidth {
	case 1:
		code = 0
	case 2:
		code = 1
	case 4:
		code = 2
	case 8:
		code = 3
	default:
		code = 0
	}

	var t uint16
	if enabled {
		t |= bitEnabled
	}
	t |= code << widthShift
	t |= (uint16(kind) & kindMask) << kindShift
	if writeable {
		t |= bitWriteable
	}
	if permanent {
		t |= bitPermanent
	}
	return Type(t)
}

// Enabled reports whether bit 0 (current strobe membership) is set.
func (t Type) Enabled() bool { return uint16(t)&bitEnabled != 0 }

// WithEnabled returns a copy of t with the enabled bit set to v.
func (t Type) WithEnabled(v bool) Type {
	if v {
		return Type(uint16(t) | bitEnabled)
	}
	return Type(uint16(t) &^ bitEnabled)
}

// ByteWidth returns the width in bytes of one element (1, 2, 4, or 8).
func (t Type) ByteWidth() uint8 {
	code := (uint16(t) >> widthShift) & widthMask
	if int(code) < len(widthCodes) {
		return widthCodes[code]
	}
	return 1
}

// Kind returns the value category.
func (t Type) Kind() Kind { return Kind((uint16(t) >> kindShift) & kindMask) }

// Writeable reports whether the client may SET this cell.
func (t Type) Writeable() bool { return uint16(t)&bitWriteable != 0 }

// Permanent reports whether the cell is a forced strobe member that
// cannot be disabled via SetDataCellStrobe.
func (t Type) Permanent() bool { return uint16(t)&bitPermanent != 0 }
