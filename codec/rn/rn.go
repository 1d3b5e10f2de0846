// Package rn implements the RN framing codec (spec.md 4.1): frames are
// terminated by "\r\n" with no byte stuffing, no CRC, and no strobe
// encoding support.
package rn

import "github.com/lassohost/lasso/codec"

const (
	cr = '\r'
	lf = '\n'
)

// Decoder accumulates bytes until it sees "\r\n".
type Decoder struct {
	count int
}

// NewDecoder returns a fresh RN decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Byte implements codec.Decoder. A bare '\n' without a preceding '\r'
// resets decoder state and reports ErrIllegalSequence, per spec.md 4.1.
func (d *Decoder) Byte(c byte, dest []byte) (int, error) {
	if c == lf {
		if d.count == 0 || dest[d.count-1] != cr {
			d.count = 0
			return 0, codec.ErrIllegalSequence
		}
		n := d.count - 1 // exclude the trailing \r
		d.count = 0
		return n, nil
	}

	if d.count >= len(dest) {
		d.count = 0
		return 0, codec.ErrOverrun
	}

	dest[d.count] = c
	d.count++
	return 0, nil
}

// Encoder appends "\r\n" to the payload verbatim; RN never stuffs bytes.
type Encoder struct{}

// NewEncoder returns a fresh RN encoder.
func NewEncoder() Encoder { return Encoder{} }

// Encode implements codec.Encoder.
func (Encoder) Encode(src []byte, dst []byte) int {
	n := copy(dst, src)
	dst[n] = cr
	dst[n+1] = lf
	return n + 2
}
