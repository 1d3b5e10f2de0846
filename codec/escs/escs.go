// Package escs implements escape-sequence framing (spec.md 4.1),
// grounded on the original lasso_host encodings/escs.c: 0x7E delimits
// frames, 0x7D escapes a literal 0x7E or 0x7D, and an escaped byte is
// recovered by adding/subtracting 0x20 (not XOR — see DESIGN.md for
// why this module follows the original's arithmetic over spec.md's
// looser XOR description).
package escs

import "github.com/lassohost/lasso/codec"

const (
	delimiter = 0x7E
	escape    = 0x7D
)

// decoder states, named after the original's ESCS_ctrl.state values.
const (
	stateIdle    = 0
	stateInFrame = 255
	stateEscape  = escape
)

// Decoder is the inline ESCS decoder.
type Decoder struct {
	state uint8
	count uint8
}

// NewDecoder returns a fresh ESCS decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Byte implements codec.Decoder.
func (d *Decoder) Byte(c byte, dest []byte) (int, error) {
	if c == delimiter {
		d.state = stateInFrame
		if d.count != 0 {
			n := int(d.count)
			d.count = 0
			return n, nil
		}
		return 0, nil
	}

	if c == escape {
		d.state = stateEscape
		return 0, nil
	}

	if d.state == 0 {
		// not inside a frame yet; drop stray bytes
		return 0, nil
	}

	if d.state == stateEscape {
		d.state = stateInFrame
		c += 0x20
	}

	if int(d.count) >= len(dest) {
		d.state = stateIdle
		d.count = 0
		return 0, codec.ErrOverrun
	}
	dest[d.count] = c
	d.count++
	return 0, nil
}

// Encoder frames a complete payload between two delimiters, escaping
// any literal delimiter or escape byte in the payload.
type Encoder struct{}

// NewEncoder returns a fresh ESCS encoder.
func NewEncoder() Encoder { return Encoder{} }

// Encode implements codec.Encoder. Worst case the destination must
// hold 2*len(src)+2 bytes.
func (Encoder) Encode(src []byte, dst []byte) int {
	out := 0
	dst[out] = delimiter
	out++

	for _, c := range src {
		if c == delimiter || c == escape {
			dst[out] = escape
			out++
			c -= 0x20
		}
		dst[out] = c
		out++
	}

	dst[out] = delimiter
	out++
	return out
}
