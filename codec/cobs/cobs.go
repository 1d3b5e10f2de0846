// Package cobs implements Consistent Overhead Byte Stuffing framing
// (spec.md 4.1), grounded on the original lasso_host encodings/cobs.c
// algorithm: a 0x00 delimiter plus a run-length code byte, with a
// 0xFF continuation code for payloads that don't fit one 254-byte
// frame.
package cobs

import "github.com/lassohost/lasso/codec"

const (
	delimiter    = 0x00
	continuation = 0xFF
	maxChunk     = 253 // payload bytes per frame, per spec.md 4.1
)

// Decoder is the inline COBS decoder: it maintains (code, count)
// state exactly like the original's static COBS_ctrl. code == 255 is
// the sentinel meaning "expecting the first code byte of a new frame".
type Decoder struct {
	code  uint8
	count uint8
}

// NewDecoder returns a fresh COBS decoder, idle between frames.
func NewDecoder() *Decoder { return &Decoder{code: 255} }

// Byte implements codec.Decoder.
func (d *Decoder) Byte(c byte, dest []byte) (int, error) {
	if c == delimiter {
		finishedCode := d.code
		d.code = 255
		if finishedCode == 0 {
			n := int(d.count)
			d.count = 0
			return n, nil
		}
		d.count = 0
		return 0, nil
	}

	if d.code == 255 {
		if d.count != 0 {
			// stray code byte with no preceding delimiter: drop it
			return 0, nil
		}
		d.code = c
		if d.code > 1 {
			d.code--
			return 0, nil
		}
		c = 0
	} else if d.code == 0 {
		d.code = c
		c = 0
	}

	d.code--

	if int(d.count) >= len(dest) {
		d.code = 255
		return 0, codec.ErrOverrun
	}
	dest[d.count] = c
	d.count++
	return 0, nil
}

// Encode implements codec.Encoder: scans src for runs terminated by an
// (implicit) zero byte and emits [run_len+1, ...bytes without the
// zero], delimited by 0x00 on both ends. If a 254-byte run completes
// without finding a zero, a continuation code (0xFF) is emitted
// instead and the scan continues without consuming a terminating zero.
type Encoder struct{}

// NewEncoder returns a fresh COBS encoder.
func NewEncoder() Encoder { return Encoder{} }

func (Encoder) Encode(src []byte, dst []byte) int {
	out := 0
	dst[out] = delimiter
	out++

	i := 0
	for i <= len(src) {
		codePos := out
		out++
		run := 0

		for i < len(src) && src[i] != 0 && run < maxChunk {
			dst[out] = src[i]
			out++
			i++
			run++
		}

		if i < len(src) && src[i] == 0 {
			dst[codePos] = byte(run + 1)
			i++ // consume the zero
			if i >= len(src) {
				break
			}
			continue
		}

		if run == maxChunk && i < len(src) {
			dst[codePos] = continuation
			continue
		}

		dst[codePos] = byte(run + 1)
		break
	}

	dst[out] = delimiter
	out++
	return out
}

// MaxChunk is the largest payload carried by a single COBS frame
// before extended-frame continuation applies.
const MaxChunk = maxChunk
