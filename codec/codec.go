// Package codec defines the framing codec contract shared by RN,
// COBS, and ESCS (spec.md 4.1): encode a complete payload for
// transmission, and decode an incoming byte stream one byte at a time
// into complete frames.
package codec

import "errors"

// ErrIllegalSequence is reported by Decoder.Byte when the incoming
// stream violates the codec's framing rules (e.g. a bare '\n' in RN
// without a preceding '\r').
var ErrIllegalSequence = errors.New("codec: illegal sequence")

// ErrOverrun is reported by Decoder.Byte when a frame would exceed the
// destination buffer; the in-progress frame is abandoned.
var ErrOverrun = errors.New("codec: destination buffer overrun")

// Decoder incrementally reconstructs frames from a raw byte stream,
// mirroring the original's *_decode_inline state machines.
type Decoder interface {
	// Byte consumes one incoming byte, writing decoded payload bytes
	// into dest (size len(dest)). It returns the number of payload
	// bytes once a frame completes, 0 if the frame is still in
	// progress, and a non-nil error on a framing violation (the
	// decoder resets its own state before returning).
	Byte(c byte, dest []byte) (int, error)
}

// Encoder encodes one complete payload for transmission.
type Encoder interface {
	// Encode writes the framed representation of src into dst and
	// returns the number of bytes written. dst must be large enough;
	// callers size it via the memory planner's overhead accounting.
	Encode(src []byte, dst []byte) int
}

// Codec names a framing codec, used to select RN/COBS/ESCS at
// configuration time (spec.md 9: "resolve at construction").
type Codec uint8

const (
	None Codec = iota
	RN
	COBS
	ESCS
)

// HeaderOverhead and FooterOverhead are the fixed per-frame byte costs
// the memory planner reserves, per spec.md 4.4.
func (c Codec) HeaderOverhead() int {
	switch c {
	case COBS:
		return 2 // delimiter + code byte
	case ESCS:
		return 1 // leading delimiter
	default:
		return 0
	}
}

func (c Codec) FooterOverhead() int {
	switch c {
	case COBS:
		return 1 // trailing delimiter / continuation code
	case RN:
		return 2 // \r\n
	case ESCS:
		return 1 // trailing delimiter
	default:
		return 0
	}
}

// MaxChunk is the largest payload the codec can carry in one frame
// before extended-frame continuation is required (COBS only).
func (c Codec) MaxChunk() int {
	if c == COBS {
		return 253
	}
	return 0 // unbounded by the codec itself; governed by max_frame_size
}

// Identity is the Encoder for Codec None: no framing at all, a plain
// copy. It exists so callers that resolve an Encoder from a Codec at
// construction (spec.md 9) never need a special case for "no codec".
type Identity struct{}

func (Identity) Encode(src []byte, dst []byte) int { return copy(dst, src) }
