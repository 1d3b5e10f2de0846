// Package txpump implements the per-tick, non-blocking transmit pump
// (spec.md 4.7, Testable Property 8): exactly one Send attempt per
// tick, strobe ahead of response, busy retries the same bytes, any
// other transport error abandons the rest of the current frame.
//
// The original encodes a frame in place, byte-displacing part of the
// payload buffer to make room for a COBS code byte it hasn't written
// yet, then restores the displaced byte at EOF. This package instead
// encodes once into a scratch buffer (sized by frame.Plan) and keeps
// an explicit offset into it, so a busy retry is just "send the same
// slice again" rather than replaying a displacement trick — see
// DESIGN.md.
package txpump

import (
	"github.com/lassohost/lasso/codec"
	"github.com/lassohost/lasso/transport"
)

// Queue holds one channel's (strobe or response) in-flight encoded
// bytes across busy retries.
type Queue struct {
	buf []byte
	off int
}

// Pending reports whether this queue still has bytes to transmit.
func (q *Queue) Pending() bool { return q.off < len(q.buf) }

// Load replaces the queue's contents and resets the offset to zero.
// encoded is typically a sub-slice of a scratch buffer the caller
// owns; Load does not copy it.
func (q *Queue) Load(encoded []byte) {
	q.buf = encoded
	q.off = 0
}

// Reset abandons whatever remains unsent.
func (q *Queue) Reset() {
	q.buf = nil
	q.off = 0
}

func (q *Queue) next(maxChunk int) []byte {
	if maxChunk <= 0 || q.off+maxChunk > len(q.buf) {
		return q.buf[q.off:]
	}
	return q.buf[q.off : q.off+maxChunk]
}

// EncodeAndLoad frames payload with enc into scratch and loads the
// result into q. scratch must be large enough for enc's worst-case
// expansion (frame.Plan sizes it accordingly).
func EncodeAndLoad(q *Queue, payload []byte, enc codec.Encoder, scratch []byte) {
	n := enc.Encode(payload, scratch)
	q.Load(scratch[:n])
}

// Pump owns the strobe and response queues and the single transport
// both share.
type Pump struct {
	Strobe   Queue
	Response Queue
	Out      transport.Transport
	// MaxFrameSize bounds one Send call's chunk, per the max_frame_size
	// configuration option; <= 0 means send everything pending in one
	// call.
	MaxFrameSize int
}

// Tick performs exactly one transmit attempt, per Testable Property 8:
// the strobe queue is serviced first if it has pending bytes,
// otherwise the response queue. Returns true if a Send was attempted.
func (p *Pump) Tick() bool {
	q := &p.Strobe
	if !q.Pending() {
		q = &p.Response
	}
	if !q.Pending() {
		return false
	}

	chunk := q.next(p.MaxFrameSize)
	switch p.Out.Send(chunk) {
	case transport.OK:
		q.off += len(chunk)
	case transport.Busy:
		// retry the identical chunk next tick
	case transport.Error:
		q.Reset()
	}
	return true
}
