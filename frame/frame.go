// Package frame implements the DataFrame buffer model (spec.md 3) and
// the memory planner that sizes strobe/response/command buffers
// (spec.md 4.4, register_mem).
package frame

// Frame wraps one logical payload buffer: either the strobe frame or
// the response frame. The original models the in-flight transmit
// cursor as a raw advancing pointer into a fixed C array, including
// in-place COBS byte-displacement tricks to avoid a second buffer.
// This port keeps the DataFrame's data-model fields (Countdown,
// Valid, BytesMax/BytesTotal) but hands the actual in-flight encoded
// bytes to package txpump, which tracks them as an explicit slice
// rather than replaying the displaced-byte dance — see DESIGN.md.
type Frame struct {
	// Payload is the raw, unframed content: for the strobe frame, the
	// sampled cell bytes (plus disambiguator/mask/CRC); for the
	// response frame, the interpreter's formatted reply (plus CRC).
	// Capacity is BytesMax; len is BytesTotal.
	Payload []byte

	// BytesMax is the logical capacity computed by Plan (spec.md 4.4):
	// head/tail reserves + worst-case cell bytes + CRC width + codec
	// framing overhead (delimiters/code bytes), rounded up to the
	// configured alignment.
	BytesMax int

	// Countdown is the tick-granularity period countdown; meaningful
	// only for the strobe frame.
	Countdown int

	// Valid: for the strobe frame, true once a snapshot has been
	// captured this cycle; for the response frame, true while a
	// complete command awaits interpretation.
	Valid bool
}

// BytesTotal is the current valid payload length.
func (f *Frame) BytesTotal() int { return len(f.Payload) }

// SetPayload replaces the payload, trusting n <= cap(f.Payload).
func (f *Frame) SetPayload(n int) { f.Payload = f.Payload[:n] }

// Reset clears transmission/validity state without touching capacity.
func (f *Frame) Reset() {
	f.Payload = f.Payload[:0]
	f.Valid = false
}
