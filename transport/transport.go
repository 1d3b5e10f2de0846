// Package transport defines the Lasso host's one external collaborator
// for egress: a non-blocking send primitive. Ingress is push-based
// (the caller feeds bytes to Host.ReceiveByte from its own ISR or
// read loop) and so has no interface here, per spec.md 1's "Out of
// scope" contract list.
package transport

// Status is the outcome of one Send attempt.
type Status int

const (
	// OK means the chunk was accepted for transmission.
	OK Status = iota
	// Busy means the transport could not accept the chunk; the caller
	// must retry the same bytes on the next tick without advancing
	// any frame pointers.
	Busy
	// Error means the chunk was rejected for a reason other than
	// busy; per spec.md 7, the remaining bytes of this chunk are
	// abandoned (no retry).
	Error
)

// Transport is the pluggable, non-blocking send() primitive spec.md 1
// names as an external collaborator.
type Transport interface {
	Send(data []byte) Status
}
