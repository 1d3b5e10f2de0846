// Package wire names the two pluggable processing-mode contracts
// spec.md 6 describes: comma-separated ASCII (lasso/wire/ascii) and
// MessagePack (lasso/wire/msgpack). lasso/interp is written against
// these interfaces so swapping processing_mode is a construction-time
// choice, per spec.md 9's "resolve at construction" design note.
package wire

import (
	"errors"

	"github.com/lassohost/lasso/cell"
)

// Errors a Codec implementation reports. They have no entry in
// failcode's table: lasso/interp answers a failed SET-argument
// conversion with failcode.ErrInvalidArgument, and the root lasso.Host
// answers a failed reply encoding with an opcode-only reply carrying
// failcode.ErrCancelled.
var (
	ErrInvalidArgument = errors.New("wire: invalid argument")
	ErrNotSupported    = errors.New("wire: not supported")
	ErrEncodeOverflow  = errors.New("wire: reply does not fit in destination buffer")
)

// Field is one typed value going into or coming out of a reply
// payload. Kind mirrors cell.Kind; Raw holds the value in the same
// byte-order-preserving encoding cell.Cell.Ptr uses, except for
// KindChar where Raw is the ASCII text itself.
type Field struct {
	Kind  cell.Kind
	Width uint8
	Raw   []byte
}

// Arg is one untyped command argument: either the ASCII token that
// arrived (Token) or the decoded MessagePack value (Any), whichever
// the wire format produced. lasso/interp converts an Arg to a typed
// value once it knows, from the opcode and addressed cell, what type
// is expected.
type Arg struct {
	Token string
	Any   any
}

// Command is a fully decoded incoming request: the opcode and its
// positional arguments, not yet interpreted against the data space.
type Command struct {
	Opcode byte
	Args   []Arg
}

// Reply is a fully decoded outgoing response: the echoed opcode, its
// payload fields, and the trailing error code (0 == success).
type Reply struct {
	Opcode  byte
	Payload []Field
	Errno   int32
}

// Codec decodes one command from raw bytes and encodes one reply to
// raw bytes. Implementations are wrapped around a codec.Decoder for
// framing (RN/COBS/ESCS byte-stuffing) upstream of these calls;
// Codec itself only knows the processing_mode payload shape.
type Codec interface {
	DecodeCommand(payload []byte) (Command, error)
	EncodeReply(r Reply, dst []byte) (int, error)
}
