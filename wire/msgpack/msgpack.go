// Package msgpack implements the MessagePack processing mode
// (spec.md 6): a command is encoded as [opcode, [args...]], a reply as
// [opcode, [payload...], error]. The leading 0xC1 strobe-discriminator
// byte (spec.md 9, "MessagePack-as-strobe-discriminator") is handled
// upstream by the root lasso.Host, not here: 0xC1 is never a valid
// MessagePack head byte, so a frame beginning with it is routed to the
// control callback before it ever reaches this codec.
package msgpack

import (
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/wire"
)

// Codec implements wire.Codec for MessagePack processing mode.
type Codec struct{}

// DecodeCommand unpacks [opcode, [args...]]. Each arg is kept as its
// decoded Go value (int64, uint64, float64, bool, or string);
// lasso/interp converts it to the addressed cell's byte width once it
// knows the expected type.
func (Codec) DecodeCommand(payload []byte) (wire.Command, error) {
	var env [2]msgpack.RawMessage
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return wire.Command{}, wire.ErrInvalidArgument
	}
	var opcode uint8
	if err := msgpack.Unmarshal(env[0], &opcode); err != nil {
		return wire.Command{}, wire.ErrInvalidArgument
	}
	var rawArgs []any
	if err := msgpack.Unmarshal(env[1], &rawArgs); err != nil {
		return wire.Command{}, wire.ErrInvalidArgument
	}
	args := make([]wire.Arg, len(rawArgs))
	for i, v := range rawArgs {
		switch n := v.(type) {
		case int8:
			v = int64(n)
		case int16:
			v = int64(n)
		case int32:
			v = int64(n)
		case uint8:
			v = uint64(n)
		case uint16:
			v = uint64(n)
		case uint32:
			v = uint64(n)
		case float32:
			v = float64(n)
		}
		args[i] = wire.Arg{Any: v}
	}
	return wire.Command{Opcode: opcode, Args: args}, nil
}

// EncodeReply packs [opcode, [payload...], error].
func (Codec) EncodeReply(r wire.Reply, dst []byte) (int, error) {
	payload := make([]any, len(r.Payload))
	for i, f := range r.Payload {
		v, err := DecodeTyped(f.Kind, f.Width, f.Raw)
		if err != nil {
			return 0, err
		}
		payload[i] = v
	}
	out, err := msgpack.Marshal([]any{r.Opcode, payload, r.Errno})
	if err != nil {
		return 0, err
	}
	if len(out) > len(dst) {
		return 0, wire.ErrEncodeOverflow
	}
	return copy(dst, out), nil
}

// DecodeTyped converts a cell's raw byte-order-preserving value into a
// Go value suitable for msgpack.Marshal. 8-byte integers and doubles
// are rejected with wire.ErrNotSupported: the original's msgpack path
// for these widths was never implemented (spec.md 9, Open Question).
func DecodeTyped(kind cell.Kind, width uint8, raw []byte) (any, error) {
	if width == 8 && (kind == cell.KindUint || kind == cell.KindInt || kind == cell.KindFloat) {
		return nil, wire.ErrNotSupported
	}
	switch kind {
	case cell.KindBool:
		return len(raw) > 0 && raw[0] != 0, nil
	case cell.KindChar:
		return string(trimNUL(raw)), nil
	case cell.KindUint:
		return leUint(raw, width), nil
	case cell.KindInt:
		return leInt(raw, width), nil
	case cell.KindFloat:
		bits := leUint(raw, width)
		return math.Float32frombits(uint32(bits)), nil
	default:
		return nil, wire.ErrNotSupported
	}
}

// EncodeTyped converts a decoded msgpack value back into width raw
// bytes for cell.Cell.Set, rejecting 8-byte widths for the same reason
// DecodeTyped does.
func EncodeTyped(kind cell.Kind, width uint8, v any) ([]byte, error) {
	if width == 8 && (kind == cell.KindUint || kind == cell.KindInt || kind == cell.KindFloat) {
		return nil, wire.ErrNotSupported
	}
	switch kind {
	case cell.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, wire.ErrInvalidArgument
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case cell.KindChar:
		s, ok := v.(string)
		if !ok {
			return nil, wire.ErrInvalidArgument
		}
		return []byte(s), nil
	case cell.KindUint:
		n, ok := asInt64(v)
		if !ok {
			return nil, wire.ErrInvalidArgument
		}
		return putLE(uint64(n), width), nil
	case cell.KindInt:
		n, ok := asInt64(v)
		if !ok {
			return nil, wire.ErrInvalidArgument
		}
		return putLE(uint64(n), width), nil
	case cell.KindFloat:
		f, ok := asFloat64(v)
		if !ok {
			return nil, wire.ErrInvalidArgument
		}
		return putLE(uint64(math.Float32bits(float32(f))), width), nil
	default:
		return nil, wire.ErrNotSupported
	}
}

func trimNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

func leUint(raw []byte, width uint8) uint64 {
	var v uint64
	for i := uint8(0); i < width && int(i) < len(raw); i++ {
		v |= uint64(raw[i]) << (8 * i)
	}
	return v
}

func leInt(raw []byte, width uint8) int64 {
	v := leUint(raw, width)
	switch width {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	default:
		return int64(v)
	}
}

func putLE(v uint64, width uint8) []byte {
	raw := make([]byte, width)
	for i := uint8(0); i < width; i++ {
		raw[i] = byte(v >> (8 * i))
	}
	return raw
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		if iv, ok := asInt64(v); ok {
			return float64(iv), true
		}
		return 0, false
	}
}
