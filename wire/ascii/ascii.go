// Package ascii implements the comma-separated ASCII processing mode
// (spec.md 6), grounded on the original's lasso_copyDatacellParams /
// lasso_copyDatacellValue field ordering and per-kind formatting:
// bool as "0"/"1", char arrays as a quoted string, integers as plain
// decimal, floats via Go's %f (the original's printf "%f").
package ascii

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/wire"
)

// ErrMalformed is returned when a command line doesn't parse: empty,
// or a comma is missing where a field was expected.
var ErrMalformed = errors.New("ascii: malformed command")

// Codec implements wire.Codec for ASCII processing mode.
type Codec struct{}

// DecodeCommand splits payload (one RN/COBS/ESCS-framed frame's
// content, delimiters already stripped) into an opcode byte and its
// comma-separated argument tokens. Tokens are not yet typed: lasso/interp
// knows, per opcode, how many arguments to expect and at what type to
// parse them (an index is always a decimal uint; a SET value's type
// depends on the addressed cell).
func (Codec) DecodeCommand(payload []byte) (wire.Command, error) {
	if len(payload) == 0 {
		return wire.Command{}, ErrMalformed
	}
	opcode := payload[0]
	rest := payload[1:]
	if len(rest) == 0 {
		return wire.Command{Opcode: opcode}, nil
	}
	if rest[0] != ',' {
		return wire.Command{}, ErrMalformed
	}
	tokens := strings.Split(string(rest[1:]), ",")
	args := make([]wire.Arg, len(tokens))
	for i, tok := range tokens {
		args[i] = wire.Arg{Token: tok}
	}
	return wire.Command{Opcode: opcode, Args: args}, nil
}

// EncodeReply formats opcode,field,field,...,errno into dst, without a
// trailing terminator (the selected framing codec, e.g. RN, owns
// \r\n).
func (Codec) EncodeReply(r wire.Reply, dst []byte) (int, error) {
	var buf bytes.Buffer
	buf.WriteByte(r.Opcode)
	for _, f := range r.Payload {
		buf.WriteByte(',')
		s, err := FormatValue(f.Kind, f.Width, f.Raw)
		if err != nil {
			return 0, err
		}
		buf.WriteString(s)
	}
	buf.WriteByte(',')
	buf.WriteString(strconv.FormatInt(int64(r.Errno), 10))

	if buf.Len() > len(dst) {
		return 0, wire.ErrEncodeOverflow
	}
	return copy(dst, buf.Bytes()), nil
}

// FormatValue renders one raw cell value in its ASCII wire form.
func FormatValue(kind cell.Kind, width uint8, raw []byte) (string, error) {
	switch kind {
	case cell.KindBool:
		if len(raw) > 0 && raw[0] != 0 {
			return "1", nil
		}
		return "0", nil
	case cell.KindChar:
		return strconv.Quote(trimNUL(raw)), nil
	case cell.KindUint:
		return strconv.FormatUint(decodeUint(raw, width), 10), nil
	case cell.KindInt:
		return strconv.FormatInt(decodeInt(raw, width), 10), nil
	case cell.KindFloat:
		if width == 8 {
			bits := binary.LittleEndian.Uint64(raw)
			return fmt.Sprintf("%f", math.Float64frombits(bits)), nil
		}
		bits := binary.LittleEndian.Uint32(raw)
		return fmt.Sprintf("%f", math.Float32frombits(bits)), nil
	default:
		return "", wire.ErrNotSupported
	}
}

// ParseValue decodes an ASCII token into width bytes of raw, little-endian.
func ParseValue(kind cell.Kind, width uint8, token string) ([]byte, error) {
	switch kind {
	case cell.KindBool:
		v, err := strconv.ParseBool(token)
		if err != nil {
			return nil, wire.ErrInvalidArgument
		}
		if v {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case cell.KindChar:
		s, err := strconv.Unquote(token)
		if err != nil {
			s = token
		}
		return []byte(s), nil
	case cell.KindUint:
		v, err := strconv.ParseUint(token, 10, int(width)*8)
		if err != nil {
			return nil, wire.ErrInvalidArgument
		}
		return encodeUint(v, width), nil
	case cell.KindInt:
		v, err := strconv.ParseInt(token, 10, int(width)*8)
		if err != nil {
			return nil, wire.ErrInvalidArgument
		}
		return encodeInt(v, width), nil
	case cell.KindFloat:
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, wire.ErrInvalidArgument
		}
		if width == 8 {
			raw := make([]byte, 8)
			binary.LittleEndian.PutUint64(raw, math.Float64bits(v))
			return raw, nil
		}
		raw := make([]byte, 4)
		binary.LittleEndian.PutUint32(raw, math.Float32bits(float32(v)))
		return raw, nil
	default:
		return nil, wire.ErrNotSupported
	}
}

func trimNUL(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func decodeUint(raw []byte, width uint8) uint64 {
	switch width {
	case 1:
		return uint64(raw[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(raw))
	case 4:
		return uint64(binary.LittleEndian.Uint32(raw))
	default:
		return binary.LittleEndian.Uint64(raw)
	}
}

func decodeInt(raw []byte, width uint8) int64 {
	switch width {
	case 1:
		return int64(int8(raw[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(raw)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(raw)))
	default:
		return int64(binary.LittleEndian.Uint64(raw))
	}
}

func encodeUint(v uint64, width uint8) []byte {
	raw := make([]byte, width)
	switch width {
	case 1:
		raw[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(raw, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(raw, uint32(v))
	default:
		binary.LittleEndian.PutUint64(raw, v)
	}
	return raw
}

func encodeInt(v int64, width uint8) []byte {
	return encodeUint(uint64(v), width)
}
