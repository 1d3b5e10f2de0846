// Package interp implements the command interpreter and scheduler
// state machine of spec.md 4.6: opcode dispatch, SET semantics, the
// transport-neutral failure taxonomy, and the Advertising/Idle/
// Strobing states.
package interp

import (
	"math"
	"strconv"

	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/failcode"
	"github.com/lassohost/lasso/wire"
	"github.com/lassohost/lasso/wire/ascii"
	"github.com/lassohost/lasso/wire/msgpack"

	"github.com/creachadair/mds/value"
)

// State is the scheduler state (spec.md 4.6 "State machine").
type State uint8

const (
	Advertising State = iota
	Idle
	Strobing
)

// Opcodes, spec.md 4.6's opcode table.
const (
	OpGetProtocolInfo    = 'i'
	OpGetTimingInfo      = 't'
	OpGetDataCellCount   = 'n'
	OpGetDataCellParams  = 'p'
	OpGetDataCellValue   = 'v'
	OpSetAdvertise       = 'A'
	OpSetStrobePeriod    = 'P'
	OpSetDataCellStrobe  = 'S'
	OpSetDataCellValue   = 'V'
	OpSetDataSpaceStrobe = 'W'
	OpControlPassthrough = 0xC1
)

// Host is the command interpreter's view of the data space and
// scheduler state. It holds no transport or framing state; those
// belong to lasso/txpump and the root Host that owns a tick loop.
type Host struct {
	Reg *cell.Registry

	// UseMsgPack selects how SET argument values are converted from
	// wire.Arg to a cell's raw bytes; GET replies are agnostic (the
	// active wire.Codec formats wire.Field itself).
	UseMsgPack bool

	Info cell.ProtocolInfo
	Version string

	State State

	StrobePeriodTicks              int
	MinPeriodTicks, MaxPeriodTicks int
	StrobeCountdown                int
	// StopPending is set by SetDataSpaceStrobe(false) and consumed by
	// the root Host's tick loop at the next cycle boundary (spec.md
	// 4.6: "stops strobing at the next cycle boundary").
	StopPending bool

	// Interleaving is true for COBS/ESCS (replies and strobes share
	// the channel freely) and false for RN (spec.md 4.6 "Ordering/
	// interleaving policy").
	Interleaving bool

	// OnPeriodChange, if set, may override a requested strobe period
	// (spec.md 9's period-change callback).
	OnPeriodChange func(requested int) int

	// Control receives 0xC1-prefixed control passthrough payloads.
	Control func(payload []byte)

	// TickPeriodMS, CommandTimeoutTicks, ResponseLatencyTicks,
	// BaudRate back GetTimingInfo.
	TickPeriodMS          int
	CommandTimeoutTicks   int
	ResponseLatencyTicks  int
	BaudRate              int
	CycleMargin           float64
	Overdrive             bool
}

// argToRaw converts a SET value argument to the addressed cell's raw
// bytes, using the conversion of the active processing mode
// (HandleCommand itself is given an already-decoded wire.Command; the
// caller chose the wire.Codec used to decode it).
func (h *Host) argToRaw(a wire.Arg, kind cell.Kind, width uint8) ([]byte, error) {
	if h.UseMsgPack {
		return msgpack.EncodeTyped(kind, width, a.Any)
	}
	return ascii.ParseValue(kind, width, a.Token)
}

func argIndex(a wire.Arg) (int, error) {
	if a.Any != nil {
		switch v := a.Any.(type) {
		case int64:
			return int(v), nil
		case uint64:
			return int(v), nil
		case int:
			return v, nil
		}
		return 0, failcode.ErrInvalidArgument
	}
	n, err := strconv.Atoi(a.Token)
	if err != nil {
		return 0, failcode.ErrInvalidArgument
	}
	return n, nil
}

func argBool(a wire.Arg) (bool, error) {
	if a.Any != nil {
		if b, ok := a.Any.(bool); ok {
			return b, nil
		}
		return false, failcode.ErrInvalidArgument
	}
	raw, err := ascii.ParseValue(cell.KindBool, 1, a.Token)
	if err != nil {
		return false, failcode.ErrInvalidArgument
	}
	return raw[0] != 0, nil
}

// reply is a small builder so each opcode case reads as a short,
// linear sequence.
func reply(opcode byte, errno int32, fields ...wire.Field) wire.Reply {
	return wire.Reply{Opcode: opcode, Payload: fields, Errno: errno}
}

func u16Field(v uint16) wire.Field {
	return wire.Field{Kind: cell.KindUint, Width: 2, Raw: []byte{byte(v), byte(v >> 8)}}
}

func u32Field(v uint32) wire.Field {
	return wire.Field{Kind: cell.KindUint, Width: 4, Raw: []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}}
}

func u8Field(v uint8) wire.Field {
	return wire.Field{Kind: cell.KindUint, Width: 1, Raw: []byte{v}}
}

func strField(s string) wire.Field {
	return wire.Field{Kind: cell.KindChar, Raw: []byte(s)}
}

func floatField(v float32) wire.Field {
	bits := math.Float32bits(v)
	return wire.Field{Kind: cell.KindFloat, Width: 4, Raw: []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}}
}

// HandleCommand dispatches one already-decoded command and returns
// its reply together with whether the reply should actually be sent
// (spec.md 4.6 "Reply shape" / "SET semantics" silences several
// opcodes under specific conditions).
func (h *Host) HandleCommand(cmd wire.Command) (wire.Reply, bool) {
	switch cmd.Opcode {
	case OpGetProtocolInfo:
		return reply(cmd.Opcode, 0, u32Field(uint32(h.Info)), strField(h.Version)), true

	case OpGetTimingInfo:
		return reply(cmd.Opcode, 0,
			u16Field(uint16(h.TickPeriodMS)),
			u16Field(uint16(h.CommandTimeoutTicks)),
			u16Field(uint16(h.ResponseLatencyTicks)),
			u16Field(uint16(h.MinPeriodTicks)),
			u16Field(uint16(h.MaxPeriodTicks)),
			u16Field(uint16(h.StrobePeriodTicks)),
			floatField(float32(h.CycleMargin)),
		), true

	case OpGetDataCellCount:
		return reply(cmd.Opcode, 0, u8Field(uint8(h.Reg.Count()))), true

	case OpGetDataCellParams:
		return h.getDataCellParams(cmd)

	case OpGetDataCellValue:
		return h.getDataCellValue(cmd)

	case OpSetAdvertise:
		h.State = Advertising
		h.StopPending = false
		return wire.Reply{}, false

	case OpSetStrobePeriod:
		return h.setStrobePeriod(cmd)

	case OpSetDataCellStrobe:
		return h.setDataCellStrobe(cmd)

	case OpSetDataCellValue:
		return h.setDataCellValue(cmd)

	case OpSetDataSpaceStrobe:
		return h.setDataSpaceStrobe(cmd)

	default:
		return reply(cmd.Opcode, failcode.Of(failcode.ErrNotSupported)), true
	}
}

func (h *Host) getDataCellParams(cmd wire.Command) (wire.Reply, bool) {
	if len(cmd.Args) < 1 {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	idx, err := argIndex(cmd.Args[0])
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	c, err := h.Reg.At(idx)
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrBadAddress)), true
	}
	return reply(cmd.Opcode, 0,
		strField(c.Name),
		u16Field(uint16(c.Type)),
		u16Field(uint16(c.Count)),
		strField(c.Unit),
		u16Field(c.UpdateRateReload),
		u16Field(uint16(c.Offset())),
	), true
}

func (h *Host) getDataCellValue(cmd wire.Command) (wire.Reply, bool) {
	if len(cmd.Args) < 1 {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	idx, err := argIndex(cmd.Args[0])
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	c, err := h.Reg.At(idx)
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrBadAddress)), true
	}
	// Only the first element is reported for multi-element cells; the
	// original's per-kind ASCII formatter has no array notation, and
	// neither does this port.
	width := c.Type.ByteWidth()
	truncate := len(c.Ptr) > int(width) && c.Type.Kind() != cell.KindChar
	raw := value.Cond(truncate, c.Ptr[:width], c.Ptr)
	return reply(cmd.Opcode, 0, wire.Field{Kind: c.Type.Kind(), Width: width, Raw: raw}), true
}

func (h *Host) setStrobePeriod(cmd wire.Command) (wire.Reply, bool) {
	if len(cmd.Args) < 1 {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	ticks, err := argIndex(cmd.Args[0])
	if err != nil || ticks < h.MinPeriodTicks || ticks > h.MaxPeriodTicks {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}

	// Open Question resolution: apply the change unconditionally, then
	// suppress the reply while advertising or while strobing without
	// interleaving (the original's actual behavior, not the "skip
	// entirely" reading).
	if h.OnPeriodChange != nil {
		ticks = h.OnPeriodChange(ticks)
	}
	h.StrobePeriodTicks = ticks
	if h.StrobeCountdown > ticks {
		h.StrobeCountdown = ticks
	}

	if h.State == Advertising {
		return wire.Reply{}, false
	}
	if h.State == Strobing && !h.Interleaving {
		return wire.Reply{}, false
	}
	return reply(cmd.Opcode, 0), true
}

func (h *Host) setDataCellStrobe(cmd wire.Command) (wire.Reply, bool) {
	if len(cmd.Args) < 2 {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	if h.State == Strobing {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrBusy)), true
	}
	idx, err := argIndex(cmd.Args[0])
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	enabled, err := argBool(cmd.Args[1])
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	if err := h.Reg.SetEnabled(idx, enabled); err != nil {
		switch err {
		case cell.ErrUnknownIndex:
			return reply(cmd.Opcode, failcode.Of(failcode.ErrBadAddress)), true
		case cell.ErrPermanent:
			return reply(cmd.Opcode, failcode.Of(failcode.ErrPermissionDenied)), true
		default:
			return reply(cmd.Opcode, failcode.Of(failcode.ErrIO)), true
		}
	}
	return reply(cmd.Opcode, 0), true
}

func (h *Host) setDataCellValue(cmd wire.Command) (wire.Reply, bool) {
	if len(cmd.Args) < 2 {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	idx, err := argIndex(cmd.Args[0])
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	c, err := h.Reg.At(idx)
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrBadAddress)), true
	}
	if !c.Type.Writeable() {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrPermissionDenied)), true
	}
	raw, err := h.argToRaw(cmd.Args[1], c.Type.Kind(), c.Type.ByteWidth())
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	if err := c.Set(raw); err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrPermissionDenied)), true
	}
	return reply(cmd.Opcode, 0), true
}

func (h *Host) setDataSpaceStrobe(cmd wire.Command) (wire.Reply, bool) {
	if len(cmd.Args) < 1 {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	enable, err := argBool(cmd.Args[0])
	if err != nil {
		return reply(cmd.Opcode, failcode.Of(failcode.ErrInvalidArgument)), true
	}
	if enable {
		wasAdvertising := h.State == Advertising
		h.State = Strobing
		h.StopPending = false
		h.StrobeCountdown = 1
		if wasAdvertising {
			return wire.Reply{}, false
		}
		return reply(cmd.Opcode, 0), true
	}
	h.StopPending = true
	return reply(cmd.Opcode, 0), true
}

// ApplyStopBoundary is called by the root Host's tick loop at a strobe
// cycle boundary to finish a deferred SetDataSpaceStrobe(false).
func (h *Host) ApplyStopBoundary() {
	if h.StopPending {
		h.State = Idle
		h.StopPending = false
	}
}

// HandleControl delivers an opaque 0xC1-prefixed payload to the
// control callback, if one is registered. The caller (the root Host)
// is responsible for recognizing the 0xC1 discriminator before wire
// decoding is ever attempted (spec.md 9).
func (h *Host) HandleControl(payload []byte) {
	if h.Control != nil {
		h.Control(payload)
	}
}
