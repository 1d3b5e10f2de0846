// Package lasso is the host-side protocol engine for the Lasso data
// server protocol (spec.md 1): a single-threaded, tick-driven scheduler
// that interleaves advertisement, strobe, and command/response traffic
// over a pluggable, non-blocking transport.
//
// Host (this file) is the single owned value spec.md 9's "Global
// mutable state" design note calls for: it parameterizes every
// operation instead of relying on file-scope singletons, the way the
// original organizes the scheduler, frames, and cell chain.
package lasso

import (
	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/codec"
	"github.com/lassohost/lasso/codec/cobs"
	"github.com/lassohost/lasso/codec/escs"
	"github.com/lassohost/lasso/codec/rn"
	"github.com/lassohost/lasso/config"
	"github.com/lassohost/lasso/crc"
	"github.com/lassohost/lasso/failcode"
	"github.com/lassohost/lasso/frame"
	"github.com/lassohost/lasso/interp"
	"github.com/lassohost/lasso/lassolog"
	"github.com/lassohost/lasso/sampler"
	"github.com/lassohost/lasso/transport"
	"github.com/lassohost/lasso/txpump"
	"github.com/lassohost/lasso/wire"
	"github.com/lassohost/lasso/wire/ascii"
	"github.com/lassohost/lasso/wire/msgpack"

	"github.com/creachadair/mds/value"
)

// advertiseSignaturePrefix is the fixed text prefix of the
// advertisement frame (spec.md 4.6 "Advertisement").
const advertiseSignaturePrefix = "lassoHost/"

// Host ties the data space, frame buffers, sampler, interpreter, TX
// pump, and transport together and drives them one tick at a time.
type Host struct {
	Reg    *cell.Registry
	Interp *interp.Host
	Plan   *frame.Layout
	Pump   *txpump.Pump
	Log    lassolog.Logger

	cfg *config.Config

	samplerCfg      sampler.Config
	wireCodec       wire.Codec
	strobeEncoder   codec.Encoder
	responseEncoder codec.Encoder
	newCmdDecoder   func() codec.Decoder
	cmdDecoder      codec.Decoder

	cmdCRC crc.Func // nil unless cfg.CommandCRCEnable; covers both command and response framing

	pendingCommand []byte
	commandValid   bool
	timeoutCounter int

	advertisePeriodTicks int
	advertiseCountdown   int
}

// NewHost constructs a Host from a validated configuration, a
// populated data-space registry, the transport to drive, and a
// logger (use lassolog.Nop() for tests).
func NewHost(cfg *config.Config, reg *cell.Registry, out transport.Transport, log lassolog.Logger) (*Host, error) {
	strobeCodec := codecFromConfig(cfg.StrobeEncoding)
	cmdCodec := codecFromConfig(cfg.CommandEncoding)

	plan, err := frame.Plan(frame.PlannerConfig{
		CellCount:            reg.Count(),
		StrobeWorstCaseBytes: reg.BytesMax(),
		StrobeEncoding:       strobeCodec,
		CommandEncoding:      cmdCodec,
		DynamicStrobing:      cfg.StrobeDynamics == config.StrobeDynamic,
		StrobeCRCEnabled:     cfg.StrobeCRCEnable,
		StrobeCRCWidth:       uint8(cfg.CRCByteWidth),
		ResponseCRCEnabled:   cfg.CommandCRCEnable,
		ResponseCRCWidth:     uint8(cfg.CRCByteWidth),
		Alignment:            cfg.MemoryAlign,
		ResponseBufferOption: cfg.ResponseBufferSize,
		CommandBufferOption:  cfg.CommandBufferSize,
	})
	if err != nil {
		return nil, err
	}

	headReserve := 0
	maskBytes := 0
	if strobeCodec == codec.COBS || strobeCodec == codec.ESCS {
		headReserve++
	}
	if cfg.StrobeDynamics == config.StrobeDynamic {
		maskBytes = (reg.Count() + 7) / 8
		headReserve += maskBytes
	}

	var crcFunc crc.Func
	if cfg.StrobeCRCEnable {
		crcFunc = crcFromWidth(cfg.CRCByteWidth)
	}
	var cmdCRC crc.Func
	if cfg.CommandCRCEnable {
		cmdCRC = crcFromWidth(cfg.CRCByteWidth)
	}

	info := cell.NewProtocolInfo(
		encodingToCell(cfg.StrobeEncoding),
		cfg.StrobeEncoding == cfg.CommandEncoding,
		processingModeToCell(cfg.ProcessingMode),
		strobeDynamicsToCell(cfg.StrobeDynamics),
		uint8(cfg.CRCByteWidth),
		cfg.CommandCRCEnable,
		cfg.StrobeCRCEnable,
		cfg.LittleEndian,
		uint32(cfg.CommandBufferSize),
		uint32(cfg.ResponseBufferSize),
		uint32(cfg.MaxFrameSize),
	)

	ih := &interp.Host{
		Reg:                  reg,
		UseMsgPack:           cfg.ProcessingMode == config.ProcessingMsgPack,
		Info:                 info,
		Version:              "1.0",
		State:                interp.Advertising,
		MinPeriodTicks:       cfg.StrobePeriodMinTick,
		MaxPeriodTicks:       cfg.StrobePeriodMaxTick,
		StrobePeriodTicks:    cfg.StrobePeriodMinTick,
		Interleaving:         strobeCodec == codec.COBS || strobeCodec == codec.ESCS,
		TickPeriodMS:         cfg.TickPeriodMS,
		CommandTimeoutTicks:  cfg.CommandTimeoutTicks,
		ResponseLatencyTicks: cfg.ResponseLatencyTick,
		BaudRate:             cfg.BaudRate,
	}

	var wireCodec wire.Codec
	if cfg.ProcessingMode == config.ProcessingMsgPack {
		wireCodec = msgpack.Codec{}
	} else {
		wireCodec = ascii.Codec{}
	}

	h := &Host{
		Reg:    reg,
		Interp: ih,
		Plan:   plan,
		Pump: &txpump.Pump{
			Out:          out,
			MaxFrameSize: cfg.MaxFrameSize,
		},
		Log:    log,
		cfg:    cfg,
		cmdCRC: cmdCRC,
		samplerCfg: sampler.Config{
			Dynamic:         cfg.StrobeDynamics == config.StrobeDynamic,
			HeadReserve:     headReserve,
			MaskBytes:       maskBytes,
			Disambiguate:    strobeCodec == codec.COBS || strobeCodec == codec.ESCS,
			CRC:             crcFunc,
			CRCEnabled:      cfg.StrobeCRCEnable,
			LittleEndian:    cfg.LittleEndian,
			UnalignedAccess: cfg.UnalignedAccess,
		},
		wireCodec:            wireCodec,
		strobeEncoder:        encoderFromConfig(cfg.StrobeEncoding),
		responseEncoder:      encoderFromConfig(cfg.CommandEncoding),
		newCmdDecoder:        func() codec.Decoder { return decoderFromConfig(cfg.CommandEncoding) },
		advertisePeriodTicks: advertisePeriodTicks(cfg.TickPeriodMS),
	}
	h.cmdDecoder = h.newCmdDecoder()
	h.advertiseCountdown = h.advertisePeriodTicks
	return h, nil
}

// ReceiveByte feeds one incoming byte to the command decoder (spec.md
// 5's byte-at-a-time receive_byte, callable from an ISR or read loop).
// Once response.valid is set, further ingress is blocked until Tick
// consumes the pending command, matching the original's serialization
// rule.
func (h *Host) ReceiveByte(b byte) {
	if h.commandValid {
		return
	}
	n, err := h.cmdDecoder.Byte(b, h.Plan.Command)
	if err != nil {
		// Framing error: reset the receive buffer, no reply (spec.md 7).
		h.cmdDecoder = h.newCmdDecoder()
		h.timeoutCounter = 0
		return
	}
	h.timeoutCounter = 0
	if n > 0 {
		cmd := h.Plan.Command[:n]
		if h.cmdCRC != nil {
			payload, ok := verifyCommandCRC(cmd, h.cmdCRC)
			if !ok {
				// CRC mismatch: treat like any other framing error (spec.md
				// 4.2 command-CRC-failure handling) -- reset, no reply.
				h.cmdDecoder = h.newCmdDecoder()
				h.timeoutCounter = 0
				return
			}
			cmd = payload
		}
		h.pendingCommand = cmd
		h.commandValid = true
	}
}

// verifyCommandCRC splits a decoded command's trailing CRC (spec.md 4.2,
// command_crc_enable) from its payload and checks it, returning the
// payload with the CRC bytes removed.
func verifyCommandCRC(cmd []byte, crcFn crc.Func) ([]byte, bool) {
	width := int(crcFn.Width())
	if len(cmd) < width {
		return nil, false
	}
	payload := cmd[:len(cmd)-width]
	want := crcFn.Sum(payload)
	got := crc.ReadWidth(cmd[len(payload):], crcFn.Width())
	return payload, want == got
}

// Tick runs one scheduler cycle (spec.md 5 handle_com): timeout
// countdown, advertise/strobe countdown, command handling, then
// exactly one transmit attempt.
func (h *Host) Tick() {
	if !h.commandValid {
		h.timeoutCounter++
		if h.timeoutCounter >= h.Interp.CommandTimeoutTicks {
			h.cmdDecoder = h.newCmdDecoder()
			h.timeoutCounter = 0
		}
	}

	switch h.Interp.State {
	case interp.Advertising:
		h.advertiseCountdown--
		if h.advertiseCountdown <= 0 {
			h.emitAdvertisement()
			h.advertiseCountdown = h.advertisePeriodTicks
		}
	case interp.Strobing:
		h.Interp.StrobeCountdown--
		if h.Interp.StrobeCountdown <= 0 {
			if h.Pump.Strobe.Pending() {
				h.Interp.Overdrive = true
			} else {
				sampler.Sample(h.Reg, h.Plan.Strobe, h.samplerCfg)
				h.Interp.CycleMargin = sampler.CycleMargin(h.Plan.Strobe.BytesTotal(), h.Interp.StrobePeriodTicks, h.Interp.TickPeriodMS, h.Interp.BaudRate)
				txpump.EncodeAndLoad(&h.Pump.Strobe, h.Plan.Strobe.Payload, h.strobeEncoder, h.Plan.StrobeEncodeScratch)
			}
			h.Interp.StrobeCountdown = h.Interp.StrobePeriodTicks
			h.Interp.ApplyStopBoundary()
		}
	}

	if h.commandValid {
		h.handlePendingCommand()
	}

	h.Pump.Tick()
}

func (h *Host) handlePendingCommand() {
	defer func() {
		h.commandValid = false
		h.cmdDecoder = h.newCmdDecoder()
	}()

	if len(h.pendingCommand) > 0 && h.pendingCommand[0] == interp.OpControlPassthrough {
		h.Interp.HandleControl(h.pendingCommand[1:])
		return
	}

	cmd, err := h.wireCodec.DecodeCommand(h.pendingCommand)
	if err != nil {
		// A malformed payload past framing is a protocol error, not a
		// framing error: still silent, per spec.md 7's "framing errors
		// reset... without replying" umbrella treatment for anything
		// that never reaches a valid opcode.
		return
	}

	nonInterleavedStrobing := !h.Interp.Interleaving && h.Interp.State == interp.Strobing
	if nonInterleavedStrobing && isGetOpcode(cmd.Opcode) {
		return // RN ordering policy: GETs ignored while strobing
	}

	r, emit := h.Interp.HandleCommand(cmd)
	if !emit {
		return
	}
	if nonInterleavedStrobing && !isGetOpcode(cmd.Opcode) {
		return // RN ordering policy: SET replies suppressed while strobing too
	}
	dst := h.Plan.Response.Payload[:cap(h.Plan.Response.Payload)]
	n, err := h.wireCodec.EncodeReply(r, dst)
	if err != nil {
		// Formatting failed: fall back to a tiny reply, the echoed
		// opcode and the cancelled error code, with no partial payload.
		tiny := wire.Reply{Opcode: r.Opcode, Errno: failcode.Of(failcode.ErrCancelled)}
		if n, err = h.wireCodec.EncodeReply(tiny, dst); err != nil {
			return
		}
	}
	if h.cmdCRC != nil {
		width := int(h.cmdCRC.Width())
		sum := h.cmdCRC.Sum(dst[:n])
		crc.AppendWidth(dst[n:n+width], sum, h.cmdCRC.Width())
		n += width
	}
	h.Plan.Response.SetPayload(n)
	txpump.EncodeAndLoad(&h.Pump.Response, h.Plan.Response.Payload, h.responseEncoder, h.Plan.ResponseEncodeScratch)
}

func isGetOpcode(opcode byte) bool { return opcode >= 'a' && opcode <= 'z' }

func (h *Host) emitAdvertisement() {
	info := uint32(h.Interp.Info)
	sig := make([]byte, 0, len(advertiseSignaturePrefix)+4+2)
	sig = append(sig, advertiseSignaturePrefix...)
	sig = append(sig, byte(info), byte(info>>8), byte(info>>16), byte(info>>24))
	sig = append(sig, '\r', '\n')
	h.Pump.Strobe.Load(sig)
}

func advertisePeriodTicks(tickPeriodMS int) int {
	if tickPeriodMS <= 0 {
		return 25
	}
	n := 250 / tickPeriodMS
	if n < 1 {
		n = 1
	}
	return n
}

func codecFromConfig(e config.Encoding) codec.Codec {
	switch e {
	case config.EncodingRN:
		return codec.RN
	case config.EncodingCOBS:
		return codec.COBS
	case config.EncodingESCS:
		return codec.ESCS
	default:
		return codec.None
	}
}

func encoderFromConfig(e config.Encoding) codec.Encoder {
	switch e {
	case config.EncodingRN:
		return rn.NewEncoder()
	case config.EncodingCOBS:
		return cobs.NewEncoder()
	case config.EncodingESCS:
		return escs.NewEncoder()
	default:
		return codec.Identity{}
	}
}

func decoderFromConfig(e config.Encoding) codec.Decoder {
	switch e {
	case config.EncodingRN:
		return rn.NewDecoder()
	case config.EncodingCOBS:
		return cobs.NewDecoder()
	case config.EncodingESCS:
		return escs.NewDecoder()
	default:
		return identityDecoder{}
	}
}

// identityDecoder treats every byte as a complete one-byte frame; only
// meaningful for Codec None, which spec.md doesn't actually permit as
// a command encoding, but is here for completeness at construction.
type identityDecoder struct{}

func (identityDecoder) Byte(c byte, dest []byte) (int, error) {
	if len(dest) < 1 {
		return 0, codec.ErrOverrun
	}
	dest[0] = c
	return 1, nil
}

func crcFromWidth(width int) crc.Func {
	return value.Cond[crc.Func](width == 2, crc.CCITT{}, crc.XOR{W: uint8(width)})
}

func encodingToCell(e config.Encoding) cell.Encoding {
	switch e {
	case config.EncodingRN:
		return cell.EncodingRN
	case config.EncodingCOBS:
		return cell.EncodingCOBS
	case config.EncodingESCS:
		return cell.EncodingESCS
	default:
		return cell.EncodingNone
	}
}

func processingModeToCell(m config.ProcessingMode) cell.ProcessingMode {
	if m == config.ProcessingMsgPack {
		return cell.ProcessingMsgPack
	}
	return cell.ProcessingASCII
}

func strobeDynamicsToCell(d config.StrobeDynamics) cell.StrobeDynamics {
	if d == config.StrobeDynamic {
		return cell.StrobeDynamic
	}
	return cell.StrobeStatic
}
