package frame

import (
	"errors"

	"github.com/lassohost/lasso/codec"
)

// ErrOutOfMemory is returned by Plan when a computed buffer size is
// non-positive or otherwise unallocatable, mirroring register_mem's
// out_of_memory failure at bootstrap.
var ErrOutOfMemory = errors.New("frame: out of memory")

// msgpackDisambiguator is the size in bytes of the 0xC1 byte reserved at the head of a
// byte-stuffed strobe so a shared channel can tell strobe from reply
// by first byte alone (spec.md 4.4, 6, 9).
const msgpackDisambiguator = 1

// PlannerConfig describes everything register_mem needs to know to
// size the strobe, response, and command buffers.
type PlannerConfig struct {
	CellCount             int
	StrobeWorstCaseBytes  int // registry.BytesMax(): every cell enabled
	StrobeEncoding        codec.Codec
	CommandEncoding       codec.Codec // also governs the response buffer's framing
	DynamicStrobing       bool
	StrobeCRCEnabled      bool
	StrobeCRCWidth        uint8
	ResponseCRCEnabled    bool
	ResponseCRCWidth      uint8
	Alignment             int
	ResponseBufferOption  int // response_buffer_size config option
	CommandBufferOption   int // command_buffer_size config option
	ExternalStrobeSource  bool
}

// Layout is the sized-and-laid-out result of register_mem: ready-to-use
// Frame buffers (or nil for the strobe buffer, if externally sourced).
type Layout struct {
	Strobe   *Frame
	Response *Frame
	Command  []byte // receive buffer for decoded command bytes

	// StrobeEncodeScratch and ResponseEncodeScratch are scratch buffers
	// sized for the worst-case framed output of their respective
	// payload (register_mem's ESCS double-buffered layout: physical
	// size is double the logical size since ESCS expansion is at most
	// 2x). txpump encodes a Frame's Payload into this scratch area
	// rather than in place, so it is sized here but owned there.
	StrobeEncodeScratch   []byte
	ResponseEncodeScratch []byte
}

func roundUp(n, align int) int {
	if align <= 0 {
		return n
	}
	if rem := n % align; rem != 0 {
		n += align - rem
	}
	return n
}

// Plan implements spec.md 4.4 register_mem: compute final bytes_max
// for strobe and response, allocate, and return ready Frame values.
func Plan(cfg PlannerConfig) (*Layout, error) {
	align := cfg.Alignment
	if align <= 0 {
		align = 4
	}

	plan := &Layout{}

	if !cfg.ExternalStrobeSource {
		strobeHead := 0
		if cfg.StrobeEncoding == codec.COBS || cfg.StrobeEncoding == codec.ESCS {
			strobeHead += msgpackDisambiguator
		}
		if cfg.DynamicStrobing {
			strobeHead += (cfg.CellCount + 7) / 8
		}
		strobeTail := 0
		if cfg.StrobeCRCEnabled {
			strobeTail += int(cfg.StrobeCRCWidth)
		}

		payload := strobeHead + cfg.StrobeWorstCaseBytes + strobeTail
		overhead := cfg.StrobeEncoding.HeaderOverhead() + cfg.StrobeEncoding.FooterOverhead()
		logical := roundUp(payload+overhead, align)
		if logical <= 0 {
			return nil, ErrOutOfMemory
		}

		physical := logical
		if cfg.StrobeEncoding == codec.ESCS {
			physical = logical * 2
		}

		plan.Strobe = &Frame{
			Payload:  make([]byte, 0, logical),
			BytesMax: logical,
		}
		plan.StrobeEncodeScratch = make([]byte, physical)
	}

	respTail := 0
	if cfg.ResponseCRCEnabled {
		respTail += int(cfg.ResponseCRCWidth)
	}
	respOverhead := cfg.CommandEncoding.HeaderOverhead() + cfg.CommandEncoding.FooterOverhead()
	respLogical := roundUp(cfg.ResponseBufferOption+respTail+respOverhead, align)
	if respLogical <= 0 {
		return nil, ErrOutOfMemory
	}
	respPhysical := respLogical
	if cfg.CommandEncoding == codec.ESCS {
		respPhysical = respLogical * 2
	}
	plan.Response = &Frame{
		Payload:  make([]byte, 0, respLogical),
		BytesMax: respLogical,
	}
	plan.ResponseEncodeScratch = make([]byte, respPhysical)

	cmdSize := roundUp(cfg.CommandBufferOption, align)
	if cmdSize <= 0 {
		return nil, ErrOutOfMemory
	}
	plan.Command = make([]byte, cmdSize)

	return plan, nil
}
