// Package sampler implements the strobe sampler (spec.md 4.5): on each
// strobe tick, walk the enabled cell chain, apply dynamic update-rate
// decimation, copy cell bytes into the strobe frame, and append a CRC
// if configured.
package sampler

import (
	"encoding/binary"

	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/crc"
	"github.com/lassohost/lasso/frame"
)

// Config controls one Sample call's behavior; it is resolved once at
// Host construction from the tagged configuration (spec.md 9,
// "Conditional compilation across encodings/modes").
type Config struct {
	Dynamic         bool
	HeadReserve     int // disambiguator + mask bytes, already sized by the planner
	MaskBytes       int // 0 unless Dynamic
	Disambiguate    bool // true when the strobe is byte-stuffed and shares the channel with replies
	CRC             crc.Func
	CRCEnabled      bool
	LittleEndian    bool
	UnalignedAccess bool
}

// disambiguatorByte is the invalid MessagePack code reserved at the
// head of a byte-stuffed strobe (spec.md 4.4, 6, 9) so a receiver can
// tell a strobe from a reply by its first byte alone, whether or not
// MessagePack processing is actually in use.
const disambiguatorByte = 0xC1

// Sample captures one strobe cycle into f.Payload, sized to f.BytesMax.
// It mutates each enabled cell's running update-rate half in dynamic
// mode and returns the cells included this cycle, in registration
// order (in static mode, every enabled cell).
func Sample(reg *cell.Registry, f *frame.Frame, cfg Config) []*cell.Cell {
	buf := f.Payload[:cap(f.Payload)]
	cursor := cfg.HeadReserve

	if cfg.Disambiguate && cfg.HeadReserve > 0 {
		buf[0] = disambiguatorByte
	}

	var mask []byte
	if cfg.Dynamic {
		mask = buf[cfg.HeadReserve-cfg.MaskBytes : cfg.HeadReserve]
		for i := range mask {
			mask[i] = 0
		}
	}

	var included []*cell.Cell
	for i, c := range reg.All() {
		if !c.Type.Enabled() {
			continue
		}
		if cfg.Dynamic {
			c.UpdateRateRunning--
			if c.UpdateRateRunning > 0 {
				continue
			}
			c.UpdateRateRunning = c.UpdateRateReload
			mask[i/8] |= 1 << uint(i%8)
		}
		included = append(included, c)
		cursor += copyCell(buf[cursor:], c, cfg)
	}

	if cfg.CRCEnabled && cfg.CRC != nil {
		sum := cfg.CRC.Sum(buf[:cursor])
		width := int(cfg.CRC.Width())
		crc.AppendWidth(buf[cursor:cursor+width], sum, cfg.CRC.Width())
		cursor += width
	}

	f.SetPayload(cursor)
	f.Valid = true
	return included
}

// copyCell copies c's current value into dst, preserving host byte
// order. On targets that forbid unaligned memory access, word-sized
// reads would be required here; since Go slices carry no hardware
// alignment guarantee worth special-casing, dst is always written
// byte-by-byte, honoring only the configured endianness for multi-byte
// scalar kinds (UnalignedAccess is accepted for parity with spec.md 9
// but does not change this function's behavior in Go).
func copyCell(dst []byte, c *cell.Cell, cfg Config) int {
	n := c.Footprint()
	width := int(c.Type.ByteWidth())
	if width <= 1 || cfg.LittleEndian == hostLittleEndian {
		copy(dst[:n], c.Ptr[:n])
		return n
	}
	for off := 0; off+width <= n; off += width {
		for b := 0; b < width; b++ {
			dst[off+b] = c.Ptr[off+width-1-b]
		}
	}
	return n
}

var hostLittleEndian = func() bool {
	var x uint16 = 1
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, x)
	return b[0] == 1
}()

// CycleMargin computes the fraction of channel bandwidth unconsumed by
// transmitting byteCount bytes (plus the UART's 10 bits/byte framing
// overhead: start + 8 data + stop) within periodTicks ticks of
// tickPeriodMS each, at baudRate bits/second (spec.md Glossary "Cycle
// margin", S5). A negative result means overdrive: the strobe would
// not finish transmitting before the next one is due.
func CycleMargin(byteCount, periodTicks, tickPeriodMS, baudRate int) float64 {
	if baudRate <= 0 || periodTicks <= 0 || tickPeriodMS <= 0 {
		return 0
	}
	transmitSeconds := float64(byteCount*10) / float64(baudRate)
	periodSeconds := float64(periodTicks*tickPeriodMS) / 1000.0
	return 1.0 - transmitSeconds/periodSeconds
}
