package cell

import "errors"

// ErrRejected names an on-change hook rejecting a write. Set does not
// return it: a rejected write leaves the memory untouched and Set
// returns nil, so lasso/interp replies success rather than an error.
var ErrRejected = errors.New("cell: on-change hook rejected write")

// OnChange is invoked with the decoded value before the underlying
// memory is written. Returning false rejects the write; the memory is
// left untouched and no error is reported to the client.
type OnChange func(value any) bool

// Cell is one registered data cell: a typed, named handle onto host
// memory that the client can read (GET) or, if writeable, write (SET).
//
// Ptr holds the backing storage as a byte slice sized
// Count*Type.ByteWidth(). Using a slice rather than an unsafe pointer
// keeps the registry race-detector-clean while preserving the
// original's "read raw host bytes, verbatim byte order" contract.
type Cell struct {
	Type Type
	// Count is the array length; Count*Type.ByteWidth() is the
	// strobe footprint of this cell when enabled.
	Count int
	// Ptr is the backing memory. For char cells this is the raw
	// ASCII bytes (zero-padded to Count); for numeric cells it is
	// Count little/host-endian elements of Type.ByteWidth() bytes.
	Ptr []byte
	// Name and Unit are ASCII identifiers reported by GetDataCellParams.
	Name string
	Unit string
	// UpdateRateReload/UpdateRateRunning implement dynamic strobing:
	// Running counts down each strobe tick; at zero the cell is
	// included and Running reloads from Reload.
	UpdateRateReload  uint16
	UpdateRateRunning uint16

	onChange OnChange
	offset   int // byte offset within the current strobe; set by registry.Reseek
}

// newCell validates and constructs a Cell. ptr == nil is only valid
// when the caller has opted into an externally supplied strobe source
// (externalSource), in which case the cell exists purely for its
// on_change side effect and params reporting.
func newCell(t Type, count int, ptr []byte, name, unit string, onChange OnChange, updateRate uint16, externalSource bool) (*Cell, error) {
	if ptr == nil && !externalSource {
		return nil, ErrNilPointer
	}
	if t.Permanent() {
		t = t.WithEnabled(true)
	}
	return &Cell{
		Type:              t,
		Count:             count,
		Ptr:               ptr,
		Name:              name,
		Unit:              unit,
		UpdateRateReload:  updateRate,
		UpdateRateRunning: updateRate,
		onChange:          onChange,
	}, nil
}

// ErrNilPointer is returned by the registry when a cell is registered
// with a nil backing pointer and no external strobe source configured.
var ErrNilPointer = errors.New("cell: nil backing pointer")

// Footprint returns the strobe byte footprint of the cell:
// Count * max(ByteWidth, 1).
func (c *Cell) Footprint() int {
	w := int(c.Type.ByteWidth())
	if w < 1 {
		w = 1
	}
	return c.Count * w
}

// Offset returns the byte offset within the strobe payload this cell
// occupied the last time the registry recomputed offsets.
func (c *Cell) Offset() int { return c.offset }

// Set offers value to the on-change hook (if any) and, if accepted,
// writes raw into Ptr. Returning false from the hook is not an error:
// the memory is left unmodified and the caller should still reply
// success, matching the original's onChange-before-write ordering.
func (c *Cell) Set(raw []byte) error {
	if !c.Type.Writeable() {
		return ErrNotWriteable
	}
	if c.onChange != nil {
		if !c.onChange(decodeForHook(c.Type, raw)) {
			return nil
		}
	}
	n := copy(c.Ptr, raw)
	for i := n; i < len(c.Ptr); i++ {
		c.Ptr[i] = 0 // zero-pad char arrays and short writes
	}
	return nil
}

// ErrNotWriteable is returned by Set when the writeable bit is clear.
var ErrNotWriteable = errors.New("cell: not writeable")

func decodeForHook(t Type, raw []byte) any {
	if t.Kind() == KindChar {
		return string(raw)
	}
	return raw
}
