package cell

import "errors"

// MaxCells is the hard ceiling on registered cells (cell_count fits a
// single byte in GetDataCellCount's reply).
const MaxCells = 255

// ErrTooManyCells is returned by Register once MaxCells is reached.
var ErrTooManyCells = errors.New("cell: registry full")

// ErrUnknownIndex is returned by Seek/At for an out-of-range index.
var ErrUnknownIndex = errors.New("cell: unknown index")

// Registry is the ordered, append-only data space: the chain of
// registered cells in registration order. Registration is the only
// way cells are added; there is no remove.
type Registry struct {
	cells          []*Cell
	externalSource bool
	bytesMax       int // worst case: every cell enabled
	bytesTotal     int // current: only enabled cells
}

// NewRegistry constructs an empty registry. externalSource mirrors the
// register_cell contract: when true, a nil Ptr is accepted because the
// strobe payload for that cell is supplied externally.
func NewRegistry(externalSource bool) *Registry {
	return &Registry{externalSource: externalSource}
}

// Register appends a new cell to the chain, as in spec.md 4.3.
func (r *Registry) Register(t Type, count int, ptr []byte, name, unit string, onChange OnChange, updateRate uint16) (*Cell, error) {
	if len(r.cells) >= MaxCells {
		return nil, ErrTooManyCells
	}
	c, err := newCell(t, count, ptr, name, unit, onChange, updateRate, r.externalSource)
	if err != nil {
		return nil, err
	}
	r.cells = append(r.cells, c)

	r.bytesMax += c.Footprint()
	if c.Type.Enabled() {
		r.bytesTotal += c.Footprint()
	}
	r.reseek()
	return c, nil
}

// Count returns cell_count.
func (r *Registry) Count() int { return len(r.cells) }

// At returns the cell at index i (0-based), as registered.
func (r *Registry) At(i int) (*Cell, error) {
	if i < 0 || i >= len(r.cells) {
		return nil, ErrUnknownIndex
	}
	return r.cells[i], nil
}

// All returns the full chain in registration order. Callers must not
// mutate the returned slice.
func (r *Registry) All() []*Cell { return r.cells }

// Seek returns the cell at index and its byte offset: the sum of
// Count*ByteWidth over enabled cells preceding it.
func (r *Registry) Seek(index int) (*Cell, int, error) {
	c, err := r.At(index)
	if err != nil {
		return nil, 0, err
	}
	return c, c.offset, nil
}

// BytesMax is the worst-case strobe footprint (every cell enabled).
func (r *Registry) BytesMax() int { return r.bytesMax }

// BytesTotal is the current strobe footprint (only enabled cells).
func (r *Registry) BytesTotal() int { return r.bytesTotal }

// SetEnabled toggles a cell's strobe membership and keeps bytesTotal
// and every cell's cached offset consistent. Permanent cells reject
// disabling.
func (r *Registry) SetEnabled(index int, enabled bool) error {
	c, err := r.At(index)
	if err != nil {
		return err
	}
	if c.Type.Permanent() && !enabled {
		return ErrPermanent
	}
	if c.Type.Enabled() == enabled {
		return nil
	}
	if enabled {
		r.bytesTotal += c.Footprint()
	} else {
		r.bytesTotal -= c.Footprint()
	}
	c.Type = c.Type.WithEnabled(enabled)
	r.reseek()
	return nil
}

// ErrPermanent is returned by SetEnabled(false) on a permanent cell.
var ErrPermanent = errors.New("cell: permanent cell cannot be disabled")

// reseek recomputes every cell's cached byte offset. Cheap relative to
// registration/enable frequency; called only on those paths.
func (r *Registry) reseek() {
	off := 0
	for _, c := range r.cells {
		c.offset = off
		if c.Type.Enabled() {
			off += c.Footprint()
		}
	}
}
