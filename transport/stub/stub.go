// Package stub provides an in-memory mock Transport for host-side
// tests and the lassoctl demo, mirroring the teacher's
// driver/stub/stub_driver.go ring-buffer test double.
package stub

import (
	"sync"

	"github.com/lassohost/lasso/transport"
)

// Driver implements transport.Transport over an in-memory TX log. It
// can be configured to report Busy or Error for a number of
// subsequent sends, to exercise the TX pump's retry/abandon paths.
type Driver struct {
	mu       sync.Mutex
	txLog    [][]byte
	busyLeft int
	errLeft  int
}

// New returns a fresh stub transport.
func New() *Driver { return &Driver{} }

// Send implements transport.Transport.
func (d *Driver) Send(data []byte) transport.Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busyLeft > 0 {
		d.busyLeft--
		return transport.Busy
	}
	if d.errLeft > 0 {
		d.errLeft--
		return transport.Error
	}

	frame := make([]byte, len(data))
	copy(frame, data)
	d.txLog = append(d.txLog, frame)
	return transport.OK
}

// InjectBusy makes the next n Send calls report Busy.
func (d *Driver) InjectBusy(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busyLeft = n
}

// InjectError makes the next n Send calls report Error.
func (d *Driver) InjectError(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errLeft = n
}

// TxLog returns a snapshot of every chunk accepted by Send so far.
func (d *Driver) TxLog() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.txLog))
	for i, frame := range d.txLog {
		out[i] = append([]byte(nil), frame...)
	}
	return out
}
