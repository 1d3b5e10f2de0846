package interp

import (
	"math"
	"testing"

	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/failcode"
	"github.com/lassohost/lasso/wire"
)

func newTestHost(t *testing.T) (*Host, *cell.Registry) {
	t.Helper()
	reg := cell.NewRegistry(false)
	speed := []byte{0, 0, 0, 0}
	ft := cell.NewType(cell.KindFloat, 4, true, true, false)
	if _, err := reg.Register(ft, 1, speed, "speed", "rpm", nil, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	h := &Host{
		Reg:            reg,
		State:          Idle,
		MinPeriodTicks: 1,
		MaxPeriodTicks: 65535,
	}
	return h, reg
}

func TestGetDataCellCount(t *testing.T) {
	h, _ := newTestHost(t)
	r, emit := h.HandleCommand(wire.Command{Opcode: OpGetDataCellCount})
	if !emit {
		t.Fatal("expected a reply")
	}
	if r.Errno != 0 || len(r.Payload) != 1 || r.Payload[0].Raw[0] != 1 {
		t.Fatalf("reply = %+v", r)
	}
}

func TestSetDataCellValueWritesThroughASCII(t *testing.T) {
	h, reg := newTestHost(t)
	cmd := wire.Command{Opcode: OpSetDataCellValue, Args: []wire.Arg{{Token: "0"}, {Token: "3.25"}}}
	r, emit := h.HandleCommand(cmd)
	if !emit || r.Errno != 0 {
		t.Fatalf("reply = %+v emit=%v", r, emit)
	}
	c, _ := reg.At(0)
	got, _ := decodeFloat32(c.Ptr)
	if got != 3.25 {
		t.Fatalf("cell value = %v, want 3.25", got)
	}
}

func decodeFloat32(raw []byte) (float32, error) {
	var bits uint32
	for i := 0; i < 4; i++ {
		bits |= uint32(raw[i]) << (8 * i)
	}
	return math.Float32frombits(bits), nil
}

func TestSetDataCellValueRejectsReadOnly(t *testing.T) {
	reg := cell.NewRegistry(false)
	ro := cell.NewType(cell.KindUint, 1, true, false, false)
	reg.Register(ro, 1, []byte{0}, "ro", "", nil, 0)
	h := &Host{Reg: reg, State: Idle}

	cmd := wire.Command{Opcode: OpSetDataCellValue, Args: []wire.Arg{{Token: "0"}, {Token: "5"}}}
	r, emit := h.HandleCommand(cmd)
	if !emit || r.Errno != failcode.Of(failcode.ErrPermissionDenied) {
		t.Fatalf("reply = %+v, want permission_denied", r)
	}
}

func TestSetDataCellStrobeRejectedWhileStrobing(t *testing.T) {
	h, _ := newTestHost(t)
	h.State = Strobing
	cmd := wire.Command{Opcode: OpSetDataCellStrobe, Args: []wire.Arg{{Token: "0"}, {Token: "false"}}}
	r, emit := h.HandleCommand(cmd)
	if !emit || r.Errno != failcode.Of(failcode.ErrBusy) {
		t.Fatalf("reply = %+v, want busy", r)
	}
}

func TestSetAdvertiseIsSilent(t *testing.T) {
	h, _ := newTestHost(t)
	h.State = Strobing
	_, emit := h.HandleCommand(wire.Command{Opcode: OpSetAdvertise})
	if emit {
		t.Fatal("SetAdvertise must never emit a reply")
	}
	if h.State != Advertising {
		t.Fatalf("state = %v, want Advertising", h.State)
	}
}

func TestSetDataSpaceStrobeCancelsAdvertising(t *testing.T) {
	h, _ := newTestHost(t)
	h.State = Advertising
	cmd := wire.Command{Opcode: OpSetDataSpaceStrobe, Args: []wire.Arg{{Token: "true"}}}
	_, emit := h.HandleCommand(cmd)
	if emit {
		t.Fatal("starting strobe from advertising must suppress the reply")
	}
	if h.State != Strobing || h.StrobeCountdown != 1 {
		t.Fatalf("state = %v countdown = %d", h.State, h.StrobeCountdown)
	}
}

func TestSetDataSpaceStrobeStopIsDeferred(t *testing.T) {
	h, _ := newTestHost(t)
	h.State = Strobing
	cmd := wire.Command{Opcode: OpSetDataSpaceStrobe, Args: []wire.Arg{{Token: "false"}}}
	r, emit := h.HandleCommand(cmd)
	if !emit || r.Errno != 0 {
		t.Fatalf("reply = %+v", r)
	}
	if h.State != Strobing || !h.StopPending {
		t.Fatal("stop should be pending, not immediate")
	}
	h.ApplyStopBoundary()
	if h.State != Idle || h.StopPending {
		t.Fatal("ApplyStopBoundary should finish the deferred stop")
	}
}

func TestSetStrobePeriodAppliesUnconditionallyButSuppressesWhileAdvertising(t *testing.T) {
	h, _ := newTestHost(t)
	h.State = Advertising
	h.MinPeriodTicks, h.MaxPeriodTicks = 1, 100
	cmd := wire.Command{Opcode: OpSetStrobePeriod, Args: []wire.Arg{{Token: "10"}}}
	_, emit := h.HandleCommand(cmd)
	if emit {
		t.Fatal("reply must be suppressed while advertising")
	}
	if h.StrobePeriodTicks != 10 {
		t.Fatalf("period = %d, want 10 applied regardless", h.StrobePeriodTicks)
	}
}

func TestGetDataCellParamsUnknownIndex(t *testing.T) {
	h, _ := newTestHost(t)
	cmd := wire.Command{Opcode: OpGetDataCellParams, Args: []wire.Arg{{Token: "99"}}}
	r, emit := h.HandleCommand(cmd)
	if !emit || r.Errno != failcode.Of(failcode.ErrBadAddress) {
		t.Fatalf("reply = %+v, want bad_address", r)
	}
}
