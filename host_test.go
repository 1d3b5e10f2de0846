package lasso

import (
	"bytes"
	"testing"

	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/config"
	"github.com/lassohost/lasso/interp"
	"github.com/lassohost/lasso/lassolog"
	"github.com/lassohost/lasso/transport/stub"
)

func testRegistry() *cell.Registry {
	reg := cell.NewRegistry(false)
	speed := make([]byte, 4)
	ft := cell.NewType(cell.KindFloat, 4, true, true, false)
	reg.Register(ft, 1, speed, "speed", "rpm", nil, 1)
	return reg
}

func TestNewHostAdvertisesAfterAdvertisePeriod(t *testing.T) {
	cfg := config.Default()
	cfg.TickPeriodMS = 10
	reg := testRegistry()
	drv := stub.New()

	h, err := NewHost(cfg, reg, drv, lassolog.Nop())
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}

	// advertisePeriodTicks(10) == 25; tick until the advertisement fires.
	for i := 0; i < 25; i++ {
		h.Tick()
	}
	log := drv.TxLog()
	if len(log) == 0 {
		t.Fatal("expected at least one advertisement frame")
	}
	if !bytes.HasPrefix(log[0], []byte(advertiseSignaturePrefix)) {
		t.Fatalf("advertisement = %q, want prefix %q", log[0], advertiseSignaturePrefix)
	}
}

func TestReceiveByteThenTickRepliesToGetDataCellCount(t *testing.T) {
	cfg := config.Default()
	reg := testRegistry()
	drv := stub.New()

	h, err := NewHost(cfg, reg, drv, lassolog.Nop())
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	for _, b := range []byte("n\r\n") {
		h.ReceiveByte(b)
	}
	h.Tick()

	log := drv.TxLog()
	if len(log) == 0 {
		t.Fatal("expected a reply frame")
	}
	want := "n,1,0\r\n"
	if string(log[len(log)-1]) != want {
		t.Fatalf("reply = %q, want %q", log[len(log)-1], want)
	}
}

func TestRNSuppressesSetReplyWhileStrobing(t *testing.T) {
	cfg := config.Default()
	reg := testRegistry()
	drv := stub.New()

	h, err := NewHost(cfg, reg, drv, lassolog.Nop())
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	h.Interp.State = interp.Strobing
	// Keep the next strobe cycle out of this tick so the only frame that
	// could reach the transport is the reply under test.
	h.Interp.StrobeCountdown = 100

	// SetDataCellValue ("V") would normally ack; while non-interleaved
	// (RN) strobing, the reply must be suppressed just like a GET.
	for _, b := range []byte("V,0,1.5\r\n") {
		h.ReceiveByte(b)
	}
	h.Tick()

	if len(drv.TxLog()) != 0 {
		t.Fatalf("TxLog = %v, want no reply while non-interleaved strobing", drv.TxLog())
	}
}

func TestCommandCRCRoundTrips(t *testing.T) {
	cfg := config.Default()
	cfg.CommandEncoding = config.EncodingCOBS
	cfg.CommandCRCEnable = true
	cfg.CRCByteWidth = 2
	reg := testRegistry()
	drv := stub.New()

	h, err := NewHost(cfg, reg, drv, lassolog.Nop())
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}

	payload := []byte("n")
	sum := h.cmdCRC.Sum(payload)
	framed := make([]byte, 0, len(payload)+2+2)
	framed = append(framed, payload...)
	framed = append(framed, byte(sum), byte(sum>>8))
	encoded := make([]byte, 32)
	enc := encoderFromConfig(cfg.CommandEncoding)
	n := enc.Encode(framed, encoded)

	for _, b := range encoded[:n] {
		h.ReceiveByte(b)
	}
	if !h.commandValid {
		t.Fatal("expected a decoded, CRC-verified command pending")
	}
	if string(h.pendingCommand) != "n" {
		t.Fatalf("pendingCommand = %q, want CRC bytes stripped down to %q", h.pendingCommand, "n")
	}
}

func TestCommandCRCMismatchIsSilentlyDropped(t *testing.T) {
	cfg := config.Default()
	cfg.CommandEncoding = config.EncodingCOBS
	cfg.CommandCRCEnable = true
	cfg.CRCByteWidth = 2
	reg := testRegistry()
	drv := stub.New()

	h, err := NewHost(cfg, reg, drv, lassolog.Nop())
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}

	framed := []byte("n") // followed by two deliberately wrong CRC bytes
	framed = append(framed, 0xDE, 0xAD)
	encoded := make([]byte, 32)
	enc := encoderFromConfig(cfg.CommandEncoding)
	n := enc.Encode(framed, encoded)

	for _, b := range encoded[:n] {
		h.ReceiveByte(b)
	}
	if h.commandValid {
		t.Fatal("a CRC mismatch must not leave a pending command")
	}
}

func TestReceiveByteBlocksFurtherIngressUntilTickConsumes(t *testing.T) {
	cfg := config.Default()
	reg := testRegistry()
	drv := stub.New()

	h, err := NewHost(cfg, reg, drv, lassolog.Nop())
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}

	for _, b := range []byte("n\r\n") {
		h.ReceiveByte(b)
	}
	if !h.commandValid {
		t.Fatal("expected a decoded command pending")
	}
	// Further bytes are dropped until Tick consumes the pending command.
	h.ReceiveByte('x')
	if h.commandValid != true {
		t.Fatal("commandValid should remain true until Tick runs")
	}
	h.Tick()
	if h.commandValid {
		t.Fatal("Tick should have consumed the pending command")
	}
}
