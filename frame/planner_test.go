package frame

import (
	"testing"

	"github.com/lassohost/lasso/codec"
)

func TestPlanSizesStrobeAndResponseBuffers(t *testing.T) {
	plan, err := Plan(PlannerConfig{
		CellCount:            4,
		StrobeWorstCaseBytes: 12,
		StrobeEncoding:       codec.None,
		CommandEncoding:      codec.RN,
		ResponseBufferOption: 64,
		CommandBufferOption:  32,
		Alignment:            4,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Strobe == nil {
		t.Fatal("expected a strobe frame")
	}
	if plan.Strobe.BytesMax != 12 {
		t.Fatalf("strobe BytesMax = %d, want 12", plan.Strobe.BytesMax)
	}
	// response buffer option 64 plus RN's 2-byte footer overhead, rounded to 4.
	if plan.Response.BytesMax != 68 {
		t.Fatalf("response BytesMax = %d, want 68", plan.Response.BytesMax)
	}
	if len(plan.Command) != 32 {
		t.Fatalf("command buffer len = %d, want 32", len(plan.Command))
	}
}

func TestPlanESCSDoublesScratchBuffer(t *testing.T) {
	plan, err := Plan(PlannerConfig{
		CellCount:            2,
		StrobeWorstCaseBytes: 8,
		StrobeEncoding:       codec.ESCS,
		CommandEncoding:      codec.None,
		ResponseBufferOption: 32,
		CommandBufferOption:  16,
		Alignment:            4,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.StrobeEncodeScratch) != 2*plan.Strobe.BytesMax {
		t.Fatalf("scratch len = %d, want double of %d", len(plan.StrobeEncodeScratch), plan.Strobe.BytesMax)
	}
}

func TestPlanExternalStrobeSourceOmitsStrobeFrame(t *testing.T) {
	plan, err := Plan(PlannerConfig{
		ExternalStrobeSource: true,
		CommandEncoding:      codec.None,
		ResponseBufferOption: 32,
		CommandBufferOption:  16,
		Alignment:            4,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Strobe != nil {
		t.Fatal("expected no strobe frame for an externally sourced strobe")
	}
}

func TestPlanRejectsNonPositiveCommandBuffer(t *testing.T) {
	_, err := Plan(PlannerConfig{
		ExternalStrobeSource: true, // no strobe buffer, so only the command buffer can fail
		CommandEncoding:      codec.None,
		ResponseBufferOption: 32,
		CommandBufferOption:  0,
		Alignment:            4,
	})
	if err != ErrOutOfMemory {
		t.Fatalf("err = %v, want ErrOutOfMemory", err)
	}
}
