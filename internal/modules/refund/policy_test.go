package refund

import (
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		lead         time.Duration
		total, fee   int64
		wantEligible bool
		wantAmount   int64
	}{
		{"48h out full refund", 48 * time.Hour, 1150, 100, true, 1050},
		{"exactly 24h full refund", 24 * time.Hour, 1150, 100, true, 1050},
		{"12h out half refund", 12 * time.Hour, 1150, 100, true, 525},
		{"exactly 2h half refund", 2 * time.Hour, 1150, 100, true, 525},
		{"30 minutes out no refund", 30 * time.Minute, 1150, 100, false, 0},
		{"departure passed no refund", -1 * time.Hour, 1150, 100, false, 0},
		{"fee exceeds total clamps to zero", 48 * time.Hour, 50, 100, true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(now.Add(tc.lead), now, tc.total, tc.fee)
			if got.IsEligible != tc.wantEligible {
				t.Errorf("eligible = %v, want %v", got.IsEligible, tc.wantEligible)
			}
			if got.RefundAmount.Amount != tc.wantAmount {
				t.Errorf("refund = %d, want %d", got.RefundAmount.Amount, tc.wantAmount)
			}
			if got.RefundAmount.Amount > tc.total {
				t.Errorf("refund %d exceeds total %d", got.RefundAmount.Amount, tc.total)
			}
			if got.Reason == "" {
				t.Error("reason must not be empty")
			}
		})
	}
}

func TestComputeNeverExceedsTotal(t *testing.T) {
	now := time.Now()
	for lead := -2 * time.Hour; lead <= 72*time.Hour; lead += 37 * time.Minute {
		for _, total := range []int64{0, 1, 99, 1150, 100000} {
			for _, fee := range []int64{0, 10, total / 10, total} {
				got := Compute(now.Add(lead), now, total, fee)
				if got.RefundAmount.Amount > total {
					t.Fatalf("lead=%v total=%d fee=%d: refund %d > total", lead, total, fee, got.RefundAmount.Amount)
				}
				if got.RefundAmount.Amount < 0 {
					t.Fatalf("negative refund %d", got.RefundAmount.Amount)
				}
			}
		}
	}
}

func TestComputePreviewMatchesActual(t *testing.T) {
	// Same inputs, same instant: the preview path and the cancellation path
	// call the identical pure function, so results must be byte-identical.
	now := time.Now()
	departure := now.Add(10 * time.Hour)
	preview := Compute(departure, now, 1150, 100)
	actual := Compute(departure, now, 1150, 100)
	if preview != actual {
		t.Fatalf("preview %+v differs from actual %+v", preview, actual)
	}
}
