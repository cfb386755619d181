package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

// --- aggregateConfidence: clamp(0.4*mc + 0.4*ms*100 + 0.2*max(0,100-rp) - rp, 0, 100) ---

func TestAggregateConfidence_Exact(t *testing.T) {
	tests := []struct {
		name    string
		market  float64
		count   int
		score   float64
		penalty float64
		want    int
	}{
		// 0.4*85 + 0.4*100 + 0.2*100 = 34+40+20 = 94
		{"strong everything", 85, 12, 1, 0, 94},
		// 0.4*85 + 0 + 20 = 54
		{"cold start under cap", 85, 0, 0, 0, 54},
		// 0.4*100 + 0 + 20 = 60
		{"cold start at cap", 100, 0, 0, 0, 60},
		// 0.4*80 + 0.4*50 + 0.2*90 - 10 = 32+20+18-10 = 60
		{"with penalty", 80, 5, 0.5, 10, 60},
		// 0.4*90 + 40 + 0.2*60 - 40 = 36+40+12-40 = 48
		{"salvage-sized penalty", 90, 12, 1, 40, 48},
		// 0 + 0 + 0 - 150 -> clamped to 0
		{"penalty beyond 100", 0, 0, 0, 150, 0},
		// 0.4*200 clamped market -> 0.4*100 + 40 + 20 = 100
		{"market confidence clamped", 200, 12, 1, 0, 100},
		// 0.4*(-50 -> 0) + 0 + 20 = 20
		{"negative market confidence", -50, 0, 0, 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregateConfidence(tt.market, matchStage{count: tt.count, score: tt.score}, riskStage{penalty: tt.penalty})
			if got != tt.want {
				t.Errorf("aggregateConfidence = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAggregateConfidence_ColdStartCap(t *testing.T) {
	// Even a perfect market signal cannot lift a cold start above 60.
	for _, mc := range []float64{0, 50, 75, 100} {
		got := aggregateConfidence(mc, matchStage{}, riskStage{})
		if got > coldStartCap {
			t.Errorf("cold start confidence = %d with market %v, want <= %d", got, mc, coldStartCap)
		}
	}
}

func TestAggregateConfidence_Bounded(t *testing.T) {
	for mc := -100.0; mc <= 300; mc += 25 {
		for _, ms := range []float64{0, 0.25, 0.5, 1} {
			for rp := 0.0; rp <= 200; rp += 10 {
				got := aggregateConfidence(mc, matchStage{count: 10, score: ms}, riskStage{penalty: rp})
				if got < 0 || got > 100 {
					t.Fatalf("aggregateConfidence(%v, %v, %v) = %d, out of [0,100]", mc, ms, rp, got)
				}
			}
		}
	}
}

func TestClassify(t *testing.T) {
	profit := decimal.NewFromInt(1000)
	loss := decimal.NewFromInt(-10)
	tests := []struct {
		name       string
		confidence int
		profit     decimal.Decimal
		forcePass  bool
		want       Tier
	}{
		{"zero", 0, profit, false, TierPass},
		{"just below caution", 49, profit, false, TierPass},
		{"caution floor", 50, profit, false, TierCaution},
		{"caution ceiling", 69, profit, false, TierCaution},
		{"buy floor", 70, profit, false, TierBuy},
		{"max", 100, profit, false, TierBuy},
		{"high confidence zero profit", 90, decimal.Zero, false, TierCaution},
		{"high confidence loss", 90, loss, false, TierCaution},
		{"branded title", 100, profit, true, TierPass},
		{"branded title mid", 60, profit, true, TierPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.confidence, tt.profit, tt.forcePass); got != tt.want {
				t.Errorf("classify(%d, %s, %v) = %v, want %v", tt.confidence, tt.profit, tt.forcePass, got, tt.want)
			}
		})
	}
}

func TestTier_TextRoundTrip(t *testing.T) {
	for _, tier := range []Tier{TierBuy, TierCaution, TierPass} {
		b, err := tier.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", tier, err)
		}
		var got Tier
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != tier {
			t.Errorf("round trip %v -> %q -> %v", tier, b, got)
		}
	}
	if _, err := ParseTier("maybe"); err == nil {
		t.Error("ParseTier(maybe) should fail")
	}
	if _, err := Tier(7).MarshalText(); err == nil {
		t.Error("MarshalText(7) should fail")
	}
}
