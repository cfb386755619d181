package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	marketWeight = 0.4
	matchWeight  = 0.4
	riskWeight   = 0.2
	coldStartCap = 60
	passBelow    = 50
	buyAtOrAbove = 70
)

// aggregateConfidence blends market confidence, history support and risk into
// a 0-100 score. Missing market data counts as zero market confidence.
//
//	raw = 0.4*market + 0.4*match*100 + 0.2*max(0, 100-risk)
//	confidence = clamp(raw - risk, 0, 100), capped at 60 on a cold start
func aggregateConfidence(marketConfidence float64, m matchStage, r riskStage) int {
	marketConfidence = clampFloat(marketConfidence, 0, 100)
	raw := marketWeight*marketConfidence +
		matchWeight*(m.score*100) +
		riskWeight*math.Max(0, 100-r.penalty)

	score := int(math.Round(clampFloat(raw-r.penalty, 0, 100)))
	if m.count == 0 && score > coldStartCap {
		score = coldStartCap
	}
	return score
}

// classify maps a confidence score and projected profit to a tier.
// A branded title always passes.
func classify(confidence int, profit decimal.Decimal, forcePass bool) Tier {
	switch {
	case forcePass:
		return TierPass
	case confidence < passBelow:
		return TierPass
	case confidence < buyAtOrAbove:
		return TierCaution
	case profit.IsPositive():
		return TierBuy
	default:
		return TierCaution
	}
}
