package engine

import (
	"time"

	"bid-advisor/internal/config"
)

// Input is everything the engine needs for one scan. The caller loads it;
// Evaluate performs no I/O.
type Input struct {
	Vehicle DecodedVehicle
	// Market is nil when the pricing service had no estimate.
	Market  *MarketPriceEstimate
	Sales   []SalesRecord
	Profile config.CostProfile
	// Now anchors recency weighting so results are reproducible.
	Now time.Time
}

// Evaluate runs the acquisition pipeline once:
// cost normalizer, historical match scorer, risk adjuster, confidence
// aggregator, then the profit projector and reasoning generator.
//
// The profile must already be validated (config.CostProfile.Validate).
// Identical inputs always produce an identical Recommendation.
func Evaluate(in Input) Recommendation {
	cost := normalizeCost(in.Market, in.Profile)
	match := scoreHistory(in.Vehicle, in.Sales, in.Now)
	risk := adjustRisk(in.Vehicle)

	marketConfidence := 0.0
	if !cost.missing {
		marketConfidence = in.Market.Confidence
	}
	confidence := aggregateConfidence(marketConfidence, match, risk)

	proj := projectProfit(cost, match, in.Profile)
	tier := classify(confidence, proj.profit, risk.forcePass)

	return Recommendation{
		Tier:                tier,
		ConfidenceScore:     confidence,
		EstimatedProfit:     proj.profit,
		MaxBidSuggestion:    cost.maxBid,
		EstimatedDaysToSale: proj.daysToSale,
		Reasons:             buildReasons(in.Market, cost, match, risk, proj, in.Profile),
		MarketPrice:         cost.marketPrice,
		ComparableSales:     match.count,
		AvgMarginPercent:    roundTo(match.avgMarginPercent, 2),
		EvaluatedAt:         in.Now.UTC(),
	}
}
