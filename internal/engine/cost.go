package engine

import (
	"bid-advisor/internal/config"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeMaxBid returns the largest auction bid whose total investment
// (bid + percentage auction fee + reconditioning + transport) still leaves the
// target margin on marketPrice. Never negative; rounded to cents.
//
//	max_bid = max(0, (P*(1 - margin/100) - recon - transport) / (1 + fee/100))
func ComputeMaxBid(marketPrice decimal.Decimal, p config.CostProfile) decimal.Decimal {
	if !marketPrice.IsPositive() {
		return decimal.Zero
	}
	marginFactor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p.TargetMarginPercent).Div(hundred))
	budget := marketPrice.Mul(marginFactor).
		Sub(decimal.NewFromFloat(p.ReconditioningCost)).
		Sub(decimal.NewFromFloat(p.TransportCost))
	bid := budget.Div(feeFactor(p))
	if bid.IsNegative() {
		return decimal.Zero
	}
	return bid.RoundFloor(2)
}

// ComputeTotalInvestment is the dealer's all-in cost for winning at bid.
func ComputeTotalInvestment(bid decimal.Decimal, p config.CostProfile) decimal.Decimal {
	return bid.Mul(feeFactor(p)).
		Add(decimal.NewFromFloat(p.ReconditioningCost)).
		Add(decimal.NewFromFloat(p.TransportCost)).
		Round(2)
}

// feeFactor is 1 + fee/100. The profile is validated non-negative by the
// caller, so this is always >= 1.
func feeFactor(p config.CostProfile) decimal.Decimal {
	return decimal.NewFromInt(1).Add(decimal.NewFromFloat(p.AuctionFeePercent).Div(hundred))
}

// costStage is the Cost Normalizer output.
type costStage struct {
	marketPrice decimal.Decimal
	maxBid      decimal.Decimal
	missing     bool // MissingMarketData
	reasons     []Reason
}

func normalizeCost(market *MarketPriceEstimate, p config.CostProfile) costStage {
	if market == nil || market.AveragePrice <= 0 {
		return costStage{
			marketPrice: decimal.Zero,
			maxBid:      decimal.Zero,
			missing:     true,
			reasons: []Reason{{
				Kind:    Neutral,
				Message: "No reliable market price available; max bid set to $0",
			}},
		}
	}
	price := decimal.NewFromFloat(market.AveragePrice).Round(2)
	return costStage{
		marketPrice: price,
		maxBid:      ComputeMaxBid(price, p),
	}
}
