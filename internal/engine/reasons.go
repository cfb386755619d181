package engine

import (
	"fmt"
	"strings"

	"bid-advisor/internal/config"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	// lowMarketConfidence marks a price estimate as untrustworthy.
	lowMarketConfidence = 50
	// goodMarketConfidence marks a listing-backed estimate as solid.
	goodMarketConfidence = 70
	// widePriceSpread is the (max-min)/avg ratio reported as a wide market.
	widePriceSpread = 0.30
	// staleRecency is the mean recency weight below which history is called out as old.
	staleRecency = 0.5
)

// buildReasons assembles every stage's reasons in a fixed order:
// market data, historical match, risk factors, then the bid/profit summary.
func buildReasons(market *MarketPriceEstimate, c costStage, m matchStage, r riskStage, pr projection, p config.CostProfile) []Reason {
	out := make([]Reason, 0, 8+len(r.reasons))
	out = append(out, marketReasons(market, c)...)
	out = append(out, m.reasons...)
	out = append(out, historyReasons(m, p)...)
	out = append(out, r.reasons...)
	out = append(out, profitReasons(c, pr, p)...)
	return out
}

func marketReasons(market *MarketPriceEstimate, c costStage) []Reason {
	if c.missing {
		return c.reasons
	}
	price := FormatUSD(c.marketPrice)
	conf := int(clampFloat(market.Confidence, 0, 100) + 0.5)

	var out []Reason
	switch {
	case conf < lowMarketConfidence:
		out = append(out, Reason{Kind: Negative, Message: fmt.Sprintf("Low confidence in market price of %s (%d%%)", price, conf)})
	case market.DataSource == SourceRealListings && conf >= goodMarketConfidence:
		out = append(out, Reason{Kind: Positive, Message: fmt.Sprintf("Market price of %s based on real listings (%d%% confidence)", price, conf)})
	case market.DataSource == SourceRealListings:
		out = append(out, Reason{Kind: Neutral, Message: fmt.Sprintf("Market price of %s based on real listings (%d%% confidence)", price, conf)})
	default:
		out = append(out, Reason{Kind: Neutral, Message: fmt.Sprintf("Market price of %s is estimated, not from live listings (%d%% confidence)", price, conf)})
	}

	if market.MaxPrice > market.MinPrice && market.MinPrice > 0 {
		spread := (market.MaxPrice - market.MinPrice) / market.AveragePrice
		if spread > widePriceSpread {
			out = append(out, Reason{Kind: Neutral, Message: fmt.Sprintf("Wide market range: %s to %s",
				FormatUSD(decimal.NewFromFloat(market.MinPrice)), FormatUSD(decimal.NewFromFloat(market.MaxPrice)))})
		}
	}
	return out
}

func historyReasons(m matchStage, p config.CostProfile) []Reason {
	if m.count == 0 {
		return nil
	}
	days := int(m.avgDaysToSale + 0.5)
	kind := Neutral
	if m.score >= 0.5 {
		kind = Positive
	}
	out := []Reason{{
		Kind:    kind,
		Message: fmt.Sprintf("%s sold, averaging %d days to sell", plural(m.count, "similar vehicle", "similar vehicles"), days),
	}}

	if m.recency < staleRecency {
		out = append(out, Reason{Kind: Neutral, Message: "Most comparable sales are more than 90 days old"})
	}

	marginKind := Positive
	if m.avgMarginPercent < p.TargetMarginPercent {
		marginKind = Negative
	}
	out = append(out, Reason{
		Kind:    marginKind,
		Message: fmt.Sprintf("Comparable sales averaged %.1f%% margin (target %s%%)", m.avgMarginPercent, trimFloat(p.TargetMarginPercent)),
	})

	if p.TargetDaysToSale > 0 && days > p.TargetDaysToSale {
		out = append(out, Reason{
			Kind:    Negative,
			Message: fmt.Sprintf("Comparable vehicles take longer than the %d-day target to sell", p.TargetDaysToSale),
		})
	}
	return out
}

func profitReasons(c costStage, pr projection, p config.CostProfile) []Reason {
	if !c.maxBid.IsPositive() {
		if c.missing {
			return []Reason{{Kind: Negative, Message: "No bid recommended without a market price"}}
		}
		return []Reason{{
			Kind:    Negative,
			Message: fmt.Sprintf("No bid clears the %s%% target margin after fees and costs", trimFloat(p.TargetMarginPercent)),
		}}
	}
	if pr.profit.IsPositive() {
		return []Reason{{
			Kind:    Positive,
			Message: fmt.Sprintf("Max bid %s leaves an estimated %s profit", FormatUSD(c.maxBid), FormatUSD(pr.profit)),
		}}
	}
	return []Reason{{
		Kind:    Negative,
		Message: fmt.Sprintf("Max bid %s leaves no profit after costs", FormatUSD(c.maxBid)),
	}}
}

// FormatUSD renders an amount as $1,234.56 (or -$1,234.56).
func FormatUSD(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(s, ".")
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	n := decimal.RequireFromString(whole).IntPart()
	return sign + "$" + humanize.Comma(n) + "." + cents
}

func trimFloat(f float64) string {
	return decimal.NewFromFloat(f).String()
}
