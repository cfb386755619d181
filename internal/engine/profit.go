package engine

import (
	"math"

	"bid-advisor/internal/config"

	"github.com/shopspring/decimal"
)

// DefaultDaysToSale is used when neither history nor the cost profile say otherwise.
const DefaultDaysToSale = 45

// projection is the Profit Projector output.
type projection struct {
	profit     decimal.Decimal
	daysToSale int
}

// projectProfit computes the profit left at the suggested max bid and the
// expected days on lot.
func projectProfit(c costStage, m matchStage, p config.CostProfile) projection {
	return projection{
		profit:     c.marketPrice.Sub(ComputeTotalInvestment(c.maxBid, p)),
		daysToSale: projectDays(m, p),
	}
}

func projectDays(m matchStage, p config.CostProfile) int {
	switch {
	case m.count > 0:
		return int(math.Round(m.avgDaysToSale))
	case p.TargetDaysToSale > 0:
		return p.TargetDaysToSale
	default:
		return DefaultDaysToSale
	}
}
