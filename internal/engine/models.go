package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TitleStatus is the legal/condition classification of a vehicle title.
type TitleStatus string

const (
	TitleClean   TitleStatus = "clean"
	TitleSalvage TitleStatus = "salvage"
	TitleRebuilt TitleStatus = "rebuilt"
	TitleUnknown TitleStatus = "unknown"
)

// Branded reports whether the title carries a salvage or rebuilt brand.
func (t TitleStatus) Branded() bool {
	return t == TitleSalvage || t == TitleRebuilt
}

// Known reports whether the title status was actually reported.
func (t TitleStatus) Known() bool {
	return t == TitleClean || t == TitleSalvage || t == TitleRebuilt
}

// ParseTitleStatus maps free-form input to a TitleStatus, ignoring case and
// surrounding space. Anything unrecognised is unknown.
func ParseTitleStatus(s string) TitleStatus {
	switch t := TitleStatus(strings.ToLower(strings.TrimSpace(s))); t {
	case TitleClean, TitleSalvage, TitleRebuilt:
		return t
	}
	return TitleUnknown
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TitleStatus) UnmarshalText(b []byte) error {
	*t = ParseTitleStatus(string(b))
	return nil
}

// DecodedVehicle is a vehicle as returned by the VIN decoder, optionally
// enriched with condition data supplied by the dealer.
type DecodedVehicle struct {
	VIN                string      `json:"vin,omitempty"`
	Year               int         `json:"year"`
	Make               string      `json:"make"`
	Model              string      `json:"model"`
	Trim               string      `json:"trim,omitempty"`
	BodyType           string      `json:"body_type,omitempty"`
	Engine             string      `json:"engine,omitempty"`
	Transmission       string      `json:"transmission,omitempty"`
	Mileage            *int        `json:"mileage,omitempty"`
	TitleStatus        TitleStatus `json:"title_status"`
	OwnerCount         *int        `json:"owner_count,omitempty"`
	AccidentCount      *int        `json:"accident_count,omitempty"`
	ServiceRecordCount *int        `json:"service_record_count,omitempty"`
}

// DataSource tells where a market price estimate came from.
type DataSource string

const (
	SourceRealListings DataSource = "real_listings"
	SourceEstimated    DataSource = "estimated"
)

// MarketPriceEstimate is the pricing service's view of the vehicle's retail value.
type MarketPriceEstimate struct {
	AveragePrice float64    `json:"average_price"`
	MinPrice     float64    `json:"min_price"`
	MaxPrice     float64    `json:"max_price"`
	Confidence   float64    `json:"confidence"` // 0-100
	DataSource   DataSource `json:"data_source"`
}

// SalesRecord is one completed retail sale from the dealer's ledger.
type SalesRecord struct {
	Year            int       `json:"year"`
	Make            string    `json:"make"`
	Model           string    `json:"model"`
	Mileage         *int      `json:"mileage,omitempty"`
	SalePrice       float64   `json:"sale_price"`
	AcquisitionCost float64   `json:"acquisition_cost"`
	GrossProfit     float64   `json:"gross_profit"`
	MarginPercent   float64   `json:"margin_percent"`
	DaysToSale      int       `json:"days_to_sale"`
	SaleDate        time.Time `json:"sale_date"`
}

// Tier is the three-way acquisition recommendation.
type Tier int

const (
	TierPass Tier = iota
	TierCaution
	TierBuy
)

func (t Tier) String() string {
	switch t {
	case TierBuy:
		return "buy"
	case TierCaution:
		return "caution"
	case TierPass:
		return "pass"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	switch t {
	case TierBuy, TierCaution, TierPass:
		return []byte(t.String()), nil
	}
	return nil, fmt.Errorf("invalid tier %d", int(t))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier parses "buy", "caution" or "pass".
func ParseTier(s string) (Tier, error) {
	switch s {
	case "buy":
		return TierBuy, nil
	case "caution":
		return TierCaution, nil
	case "pass":
		return TierPass, nil
	}
	return TierPass, fmt.Errorf("unknown tier %q", s)
}

// ReasonKind classifies an explanatory factor.
type ReasonKind string

const (
	Positive ReasonKind = "positive"
	Negative ReasonKind = "negative"
	Neutral  ReasonKind = "neutral"
)

// Reason is one explanatory factor attached to a recommendation.
type Reason struct {
	Kind    ReasonKind `json:"kind"`
	Message string     `json:"message"`
}

// Recommendation is the engine output for a single scanned vehicle.
// It is never modified after Evaluate returns it.
type Recommendation struct {
	Tier                Tier            `json:"tier"`
	ConfidenceScore     int             `json:"confidence_score"`
	EstimatedProfit     decimal.Decimal `json:"estimated_profit"`
	MaxBidSuggestion    decimal.Decimal `json:"max_bid_suggestion"`
	EstimatedDaysToSale int             `json:"estimated_days_to_sale"`
	Reasons             []Reason        `json:"reasons"`

	// Evidence kept alongside the decision for the scan log.
	MarketPrice      decimal.Decimal `json:"market_price"`
	ComparableSales  int             `json:"comparable_sales"`
	AvgMarginPercent float64         `json:"avg_margin_percent"`
	EvaluatedAt      time.Time       `json:"evaluated_at"`
}

// WithDerivedProfit fills GrossProfit and MarginPercent from SalePrice and
// AcquisitionCost when the ledger left both empty.
func (s SalesRecord) WithDerivedProfit() SalesRecord {
	if s.GrossProfit != 0 || s.MarginPercent != 0 {
		return s
	}
	s.GrossProfit = s.SalePrice - s.AcquisitionCost
	if s.SalePrice > 0 {
		s.MarginPercent = s.GrossProfit / s.SalePrice * 100
	}
	return s
}
