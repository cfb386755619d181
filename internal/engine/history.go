package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// yearWindow is how far a sale's model year may be from the candidate's.
	yearWindow = 2
	// mileageTolerance is the relative mileage band for comparables (±30%).
	mileageTolerance = 0.30
	// fullSampleSize comparables give the history full weight.
	fullSampleSize = 10
	// recentDays is the window in which a sale counts at full weight.
	recentDays = 90
	// minRecencyWeight keeps old sales in play at a reduced weight.
	minRecencyWeight = 0.1
)

// matchStage is the Historical Match Scorer output.
type matchStage struct {
	count            int
	score            float64 // 0..1
	recency          float64 // mean recency weight of the comparables
	avgDaysToSale    float64 // recency-weighted
	avgMarginPercent float64 // recency-weighted
	reasons          []Reason
}

// isComparable reports whether a past sale is a usable comparable for v.
func isComparable(v DecodedVehicle, s SalesRecord) bool {
	if !sameName(v.Make, s.Make) || !sameName(v.Model, s.Model) {
		return false
	}
	if absInt(v.Year-s.Year) > yearWindow {
		return false
	}
	if v.Mileage != nil && s.Mileage != nil && *v.Mileage > 0 {
		diff := math.Abs(float64(*s.Mileage - *v.Mileage))
		if diff/float64(*v.Mileage) > mileageTolerance {
			return false
		}
	}
	return true
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// recencyWeight is 1 inside the recent window, then halves every further
// recentDays, never dropping below minRecencyWeight.
func recencyWeight(saleDate, now time.Time) float64 {
	age := now.Sub(saleDate).Hours() / 24
	if age <= recentDays {
		return 1
	}
	w := math.Pow(0.5, (age-recentDays)/recentDays)
	if w < minRecencyWeight {
		return minRecencyWeight
	}
	return w
}

// matchFold accumulates weighted sums over comparables.
type matchFold struct {
	count     int
	weightSum float64
	daysSum   float64
	marginSum float64
}

func (f matchFold) add(s SalesRecord, w float64) matchFold {
	return matchFold{
		count:     f.count + 1,
		weightSum: f.weightSum + w,
		daysSum:   f.daysSum + w*float64(s.DaysToSale),
		marginSum: f.marginSum + w*s.MarginPercent,
	}
}

// scoreHistory filters the dealer's sales down to comparables and summarises them.
func scoreHistory(v DecodedVehicle, sales []SalesRecord, now time.Time) matchStage {
	var f matchFold
	for _, s := range sales {
		if isComparable(v, s) {
			f = f.add(s, recencyWeight(s.SaleDate, now))
		}
	}

	if f.count == 0 {
		return matchStage{
			reasons: []Reason{{
				Kind:    Neutral,
				Message: fmt.Sprintf("No historical data for this vehicle type (%s %s)", strings.TrimSpace(v.Make), strings.TrimSpace(v.Model)),
			}},
		}
	}

	sample := math.Min(float64(f.count)/fullSampleSize, 1)
	recency := f.weightSum / float64(f.count)
	return matchStage{
		count:            f.count,
		score:            clampFloat(sample*recency, 0, 1),
		recency:          recency,
		avgDaysToSale:    f.daysSum / f.weightSum,
		avgMarginPercent: f.marginSum / f.weightSum,
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
