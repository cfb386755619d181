package db

import (
	"fmt"
	"strconv"

	"bid-advisor/internal/config"
)

// LoadCostProfile reads a dealer's cost profile. Keys the dealer never saved
// keep the values from fallback. The second result reports whether any
// stored keys were found.
func (d *DB) LoadCostProfile(dealerID string, fallback config.CostProfile) (config.CostProfile, bool, error) {
	dealerID = normalizeDealerID(dealerID)
	p := fallback

	rows, err := d.sql.Query("SELECT key, value FROM cost_profile WHERE dealer_id = ?", dealerID)
	if err != nil {
		return p, false, fmt.Errorf("load cost profile: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return p, false, fmt.Errorf("scan cost profile: %w", err)
		}
		m[k] = v
	}
	if err := rows.Err(); err != nil {
		return p, false, fmt.Errorf("load cost profile: %w", err)
	}
	if len(m) == 0 {
		return p, false, nil
	}

	floats := map[string]*float64{
		"auction_fee_percent":   &p.AuctionFeePercent,
		"reconditioning_cost":   &p.ReconditioningCost,
		"transport_cost":        &p.TransportCost,
		"floor_plan_rate":       &p.FloorPlanRate,
		"target_margin_percent": &p.TargetMarginPercent,
	}
	for key, dst := range floats {
		if v, ok := m[key]; ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fallback, false, fmt.Errorf("cost profile %s=%q: %w", key, v, err)
			}
			*dst = f
		}
	}
	if v, ok := m["target_days_to_sale"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fallback, false, fmt.Errorf("cost profile target_days_to_sale=%q: %w", v, err)
		}
		p.TargetDaysToSale = n
	}
	return p, true, nil
}

// SaveCostProfile writes every field of p for the dealer (upsert).
func (d *DB) SaveCostProfile(dealerID string, p config.CostProfile) error {
	dealerID = normalizeDealerID(dealerID)

	pairs := map[string]string{
		"auction_fee_percent":   strconv.FormatFloat(p.AuctionFeePercent, 'g', -1, 64),
		"reconditioning_cost":   strconv.FormatFloat(p.ReconditioningCost, 'g', -1, 64),
		"transport_cost":        strconv.FormatFloat(p.TransportCost, 'g', -1, 64),
		"floor_plan_rate":       strconv.FormatFloat(p.FloorPlanRate, 'g', -1, 64),
		"target_margin_percent": strconv.FormatFloat(p.TargetMarginPercent, 'g', -1, 64),
		"target_days_to_sale":   strconv.Itoa(p.TargetDaysToSale),
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO cost_profile (dealer_id, key, value) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for k, v := range pairs {
		if _, err := stmt.Exec(dealerID, k, v); err != nil {
			tx.Rollback()
			return fmt.Errorf("save cost profile %s: %w", k, err)
		}
	}
	return tx.Commit()
}
