package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bid-advisor/internal/engine"

	"github.com/shopspring/decimal"
)

// scanTimeLayout is fixed-width so timestamps sort correctly as text.
const scanTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// ScanRecord is one persisted evaluation in a dealer's scan log.
type ScanRecord struct {
	ID              string                      `json:"id"`
	DealerID        string                      `json:"dealer_id"`
	Timestamp       time.Time                   `json:"timestamp"`
	VIN             string                      `json:"vin"`
	Year            int                         `json:"year"`
	Make            string                      `json:"make"`
	Model           string                      `json:"model"`
	Tier            engine.Tier                 `json:"tier"`
	Confidence      int                         `json:"confidence"`
	EstimatedProfit decimal.Decimal             `json:"estimated_profit"`
	MaxBid          decimal.Decimal             `json:"max_bid"`
	DaysToSale      int                         `json:"days_to_sale"`
	DurationMs      int64                       `json:"duration_ms"`
	Vehicle         engine.DecodedVehicle       `json:"vehicle"`
	Market          *engine.MarketPriceEstimate `json:"market,omitempty"`
	Recommendation  engine.Recommendation       `json:"recommendation"`
}

// NewScanRecord flattens an evaluation into a log row.
func NewScanRecord(id, dealerID string, v engine.DecodedVehicle, market *engine.MarketPriceEstimate, rec engine.Recommendation, duration time.Duration) ScanRecord {
	return ScanRecord{
		ID:              id,
		DealerID:        normalizeDealerID(dealerID),
		Timestamp:       rec.EvaluatedAt,
		VIN:             v.VIN,
		Year:            v.Year,
		Make:            v.Make,
		Model:           v.Model,
		Tier:            rec.Tier,
		Confidence:      rec.ConfidenceScore,
		EstimatedProfit: rec.EstimatedProfit,
		MaxBid:          rec.MaxBidSuggestion,
		DaysToSale:      rec.EstimatedDaysToSale,
		DurationMs:      duration.Milliseconds(),
		Vehicle:         v,
		Market:          market,
		Recommendation:  rec,
	}
}

// InsertScan stores a scan record. The caller assigns the ID.
func (d *DB) InsertScan(r ScanRecord) error {
	if r.ID == "" {
		return errors.New("insert scan: empty id")
	}
	vehicleJSON, err := json.Marshal(r.Vehicle)
	if err != nil {
		return fmt.Errorf("marshal vehicle: %w", err)
	}
	marketJSON, err := json.Marshal(r.Market)
	if err != nil {
		return fmt.Errorf("marshal market: %w", err)
	}
	recJSON, err := json.Marshal(r.Recommendation)
	if err != nil {
		return fmt.Errorf("marshal recommendation: %w", err)
	}
	_, err = d.sql.Exec(
		`INSERT INTO scan_history
		 (id, dealer_id, timestamp, vin, year, make, model, tier, confidence,
		  estimated_profit, max_bid, days_to_sale, vehicle_json, market_json, recommendation_json, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, normalizeDealerID(r.DealerID), r.Timestamp.UTC().Format(scanTimeLayout),
		r.VIN, r.Year, r.Make, r.Model, r.Tier.String(), r.Confidence,
		r.EstimatedProfit.String(), r.MaxBid.String(), r.DaysToSale,
		string(vehicleJSON), string(marketJSON), string(recJSON), r.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

const scanColumns = `id, dealer_id, timestamp, vin, year, make, model, tier, confidence,
	estimated_profit, max_bid, days_to_sale, vehicle_json, market_json, recommendation_json, duration_ms`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(row rowScanner) (ScanRecord, error) {
	var r ScanRecord
	var ts, tier, profit, maxBid, vehicleJSON, marketJSON, recJSON string
	if err := row.Scan(&r.ID, &r.DealerID, &ts, &r.VIN, &r.Year, &r.Make, &r.Model, &tier, &r.Confidence,
		&profit, &maxBid, &r.DaysToSale, &vehicleJSON, &marketJSON, &recJSON, &r.DurationMs); err != nil {
		return r, err
	}
	var err error
	if r.Timestamp, err = time.Parse(scanTimeLayout, ts); err != nil {
		return r, fmt.Errorf("scan %s timestamp: %w", r.ID, err)
	}
	if r.Tier, err = engine.ParseTier(tier); err != nil {
		return r, fmt.Errorf("scan %s: %w", r.ID, err)
	}
	if r.EstimatedProfit, err = decimal.NewFromString(profit); err != nil {
		return r, fmt.Errorf("scan %s profit: %w", r.ID, err)
	}
	if r.MaxBid, err = decimal.NewFromString(maxBid); err != nil {
		return r, fmt.Errorf("scan %s max bid: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(vehicleJSON), &r.Vehicle); err != nil {
		return r, fmt.Errorf("scan %s vehicle: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(marketJSON), &r.Market); err != nil {
		return r, fmt.Errorf("scan %s market: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(recJSON), &r.Recommendation); err != nil {
		return r, fmt.Errorf("scan %s recommendation: %w", r.ID, err)
	}
	return r, nil
}

// GetScans returns the dealer's last N scans, newest first.
func (d *DB) GetScans(dealerID string, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		"SELECT "+scanColumns+" FROM scan_history WHERE dealer_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?",
		normalizeDealerID(dealerID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	records := []ScanRecord{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetScan returns one scan owned by the dealer, or ErrNotFound.
func (d *DB) GetScan(dealerID, id string) (ScanRecord, error) {
	row := d.sql.QueryRow(
		"SELECT "+scanColumns+" FROM scan_history WHERE dealer_id = ? AND id = ?",
		normalizeDealerID(dealerID), id,
	)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ScanRecord{}, ErrNotFound
	}
	return r, err
}

// DeleteScan removes one scan owned by the dealer.
func (d *DB) DeleteScan(dealerID, id string) error {
	res, err := d.sql.Exec("DELETE FROM scan_history WHERE dealer_id = ? AND id = ?", normalizeDealerID(dealerID), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearScans deletes the dealer's scans older than olderThanDays relative to now.
// Zero days clears everything.
func (d *DB) ClearScans(dealerID string, olderThanDays int, now time.Time) (int64, error) {
	dealerID = normalizeDealerID(dealerID)
	var res sql.Result
	var err error
	if olderThanDays <= 0 {
		res, err = d.sql.Exec("DELETE FROM scan_history WHERE dealer_id = ?", dealerID)
	} else {
		cutoff := now.UTC().AddDate(0, 0, -olderThanDays).Format(scanTimeLayout)
		res, err = d.sql.Exec("DELETE FROM scan_history WHERE dealer_id = ? AND timestamp < ?", dealerID, cutoff)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ScanSummary aggregates a dealer's scan log.
type ScanSummary struct {
	Total         int                 `json:"total"`
	ByTier        map[engine.Tier]int `json:"by_tier"`
	AvgConfidence float64             `json:"avg_confidence"`
	BuyProfit     decimal.Decimal     `json:"buy_profit"`
}

// SummarizeScans counts scans per tier, averages confidence and sums the
// projected profit of buy recommendations.
func (d *DB) SummarizeScans(dealerID string) (ScanSummary, error) {
	s := ScanSummary{
		ByTier:    map[engine.Tier]int{engine.TierBuy: 0, engine.TierCaution: 0, engine.TierPass: 0},
		BuyProfit: decimal.Zero,
	}
	rows, err := d.sql.Query(
		"SELECT tier, confidence, estimated_profit FROM scan_history WHERE dealer_id = ?",
		normalizeDealerID(dealerID),
	)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	confSum := 0
	for rows.Next() {
		var tierStr, profitStr string
		var conf int
		if err := rows.Scan(&tierStr, &conf, &profitStr); err != nil {
			return s, err
		}
		tier, err := engine.ParseTier(tierStr)
		if err != nil {
			return s, err
		}
		s.Total++
		s.ByTier[tier]++
		confSum += conf
		if tier == engine.TierBuy {
			profit, err := decimal.NewFromString(profitStr)
			if err != nil {
				return s, err
			}
			s.BuyProfit = s.BuyProfit.Add(profit)
		}
	}
	if err := rows.Err(); err != nil {
		return s, err
	}
	if s.Total > 0 {
		s.AvgConfidence = float64(confSum) / float64(s.Total)
	}
	return s, nil
}
