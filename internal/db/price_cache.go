package db

import (
	"encoding/json"
	"fmt"
	"time"

	"bid-advisor/internal/engine"
	"bid-advisor/internal/logger"
)

// GetPriceEstimate returns a cached pricing result for key if it is younger
// than maxAge. Returns (estimate, ok, hit); ok is false for a cached "no data".
func (d *DB) GetPriceEstimate(key string, maxAge time.Duration) (engine.MarketPriceEstimate, bool, bool) {
	var est engine.MarketPriceEstimate
	var hasEstimate bool
	var estJSON, updatedAt string
	err := d.sql.QueryRow(
		"SELECT has_estimate, estimate_json, updated_at FROM price_cache WHERE key = ?", key,
	).Scan(&hasEstimate, &estJSON, &updatedAt)
	if err != nil {
		return est, false, false
	}

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil || time.Since(t) > maxAge {
		return est, false, false
	}
	if !hasEstimate {
		return est, false, true
	}
	if err := json.Unmarshal([]byte(estJSON), &est); err != nil {
		return est, false, false
	}
	return est, true, true
}

// SetPriceEstimate stores a pricing result under key.
func (d *DB) SetPriceEstimate(key string, est engine.MarketPriceEstimate, ok bool) {
	estJSON, _ := json.Marshal(est)
	_, err := d.sql.Exec(
		"INSERT OR REPLACE INTO price_cache (key, has_estimate, estimate_json, updated_at) VALUES (?, ?, ?, ?)",
		key, ok, string(estJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		logger.Warn("DB", fmt.Sprintf("price cache write %s: %v", key, err))
	}
}

// PrunePriceCache deletes cached prices older than maxAge.
func (d *DB) PrunePriceCache(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	res, err := d.sql.Exec("DELETE FROM price_cache WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
