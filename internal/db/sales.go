package db

import (
	"database/sql"
	"fmt"
	"time"

	"bid-advisor/internal/engine"
)

const saleDateLayout = time.RFC3339

// InsertSale appends one completed sale to the dealer's ledger and returns its ID.
func (d *DB) InsertSale(dealerID string, s engine.SalesRecord) (int64, error) {
	res, err := d.sql.Exec(insertSaleSQL, saleArgs(normalizeDealerID(dealerID), s)...)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}
	return res.LastInsertId()
}

// InsertSales appends a batch of sales in one transaction.
func (d *DB) InsertSales(dealerID string, sales []engine.SalesRecord) (int, error) {
	if len(sales) == 0 {
		return 0, nil
	}
	dealerID = normalizeDealerID(dealerID)

	tx, err := d.sql.Begin()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(insertSaleSQL)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for i, s := range sales {
		if _, err := stmt.Exec(saleArgs(dealerID, s)...); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert sale %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(sales), nil
}

const insertSaleSQL = `INSERT INTO sales_records
	(dealer_id, year, make, model, mileage, sale_price, acquisition_cost, gross_profit, margin_percent, days_to_sale, sale_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func saleArgs(dealerID string, s engine.SalesRecord) []interface{} {
	s = s.WithDerivedProfit()
	var mileage sql.NullInt64
	if s.Mileage != nil {
		mileage = sql.NullInt64{Int64: int64(*s.Mileage), Valid: true}
	}
	return []interface{}{
		dealerID, s.Year, s.Make, s.Model, mileage,
		s.SalePrice, s.AcquisitionCost, s.GrossProfit, s.MarginPercent, s.DaysToSale,
		s.SaleDate.UTC().Format(saleDateLayout),
	}
}

// RecentSales returns the dealer's sales on or after since, newest first,
// capped at limit rows (limit <= 0 means no cap). This is the window the
// recommendation engine reads.
func (d *DB) RecentSales(dealerID string, since time.Time, limit int) ([]engine.SalesRecord, error) {
	dealerID = normalizeDealerID(dealerID)
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := d.sql.Query(
		`SELECT year, make, model, mileage, sale_price, acquisition_cost, gross_profit,
		 margin_percent, days_to_sale, sale_date
		 FROM sales_records
		 WHERE dealer_id = ? AND sale_date >= ?
		 ORDER BY sale_date DESC, id DESC LIMIT ?`,
		dealerID, since.UTC().Format(saleDateLayout), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	out := []engine.SalesRecord{}
	for rows.Next() {
		var s engine.SalesRecord
		var mileage sql.NullInt64
		var date string
		if err := rows.Scan(&s.Year, &s.Make, &s.Model, &mileage, &s.SalePrice, &s.AcquisitionCost,
			&s.GrossProfit, &s.MarginPercent, &s.DaysToSale, &date); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		if mileage.Valid {
			m := int(mileage.Int64)
			s.Mileage = &m
		}
		s.SaleDate, err = time.Parse(saleDateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("sale date %q: %w", date, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListSales returns the dealer's most recent sales regardless of age.
func (d *DB) ListSales(dealerID string, limit int) ([]engine.SalesRecord, error) {
	return d.RecentSales(dealerID, time.Time{}, limit)
}

// CountSales returns how many sales the dealer has recorded.
func (d *DB) CountSales(dealerID string) (int, error) {
	var n int
	err := d.sql.QueryRow("SELECT COUNT(*) FROM sales_records WHERE dealer_id = ?", normalizeDealerID(dealerID)).Scan(&n)
	return n, err
}
