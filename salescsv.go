package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"bid-advisor/internal/engine"
)

var requiredColumns = []string{"year", "make", "model", "sale_price", "acquisition_cost", "days_to_sale", "sale_date"}

// dateLayouts are tried in order for the sale_date column.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

// parseSalesCSV reads ledger rows keyed by a header line. Column order is
// free; mileage, gross_profit and margin_percent are optional.
func parseSalesCSV(r io.Reader) ([]engine.SalesRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var out []engine.SalesRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		s, err := parseSaleRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseSaleRow(row []string, col map[string]int) (engine.SalesRecord, error) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var s engine.SalesRecord
	var err error

	if s.Year, err = strconv.Atoi(get("year")); err != nil {
		return s, fmt.Errorf("year: %w", err)
	}
	s.Make, s.Model = get("make"), get("model")
	if s.Make == "" || s.Model == "" {
		return s, errors.New("make and model are required")
	}
	if v := get("mileage"); v != "" {
		m, err := strconv.Atoi(strings.ReplaceAll(v, ",", ""))
		if err != nil || m < 0 {
			return s, fmt.Errorf("mileage %q", v)
		}
		s.Mileage = &m
	}
	if s.SalePrice, err = parseMoney(get("sale_price")); err != nil || s.SalePrice <= 0 {
		return s, fmt.Errorf("sale_price %q", get("sale_price"))
	}
	if s.AcquisitionCost, err = parseMoney(get("acquisition_cost")); err != nil || s.AcquisitionCost < 0 {
		return s, fmt.Errorf("acquisition_cost %q", get("acquisition_cost"))
	}
	if v := get("gross_profit"); v != "" {
		if s.GrossProfit, err = parseMoney(v); err != nil {
			return s, fmt.Errorf("gross_profit %q", v)
		}
	}
	if v := get("margin_percent"); v != "" {
		if s.MarginPercent, err = strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64); err != nil {
			return s, fmt.Errorf("margin_percent %q", v)
		}
	}
	if s.DaysToSale, err = strconv.Atoi(get("days_to_sale")); err != nil || s.DaysToSale < 0 {
		return s, fmt.Errorf("days_to_sale %q", get("days_to_sale"))
	}
	if s.SaleDate, err = parseDate(get("sale_date")); err != nil {
		return s, err
	}
	return s.WithDerivedProfit(), nil
}

func parseMoney(v string) (float64, error) {
	v = strings.NewReplacer("$", "", ",", "").Replace(v)
	return strconv.ParseFloat(v, 64)
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("sale_date %q: want YYYY-MM-DD", v)
}
