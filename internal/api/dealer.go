package api

import (
	"fmt"
	"net/http"
	"time"

	"bid-advisor/internal/config"
	"bid-advisor/internal/engine"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func (s *Server) handleGetCostProfile(w http.ResponseWriter, r *http.Request) {
	p, stored, err := s.db.LoadCostProfile(dealerID(r), s.cfg.CostProfile)
	if err != nil {
		writeServiceError(w, "Profile", err)
		return
	}
	writeJSON(w, map[string]interface{}{"profile": p, "stored": stored})
}

func (s *Server) handlePutCostProfile(w http.ResponseWriter, r *http.Request) {
	var p config.CostProfile
	if err := decodeBody(w, r, &p); err != nil {
		writeError(w, 400, err.Error())
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, 400, err.Error())
		return
	}
	if err := s.db.SaveCostProfile(dealerID(r), p); err != nil {
		writeServiceError(w, "Profile", err)
		return
	}
	writeJSON(w, map[string]interface{}{"profile": p, "stored": true})
}

func (s *Server) handleGetSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.db.ListSales(dealerID(r), queryLimit(r, 100, 5000))
	if err != nil {
		writeServiceError(w, "Sales", err)
		return
	}
	writeJSON(w, sales)
}

// saleInput is one ledger row as posted by a dealer. Gross profit and
// margin are derived when omitted.
type saleInput struct {
	Year            int       `json:"year" validate:"gte=1900,lte=2100"`
	Make            string    `json:"make" validate:"required"`
	Model           string    `json:"model" validate:"required"`
	Mileage         *int      `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	SalePrice       float64   `json:"sale_price" validate:"gt=0"`
	AcquisitionCost float64   `json:"acquisition_cost" validate:"gte=0"`
	GrossProfit     float64   `json:"gross_profit"`
	MarginPercent   float64   `json:"margin_percent"`
	DaysToSale      int       `json:"days_to_sale" validate:"gte=0"`
	SaleDate        time.Time `json:"sale_date"`
}

func (in saleInput) record() engine.SalesRecord {
	return engine.SalesRecord{
		Year:            in.Year,
		Make:            in.Make,
		Model:           in.Model,
		Mileage:         in.Mileage,
		SalePrice:       in.SalePrice,
		AcquisitionCost: in.AcquisitionCost,
		GrossProfit:     in.GrossProfit,
		MarginPercent:   in.MarginPercent,
		DaysToSale:      in.DaysToSale,
		SaleDate:        in.SaleDate,
	}
}

func (s *Server) handleAddSales(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sales []saleInput `json:"sales"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, 400, err.Error())
		return
	}
	if len(req.Sales) == 0 {
		writeError(w, 400, "sales is empty")
		return
	}
	records := make([]engine.SalesRecord, 0, len(req.Sales))
	for i, in := range req.Sales {
		if err := validate.Struct(in); err != nil {
			writeError(w, 400, fmt.Sprintf("sale %d: %v", i, err))
			return
		}
		if in.SaleDate.IsZero() {
			writeError(w, 400, fmt.Sprintf("sale %d: sale_date is required", i))
			return
		}
		records = append(records, in.record())
	}
	n, err := s.db.InsertSales(dealerID(r), records)
	if err != nil {
		writeServiceError(w, "Sales", err)
		return
	}
	writeJSON(w, map[string]interface{}{"status": "ok", "inserted": n})
}
