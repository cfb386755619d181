package api

import (
	"net/http"
	"time"

	"bid-advisor/internal/scan"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scan.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, 400, err.Error())
		return
	}
	res, err := s.scanner.Scan(r.Context(), dealerID(r), req)
	if err != nil {
		writeServiceError(w, "Scan", err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleScanBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vehicles []scan.Request `json:"vehicles"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, 400, err.Error())
		return
	}
	if len(req.Vehicles) == 0 {
		writeError(w, 400, "vehicles is empty")
		return
	}
	items, err := s.scanner.ScanBatch(r.Context(), dealerID(r), req.Vehicles)
	if err != nil {
		writeServiceError(w, "Scan", err)
		return
	}
	failed := 0
	for _, it := range items {
		if it.Result == nil {
			failed++
		}
	}
	writeJSON(w, map[string]interface{}{
		"items":  items,
		"count":  len(items),
		"failed": failed,
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req scan.EvaluateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, 400, err.Error())
		return
	}
	if req.Vehicle.Make == "" || req.Vehicle.Model == "" || req.Vehicle.Year <= 0 {
		writeError(w, 400, "vehicle year, make and model are required")
		return
	}
	res, err := s.scanner.Evaluate(r.Context(), dealerID(r), req)
	if err != nil {
		writeServiceError(w, "Evaluate", err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleGetScans(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.GetScans(dealerID(r), queryLimit(r, 50, 500))
	if err != nil {
		writeServiceError(w, "Scans", err)
		return
	}
	writeJSON(w, records)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	record, err := s.db.GetScan(dealerID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "Scans", err)
		return
	}
	writeJSON(w, record)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteScan(dealerID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, "Scans", err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleClearScans(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OlderThanDays *int `json:"older_than_days"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, 400, err.Error())
			return
		}
	}
	days := 7 // default: clear older than 7 days
	if req.OlderThanDays != nil {
		if *req.OlderThanDays < 0 {
			writeError(w, 400, "older_than_days must be >= 0")
			return
		}
		days = *req.OlderThanDays
	}
	count, err := s.db.ClearScans(dealerID(r), days, time.Now())
	if err != nil {
		writeError(w, 500, "clear failed: "+err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"status": "cleared", "deleted": count})
}

func (s *Server) handleScanSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.db.SummarizeScans(dealerID(r))
	if err != nil {
		writeServiceError(w, "Scans", err)
		return
	}
	writeJSON(w, summary)
}
