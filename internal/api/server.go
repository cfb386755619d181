package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bid-advisor/internal/config"
	"bid-advisor/internal/db"
	"bid-advisor/internal/logger"
	"bid-advisor/internal/scan"
)

// maxBodyBytes caps request bodies; a full batch of scan requests fits easily.
const maxBodyBytes = 1 << 20

// dealerHeader scopes every request to one dealer's data.
const dealerHeader = "X-Dealer-ID"

// Server is the HTTP API server that connects the scan service and the database.
type Server struct {
	cfg     *config.Config
	scanner *scan.Service
	db      *db.DB
	version string
	started time.Time
}

// NewServer creates a Server with the given config, scan service and database.
func NewServer(cfg *config.Config, scanner *scan.Service, database *db.DB, version string) *Server {
	return &Server{
		cfg:     cfg,
		scanner: scanner,
		db:      database,
		version: version,
		started: time.Now(),
	}
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	// Scanning
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("POST /api/scan/batch", s.handleScanBatch)
	mux.HandleFunc("POST /api/evaluate", s.handleEvaluate)
	// Dealer settings and ledger
	mux.HandleFunc("GET /api/cost-profile", s.handleGetCostProfile)
	mux.HandleFunc("PUT /api/cost-profile", s.handlePutCostProfile)
	mux.HandleFunc("GET /api/sales", s.handleGetSales)
	mux.HandleFunc("POST /api/sales", s.handleAddSales)
	// Scan log
	mux.HandleFunc("GET /api/scans", s.handleGetScans)
	mux.HandleFunc("GET /api/scans/summary", s.handleScanSummary)
	mux.HandleFunc("GET /api/scans/{id}", s.handleGetScan)
	mux.HandleFunc("DELETE /api/scans/{id}", s.handleDeleteScan)
	mux.HandleFunc("POST /api/scans/clear", s.handleClearScans)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+dealerHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scan.ErrInvalidRequest), errors.Is(err, scan.ErrInvalidVIN):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scan.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, scan.ErrUndecodable), errors.Is(err, scan.ErrInvalidProfile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scan.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, tag string, err error) {
	code := statusFor(err)
	if code >= 500 {
		logger.Error(tag, err.Error())
	}
	writeError(w, code, err.Error())
}

// dealerID reads the dealer scope from the request; blank means the default dealer.
func dealerID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(dealerHeader)); id != "" {
		return id
	}
	return db.DefaultDealerID
}

// decodeBody decodes a size-limited JSON body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func queryLimit(r *http.Request, def, max int) int {
	limit := def
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > max {
		limit = max
	}
	return limit
}

// --- Handlers ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	dbOK := s.db != nil && s.db.Ping() == nil
	writeJSON(w, map[string]interface{}{
		"version":        s.version,
		"db_ok":          dbOK,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}
