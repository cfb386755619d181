// Package scan turns a VIN into a stored acquisition recommendation by
// combining the decoder, the pricing service, the dealer's ledger and the
// recommendation engine.
package scan

//go:generate mockgen -source=service.go -destination=mocks_test.go -package=scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bid-advisor/internal/config"
	"bid-advisor/internal/db"
	"bid-advisor/internal/engine"
	"bid-advisor/internal/logger"
	"bid-advisor/internal/vindecode"

	"github.com/google/uuid"
)

var (
	// ErrInvalidVIN means the VIN failed the format check.
	ErrInvalidVIN = vindecode.ErrInvalidVIN
	// ErrUndecodable means the decoder answered but did not know the VIN.
	ErrUndecodable = vindecode.ErrUndecodable
	// ErrUpstream means the decoder or pricing service could not be reached.
	ErrUpstream = errors.New("upstream service unavailable")
	// ErrInvalidRequest means a request field is out of range.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidProfile means the dealer's stored cost profile is unusable.
	ErrInvalidProfile = errors.New("invalid cost profile")
	// ErrBatchTooLarge means a batch exceeded Options.MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch too large")
)

// Decoder resolves a VIN to build data.
type Decoder interface {
	Decode(ctx context.Context, vin string) (engine.DecodedVehicle, error)
}

// PriceEstimator returns a retail market estimate; ok is false when none exists.
type PriceEstimator interface {
	Estimate(ctx context.Context, v engine.DecodedVehicle) (engine.MarketPriceEstimate, bool, error)
}

// SalesLedger reads a dealer's completed sales.
type SalesLedger interface {
	RecentSales(dealerID string, since time.Time, limit int) ([]engine.SalesRecord, error)
}

// ProfileStore reads a dealer's cost profile.
type ProfileStore interface {
	LoadCostProfile(dealerID string, fallback config.CostProfile) (config.CostProfile, bool, error)
}

// ScanStore persists evaluations.
type ScanStore interface {
	InsertScan(r db.ScanRecord) error
}

// Options bound the work a Service does per scan.
type Options struct {
	LookbackDays     int
	MaxRecords       int
	BatchConcurrency int
	MaxBatchSize     int
	DefaultProfile   config.CostProfile
}

// OptionsFromConfig copies the scan-related settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LookbackDays:     cfg.History.LookbackDays,
		MaxRecords:       cfg.History.MaxRecords,
		BatchConcurrency: cfg.Scan.BatchConcurrency,
		MaxBatchSize:     cfg.Scan.MaxBatchSize,
		DefaultProfile:   cfg.CostProfile,
	}
}

// Service runs scans. It is safe for concurrent use.
type Service struct {
	decoder  Decoder
	pricing  PriceEstimator
	ledger   SalesLedger
	profiles ProfileStore
	store    ScanStore
	opts     Options
	now      func() time.Time
}

// NewService wires a Service. store may be nil to skip persistence.
func NewService(decoder Decoder, pricing PriceEstimator, ledger SalesLedger, profiles ProfileStore, store ScanStore, opts Options) *Service {
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 50
	}
	return &Service{
		decoder:  decoder,
		pricing:  pricing,
		ledger:   ledger,
		profiles: profiles,
		store:    store,
		opts:     opts,
		now:      time.Now,
	}
}

// Result is one completed scan.
type Result struct {
	// ID is empty when the scan could not be saved.
	ID             string                      `json:"id"`
	Vehicle        engine.DecodedVehicle       `json:"vehicle"`
	Market         *engine.MarketPriceEstimate `json:"market"`
	Recommendation engine.Recommendation       `json:"recommendation"`
	DurationMs     int64                       `json:"duration_ms"`
}

// Scan decodes, prices and evaluates one vehicle for the dealer, then
// records the outcome in the scan log.
func (s *Service) Scan(ctx context.Context, dealerID string, req Request) (*Result, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	vin := vindecode.NormalizeVIN(req.VIN)
	if err := vindecode.ValidateVIN(vin); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVIN, req.VIN)
	}

	vehicle, err := s.decoder.Decode(ctx, vin)
	if err != nil {
		return nil, upstreamError("decode "+vin, err)
	}
	vehicle = req.apply(vehicle)

	var market *engine.MarketPriceEstimate
	est, ok, err := s.pricing.Estimate(ctx, vehicle)
	if err != nil {
		return nil, upstreamError("price "+vin, err)
	}
	if ok {
		market = &est
	}

	rec, err := s.evaluate(ctx, dealerID, vehicle, market, nil)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Vehicle:        vehicle,
		Market:         market,
		Recommendation: rec,
		DurationMs:     time.Since(start).Milliseconds(),
	}
	s.persist(dealerID, res, time.Since(start))

	logger.Info("Scan", fmt.Sprintf("%s %d %s %s: %s (%d%%) max bid %s in %dms",
		vin, vehicle.Year, vehicle.Make, vehicle.Model, rec.Tier, rec.ConfidenceScore,
		engine.FormatUSD(rec.MaxBidSuggestion), res.DurationMs))
	return res, nil
}

// EvaluateRequest is an engine run on caller-supplied data.
type EvaluateRequest struct {
	Vehicle engine.DecodedVehicle       `json:"vehicle"`
	Market  *engine.MarketPriceEstimate `json:"market"`
	// Profile overrides the dealer's stored profile for this run only.
	Profile *config.CostProfile `json:"profile,omitempty"`
	// Save records the run in the scan log.
	Save bool `json:"save,omitempty"`
}

// Evaluate runs the engine against the dealer's ledger without calling the
// decoder or pricing service.
func (s *Service) Evaluate(ctx context.Context, dealerID string, req EvaluateRequest) (*Result, error) {
	start := time.Now()
	req.Vehicle.TitleStatus = engine.ParseTitleStatus(string(req.Vehicle.TitleStatus))
	rec, err := s.evaluate(ctx, dealerID, req.Vehicle, req.Market, req.Profile)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Vehicle:        req.Vehicle,
		Market:         req.Market,
		Recommendation: rec,
		DurationMs:     time.Since(start).Milliseconds(),
	}
	if req.Save {
		s.persist(dealerID, res, time.Since(start))
	}
	return res, nil
}

func (s *Service) evaluate(ctx context.Context, dealerID string, v engine.DecodedVehicle, market *engine.MarketPriceEstimate, override *config.CostProfile) (engine.Recommendation, error) {
	now := s.now()

	since := time.Time{}
	if s.opts.LookbackDays > 0 {
		since = now.AddDate(0, 0, -s.opts.LookbackDays)
	}
	sales, err := s.ledger.RecentSales(dealerID, since, s.opts.MaxRecords)
	if err != nil {
		return engine.Recommendation{}, fmt.Errorf("load sales: %w", err)
	}

	var profile config.CostProfile
	if override != nil {
		profile = *override
	} else if profile, _, err = s.profiles.LoadCostProfile(dealerID, s.opts.DefaultProfile); err != nil {
		return engine.Recommendation{}, fmt.Errorf("load cost profile: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return engine.Recommendation{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	if err := ctx.Err(); err != nil {
		return engine.Recommendation{}, err
	}
	return engine.Evaluate(engine.Input{
		Vehicle: v,
		Market:  market,
		Sales:   sales,
		Profile: profile,
		Now:     now,
	}), nil
}

func (s *Service) persist(dealerID string, res *Result, took time.Duration) {
	if s.store == nil {
		return
	}
	id := uuid.NewString()
	if err := s.store.InsertScan(db.NewScanRecord(id, dealerID, res.Vehicle, res.Market, res.Recommendation, took)); err != nil {
		logger.Warn("Scan", fmt.Sprintf("Could not save scan for %s: %v", res.Vehicle.VIN, err))
		return
	}
	res.ID = id
}

// upstreamError keeps caller-meaningful errors and folds the rest into ErrUpstream.
func upstreamError(op string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidVIN), errors.Is(err, ErrUndecodable),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}
