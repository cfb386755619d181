package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bid-advisor/internal/logger"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one request in a batch. Exactly one of
// Result and Error is set.
type BatchItem struct {
	VIN    string  `json:"vin"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
	// Kind is the sentinel behind Error, for callers that branch on it.
	Kind error `json:"-"`
}

// ScanBatch scans reqs with bounded concurrency. Items come back in request
// order; a failed vehicle does not stop the others. Only cancellation of
// ctx fails the whole batch.
func (s *Service) ScanBatch(ctx context.Context, dealerID string, reqs []Request) ([]BatchItem, error) {
	if len(reqs) > s.opts.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d vehicles (max %d)", ErrBatchTooLarge, len(reqs), s.opts.MaxBatchSize)
	}
	start := time.Now()
	items := make([]BatchItem, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, req := range reqs {
		items[i].VIN = req.VIN
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := s.Scan(ctx, dealerID, req)
			if err != nil {
				items[i].Error = err.Error()
				items[i].Kind = kindOf(err)
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, it := range items {
		if it.Result == nil {
			failed++
		}
	}
	logger.Info("Scan", fmt.Sprintf("Batch of %d done (%d failed) in %s", len(reqs), failed, time.Since(start).Round(time.Millisecond)))
	return items, nil
}

func kindOf(err error) error {
	for _, k := range []error{ErrInvalidRequest, ErrInvalidVIN, ErrUndecodable, ErrUpstream, ErrInvalidProfile} {
		if errors.Is(err, k) {
			return k
		}
	}
	return err
}
