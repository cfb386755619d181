// Package pricing fetches retail market estimates from the pricing service.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bid-advisor/internal/engine"
	"bid-advisor/internal/logger"

	"github.com/shopspring/decimal"
)

const userAgent = "bid-advisor/1.0"

// Client queries the pricing service and caches its answers.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *Cache
	store   Store
}

// Store persists pricing results across restarts. It sits behind the
// in-memory cache.
type Store interface {
	GetPriceEstimate(key string, maxAge time.Duration) (engine.MarketPriceEstimate, bool, bool)
	SetPriceEstimate(key string, est engine.MarketPriceEstimate, ok bool)
}

// NewClient creates a pricing client with a result cache of the given TTL.
func NewClient(baseURL, apiKey string, ttl, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		cache:   NewCache(ttl),
	}
}

// SetStore attaches a persistent cache. Results older than the client TTL
// are ignored.
func (c *Client) SetStore(s Store) { c.store = s }

// Cache exposes the result cache (for pruning and stats).
func (c *Client) Cache() *Cache { return c.cache }

type result struct {
	est engine.MarketPriceEstimate
	ok  bool
}

// Estimate returns the market estimate for v. ok is false when the service
// has no data for the vehicle, which is not an error.
//
// Concurrent calls for the same year/make/model/trim/mileage bucket share
// one upstream request.
func (c *Client) Estimate(ctx context.Context, v engine.DecodedVehicle) (engine.MarketPriceEstimate, bool, error) {
	k := keyFor(v)
	if est, ok, hit := c.cache.Get(k); hit {
		return est, ok, nil
	}

	ch := c.cache.group.DoChan(k.String(), func() (interface{}, error) {
		if est, ok, hit := c.cache.Get(k); hit {
			return result{est, ok}, nil
		}
		if c.store != nil && c.cache.ttl > 0 {
			if est, ok, hit := c.store.GetPriceEstimate(k.String(), c.cache.ttl); hit {
				c.cache.Put(k, est, ok)
				return result{est, ok}, nil
			}
		}
		// Detached so one caller's cancellation does not fail the others.
		est, ok, err := c.fetch(context.WithoutCancel(ctx), v)
		if err != nil {
			return nil, err
		}
		c.cache.Put(k, est, ok)
		if c.store != nil && c.cache.ttl > 0 {
			c.store.SetPriceEstimate(k.String(), est, ok)
		}
		return result{est, ok}, nil
	})

	select {
	case <-ctx.Done():
		return engine.MarketPriceEstimate{}, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return engine.MarketPriceEstimate{}, false, r.Err
		}
		res := r.Val.(result)
		return res.est, res.ok, nil
	}
}

func (c *Client) fetch(ctx context.Context, v engine.DecodedVehicle) (engine.MarketPriceEstimate, bool, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(v.Year))
	q.Set("make", v.Make)
	q.Set("model", v.Model)
	if v.Trim != "" {
		q.Set("trim", v.Trim)
	}
	if v.Mileage != nil {
		q.Set("mileage", strconv.Itoa(*v.Mileage))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/estimate?"+q.Encode(), nil)
	if err != nil {
		return engine.MarketPriceEstimate{}, false, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return engine.MarketPriceEstimate{}, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		logger.Info("Pricing", fmt.Sprintf("No estimate for %d %s %s", v.Year, v.Make, v.Model))
		return engine.MarketPriceEstimate{}, false, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return engine.MarketPriceEstimate{}, false, fmt.Errorf("pricing %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var est engine.MarketPriceEstimate
	if err := json.NewDecoder(resp.Body).Decode(&est); err != nil {
		return engine.MarketPriceEstimate{}, false, fmt.Errorf("decode estimate: %w", err)
	}
	if est.DataSource == "" {
		est.DataSource = engine.SourceEstimated
	}
	logger.Info("Pricing", fmt.Sprintf("%d %s %s: %s (%.0f%%, %s) in %s",
		v.Year, v.Make, v.Model, engine.FormatUSD(decimal.NewFromFloat(est.AveragePrice)), est.Confidence, est.DataSource,
		time.Since(start).Round(time.Millisecond)))
	return est, true, nil
}
