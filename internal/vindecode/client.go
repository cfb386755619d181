// Package vindecode decodes VINs through the NHTSA vPIC API.
package vindecode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"bid-advisor/internal/engine"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultBaseURL is the public vPIC endpoint.
const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api"

const userAgent = "bid-advisor/1.0"

// ErrUndecodable is returned when vPIC answers but cannot identify the vehicle.
var ErrUndecodable = errors.New("vin could not be decoded")

// Client is a concurrency-limited vPIC client. Decoded VINs are cached for
// the life of the process since a VIN's build data never changes.
type Client struct {
	baseURL string
	http    *http.Client
	sem     chan struct{}
	cache   sync.Map // VIN -> engine.DecodedVehicle
}

// NewClient creates a vPIC client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		sem:     make(chan struct{}, 8),
	}
}

// vpicResponse is the envelope of DecodeVinValues.
type vpicResponse struct {
	Count   int          `json:"Count"`
	Message string       `json:"Message"`
	Results []vpicResult `json:"Results"`
}

type vpicResult struct {
	Make              string `json:"Make"`
	Model             string `json:"Model"`
	ModelYear         string `json:"ModelYear"`
	Trim              string `json:"Trim"`
	BodyClass         string `json:"BodyClass"`
	DisplacementL     string `json:"DisplacementL"`
	EngineCylinders   string `json:"EngineCylinders"`
	TransmissionStyle string `json:"TransmissionStyle"`
	ErrorCode         string `json:"ErrorCode"`
	ErrorText         string `json:"ErrorText"`
}

// Decode looks up build data for vin. Title, owner, accident and service
// history are not part of vPIC and come back unknown.
func (c *Client) Decode(ctx context.Context, vin string) (engine.DecodedVehicle, error) {
	vin = NormalizeVIN(vin)
	if err := ValidateVIN(vin); err != nil {
		return engine.DecodedVehicle{}, fmt.Errorf("%w: %q", err, vin)
	}
	if v, ok := c.cache.Load(vin); ok {
		return v.(engine.DecodedVehicle), nil
	}

	var resp vpicResponse
	u := fmt.Sprintf("%s/vehicles/DecodeVinValues/%s?format=json", c.baseURL, url.PathEscape(vin))
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return engine.DecodedVehicle{}, err
	}
	if len(resp.Results) == 0 {
		return engine.DecodedVehicle{}, fmt.Errorf("%w: empty vPIC result", ErrUndecodable)
	}

	v, err := c.toVehicle(vin, resp.Results[0])
	if err != nil {
		return engine.DecodedVehicle{}, err
	}
	c.cache.Store(vin, v)
	return v, nil
}

func (c *Client) toVehicle(vin string, r vpicResult) (engine.DecodedVehicle, error) {
	year, err := strconv.Atoi(strings.TrimSpace(r.ModelYear))
	if err != nil || year <= 0 || strings.TrimSpace(r.Make) == "" || strings.TrimSpace(r.Model) == "" {
		return engine.DecodedVehicle{}, fmt.Errorf("%w: %s", ErrUndecodable, strings.TrimSpace(r.ErrorText))
	}
	return engine.DecodedVehicle{
		VIN:          vin,
		Year:         year,
		Make:         tidy(r.Make),
		Model:        tidy(r.Model),
		Trim:         strings.TrimSpace(r.Trim),
		BodyType:     strings.TrimSpace(r.BodyClass),
		Engine:       engineLabel(r.DisplacementL, r.EngineCylinders),
		Transmission: strings.TrimSpace(r.TransmissionStyle),
		TitleStatus:  engine.TitleUnknown,
	}, nil
}

// tidy title-cases shouting words ("TOYOTA" -> "Toyota") but leaves short
// acronyms and mixed-case words ("BMW", "CR-V") alone.
func tidy(s string) string {
	s = strings.TrimSpace(s)
	caser := cases.Title(language.English)
	var b strings.Builder
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' && s[i] != '-' {
			continue
		}
		word := s[start:i]
		if len(word) > 3 && word == strings.ToUpper(word) {
			word = caser.String(word)
		}
		b.WriteString(word)
		if i < len(s) {
			b.WriteByte(s[i])
		}
		start = i + 1
	}
	return b.String()
}

func engineLabel(displacement, cylinders string) string {
	displacement = strings.TrimSpace(displacement)
	cylinders = strings.TrimSpace(cylinders)
	if f, err := strconv.ParseFloat(displacement, 64); err == nil {
		displacement = strconv.FormatFloat(f, 'f', 1, 64) + "L"
	}
	switch {
	case displacement != "" && cylinders != "":
		return displacement + " " + cylinders + "-cyl"
	case cylinders != "":
		return cylinders + "-cyl"
	}
	return displacement
}

// getJSON fetches a URL and decodes JSON into dst.
func (c *Client) getJSON(ctx context.Context, u string, dst interface{}) error {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.sem }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vPIC %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
