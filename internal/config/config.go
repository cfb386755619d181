package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CostProfile is a dealer's acquisition cost assumptions.
// Percentages are whole numbers (15 means 15%).
type CostProfile struct {
	AuctionFeePercent   float64 `json:"auction_fee_percent" yaml:"auction_fee_percent" validate:"gte=0,lt=100"`
	ReconditioningCost  float64 `json:"reconditioning_cost" yaml:"reconditioning_cost" validate:"gte=0"`
	TransportCost       float64 `json:"transport_cost" yaml:"transport_cost" validate:"gte=0"`
	FloorPlanRate       float64 `json:"floor_plan_rate" yaml:"floor_plan_rate" validate:"gte=0"` // not used for scoring
	TargetMarginPercent float64 `json:"target_margin_percent" yaml:"target_margin_percent" validate:"gte=0,lt=100"`
	TargetDaysToSale    int     `json:"target_days_to_sale" yaml:"target_days_to_sale" validate:"gte=0"`
}

// DefaultCostProfile returns the profile used for dealers that never saved one.
func DefaultCostProfile() CostProfile {
	return CostProfile{
		AuctionFeePercent:   2,
		ReconditioningCost:  800,
		TransportCost:       150,
		FloorPlanRate:       0.08,
		TargetMarginPercent: 15,
		TargetDaysToSale:    30,
	}
}

var validate = validator.New()

// Validate rejects negative or out-of-range settings. Callers must validate a
// profile before handing it to the engine.
func (p CostProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid cost profile: %w", err)
	}
	return nil
}

// Config holds process settings (in-memory representation).
// Per-dealer cost profiles are persisted by internal/db.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Decoder  DecoderConfig  `yaml:"decoder"`
	Pricing  PricingConfig  `yaml:"pricing"`
	History  HistoryConfig  `yaml:"history"`
	Scan     ScanConfig     `yaml:"scan"`

	// CostProfile seeds dealers without a stored profile.
	CostProfile CostProfile `yaml:"cost_profile"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"ADVISOR_HOST"`
	Port int    `yaml:"port" env:"ADVISOR_PORT"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"ADVISOR_DB_PATH"`
}

type DecoderConfig struct {
	BaseURL        string `yaml:"base_url" env:"DECODER_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"DECODER_TIMEOUT_SECONDS"`
}

type PricingConfig struct {
	BaseURL         string `yaml:"base_url" env:"PRICING_BASE_URL"`
	APIKey          string `yaml:"api_key" env:"PRICING_API_KEY"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" env:"PRICING_TIMEOUT_SECONDS"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" env:"PRICING_CACHE_TTL_SECONDS"`
}

// HistoryConfig bounds the window of the sales ledger read per scan.
type HistoryConfig struct {
	LookbackDays int `yaml:"lookback_days" env:"HISTORY_LOOKBACK_DAYS"`
	MaxRecords   int `yaml:"max_records" env:"HISTORY_MAX_RECORDS"`
}

type ScanConfig struct {
	BatchConcurrency int `yaml:"batch_concurrency" env:"SCAN_BATCH_CONCURRENCY"`
	MaxBatchSize     int `yaml:"max_batch_size" env:"SCAN_MAX_BATCH_SIZE"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8088,
		},
		Database: DatabaseConfig{
			Path: "advisor.db",
		},
		Decoder: DecoderConfig{
			BaseURL:        "https://vpic.nhtsa.dot.gov/api",
			TimeoutSeconds: 10,
		},
		Pricing: PricingConfig{
			BaseURL:         "http://localhost:8090",
			TimeoutSeconds:  10,
			CacheTTLSeconds: 900,
		},
		History: HistoryConfig{
			LookbackDays: 365,
			MaxRecords:   1000,
		},
		Scan: ScanConfig{
			BatchConcurrency: 4,
			MaxBatchSize:     50,
		},
		CostProfile: DefaultCostProfile(),
	}
}

// Load builds a Config from defaults, then the YAML file at path (if it
// exists), then a .env file and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// no file: keep defaults
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.CostProfile.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
