// Bid Advisor: acquisition recommendations for auction vehicles.
//
// Usage:
//
//	bid-advisor serve [--port 8088]
//	bid-advisor evaluate --input vehicle.json
//	bid-advisor import-sales --dealer lot-7 --file sales.csv
//	bid-advisor report --dealer lot-7
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bid-advisor/internal/api"
	"bid-advisor/internal/config"
	"bid-advisor/internal/db"
	"bid-advisor/internal/engine"
	"bid-advisor/internal/logger"
	"bid-advisor/internal/pricing"
	"bid-advisor/internal/scan"
	"bid-advisor/internal/vindecode"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error("CLI", err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "bid-advisor",
		Usage:   "Buy / caution / pass recommendations for auction vehicles",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "advisor.yaml",
				Usage:   "Path to YAML config (missing file means defaults)",
				EnvVars: []string{"ADVISOR_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			evaluateCommand(),
			importSalesCommand(),
			reportCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SERVE
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the configured port",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if p := c.Int("port"); p > 0 {
		cfg.Server.Port = p
	}

	logger.Banner(version)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	decoder := vindecode.NewClient(cfg.Decoder.BaseURL, time.Duration(cfg.Decoder.TimeoutSeconds)*time.Second)
	prices := pricing.NewClient(cfg.Pricing.BaseURL, cfg.Pricing.APIKey,
		time.Duration(cfg.Pricing.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.Pricing.TimeoutSeconds)*time.Second)
	prices.SetStore(database)
	svc := scan.NewService(decoder, prices, database, database, database, scan.OptionsFromConfig(cfg))

	logger.Section("Settings")
	logger.Stats("Database", cfg.Database.Path)
	logger.Stats("Decoder", cfg.Decoder.BaseURL)
	logger.Stats("Pricing", cfg.Pricing.BaseURL)
	logger.Stats("Sales lookback (days)", cfg.History.LookbackDays)
	logger.Stats("Batch concurrency", cfg.Scan.BatchConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go prunePricingCache(ctx, prices.Cache(), database, time.Duration(cfg.Pricing.CacheTTLSeconds)*time.Second)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewServer(cfg, svc, database, version).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Server(cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Server", "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// prunePricingCache drops expired pricing entries once per TTL.
func prunePricingCache(ctx context.Context, cache *pricing.Cache, database *db.DB, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(ttl)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := cache.Prune(); n > 0 {
				logger.Info("Pricing", fmt.Sprintf("Pruned %d expired estimates", n))
			}
			if n, err := database.PrunePriceCache(ttl); err != nil {
				logger.Warn("Pricing", fmt.Sprintf("price cache prune: %v", err))
			} else if n > 0 {
				logger.Info("Pricing", fmt.Sprintf("Pruned %d stored estimates", n))
			}
		}
	}
}

// =============================================================================
// EVALUATE
// =============================================================================

// evaluateInput is the offline evaluation file format.
type evaluateInput struct {
	Vehicle engine.DecodedVehicle       `json:"vehicle"`
	Market  *engine.MarketPriceEstimate `json:"market"`
	Sales   []engine.SalesRecord        `json:"sales"`
	Profile *config.CostProfile         `json:"profile"`
	// Now pins the evaluation time (RFC3339) so runs are reproducible.
	Now *time.Time `json:"now,omitempty"`
}

func evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Run the engine on a JSON file without calling any service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to {vehicle, market, sales, profile, now} JSON",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
		},
		Action: runEvaluate,
	}
}

func runEvaluate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.String("input"))
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var in evaluateInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	profile := cfg.CostProfile
	if in.Profile != nil {
		profile = *in.Profile
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	in.Vehicle.TitleStatus = engine.ParseTitleStatus(string(in.Vehicle.TitleStatus))
	for i := range in.Sales {
		in.Sales[i] = in.Sales[i].WithDerivedProfit()
	}

	now := time.Now()
	if in.Now != nil {
		now = *in.Now
	}

	rec := engine.Evaluate(engine.Input{
		Vehicle: in.Vehicle,
		Market:  in.Market,
		Sales:   in.Sales,
		Profile: profile,
		Now:     now,
	})

	if c.String("format") == "json" {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	printRecommendation(c.App.Writer, in.Vehicle, rec)
	return nil
}

// =============================================================================
// IMPORT-SALES
// =============================================================================

func importSalesCommand() *cli.Command {
	return &cli.Command{
		Name:  "import-sales",
		Usage: "Load completed sales from a CSV file into a dealer's ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dealer",
				Value: db.DefaultDealerID,
				Usage: "Dealer ID",
			},
			&cli.StringFlag{
				Name:     "file",
				Usage:    "CSV with a header row (year,make,model,mileage,sale_price,acquisition_cost,days_to_sale,sale_date)",
				Required: true,
			},
		},
		Action: runImportSales,
	}
}

func runImportSales(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := os.Open(c.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	sales, err := parseSalesCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", c.String("file"), err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	n, err := database.InsertSales(c.String("dealer"), sales)
	if err != nil {
		return err
	}
	logger.Success("Import", fmt.Sprintf("Imported %d sales for dealer %q", n, c.String("dealer")))
	return nil
}

// =============================================================================
// REPORT
// =============================================================================

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Summarize a dealer's scan log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dealer",
				Value: db.DefaultDealerID,
				Usage: "Dealer ID",
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: 20,
				Usage: "Number of recent scans to list",
			},
		},
		Action: runReport,
	}
}

func runReport(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	dealer := c.String("dealer")
	summary, err := database.SummarizeScans(dealer)
	if err != nil {
		return err
	}
	scans, err := database.GetScans(dealer, c.Int("limit"))
	if err != nil {
		return err
	}
	printReport(c.App.Writer, dealer, summary, scans)
	return nil
}
