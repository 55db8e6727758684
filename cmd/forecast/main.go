// Package main provides the demand forecasting entry point.
// Flow: load observations → train models → forecast → optimize → compare
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"demand-forecast-engine/internal/engine"
	"demand-forecast-engine/internal/fixtures"
	"demand-forecast-engine/internal/forecast"
	"demand-forecast-engine/internal/narrative"
	"demand-forecast-engine/internal/narrative/gemini"
	"demand-forecast-engine/internal/optimize"
	"demand-forecast-engine/internal/storage"
	"demand-forecast-engine/internal/storage/clickhouse"
	"demand-forecast-engine/internal/storage/fs"
	"demand-forecast-engine/internal/storage/memory"
	"demand-forecast-engine/internal/storage/migrations"
	"demand-forecast-engine/internal/storage/postgres"
	"demand-forecast-engine/internal/tsmodel/seasonal"
)

func main() {
	// Load .env file if exists, without overriding system env vars
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for the model registry")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for sales observations")
	registryDir := flag.String("registry-dir", "", "Filesystem model registry directory (instead of PostgreSQL)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage with synthetic fixture data")
	fixtureDays := flag.Int("fixture-days", 365, "Days of synthetic history in fixture mode")
	horizon := flag.Int("horizon", 30, "Forecast horizon in days")
	confidence := flag.Float64("confidence", 0.95, "Prediction interval confidence level")
	product := flag.String("product", "Milk", "Product comparison to report")
	costPerUnit := flag.Float64("cost-per-unit", 2.5, "Production cost per unit")
	dailyCapacity := flag.Float64("daily-capacity", 0, "Daily production capacity (0 disables optimization)")
	serviceLevel := flag.Float64("service-level", 0.95, "Safety stock service level")
	leadTime := flag.Int("lead-time-days", 2, "Replenishment lead time in days")
	withInsights := flag.Bool("insights", false, "Generate AI narrative insights (requires GEMINI_API_KEY)")
	verbose := flag.Bool("verbose", false, "Verbose logging")

	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync()

	if !*useMemory && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required (use --use-memory for synthetic in-memory data)")
	}
	if !*useMemory && *postgresDSN == "" && *registryDir == "" {
		logger.Fatal("--postgres-dsn or --registry-dir is required for the model registry (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling", zap.String("signal", sig.String()))
		cancel()
	}()

	artifactStore, obsStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *registryDir, *useMemory)
	if err != nil {
		logger.Fatal("create stores", zap.Error(err))
	}
	defer cleanup()

	if *useMemory {
		if err := fixtures.Load(ctx, obsStore, fixtures.DefaultProfiles(), time.Now(), *fixtureDays, 42); err != nil {
			logger.Fatal("load fixtures", zap.Error(err))
		}
		logger.Info("loaded synthetic fixture data", zap.Int("days", *fixtureDays))
	}

	var analyzer narrative.Analyzer
	if *withInsights {
		g, err := gemini.New(ctx, gemini.Options{APIKey: os.Getenv("GEMINI_API_KEY")})
		if err != nil {
			logger.Fatal("create gemini analyzer", zap.Error(err))
		}
		defer g.Close()
		analyzer = g
	}

	eng, err := engine.New(engine.Options{
		ArtifactStore:    artifactStore,
		ObservationStore: obsStore,
		Model:            seasonal.New(),
		Analyzer:         analyzer,
		Confidence:       *confidence,
		Logger:           logger,
	})
	if err != nil {
		logger.Fatal("create engine", zap.Error(err))
	}

	if err := run(ctx, eng, logger, runConfig{
		horizon:       *horizon,
		product:       *product,
		costPerUnit:   *costPerUnit,
		dailyCapacity: *dailyCapacity,
		serviceLevel:  *serviceLevel,
		leadTime:      *leadTime,
		withInsights:  *withInsights,
	}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("run", zap.Error(err))
	}
}

type runConfig struct {
	horizon       int
	product       string
	costPerUnit   float64
	dailyCapacity float64
	serviceLevel  float64
	leadTime      int
	withInsights  bool
}

// run executes one full pass: train everything, then report forecasts,
// optimization and the product comparison.
func run(ctx context.Context, eng *engine.Engine, logger *zap.Logger, cfg runConfig) error {
	if err := eng.Load(ctx); err != nil {
		return err
	}

	report, err := eng.TrainAll(ctx)
	if err != nil {
		return err
	}
	for _, f := range report.Failed {
		logger.Warn("training failed",
			zap.String("company", f.Key.Company),
			zap.String("product", f.Key.Product),
			zap.Error(f.Err))
	}
	if len(report.Trained) == 0 {
		return fmt.Errorf("no series trained")
	}

	fmt.Printf("=== Demand Forecasts (%d days) ===\n", cfg.horizon)
	for _, key := range report.Trained {
		result, warning, err := eng.Forecast(ctx, key.Company, key.Product, cfg.horizon)
		if err != nil {
			logger.Warn("forecast failed",
				zap.String("company", key.Company),
				zap.String("product", key.Product),
				zap.Error(err))
			continue
		}
		summary := forecast.Summarize(result)
		staleMark := ""
		if warning != nil {
			staleMark = " [stale model]"
		}
		fmt.Printf("  %-16s %-12s total %9.0f  avg/day %7.1f  trend %s%s\n",
			key.Company, key.Product, summary.TotalDemand, summary.AvgDailyDemand, summary.Trend, staleMark)

		if cfg.dailyCapacity > 0 {
			rec, err := eng.Optimize(ctx, key.Company, key.Product, cfg.horizon, optimize.Config{
				CostPerUnit:   decimal.NewFromFloat(cfg.costPerUnit),
				DailyCapacity: cfg.dailyCapacity,
				ServiceLevel:  cfg.serviceLevel,
				LeadTimeDays:  cfg.leadTime,
			})
			if err != nil {
				logger.Warn("optimization failed",
					zap.String("company", key.Company),
					zap.String("product", key.Product),
					zap.Error(err))
				continue
			}
			overMark := ""
			if rec.OverCapacity {
				overMark = " OVER CAPACITY"
			}
			fmt.Printf("    produce %9.0f (safety stock %6.0f, utilization %5.1f%%, cost %s)%s\n",
				rec.RecommendedProductionQty, rec.SafetyStock, rec.CapacityUtilizationPct,
				rec.EstimatedCost.StringFixed(2), overMark)
		}
	}

	fmt.Printf("\n=== %s Market Comparison ===\n", cfg.product)
	comparison, err := eng.Compare(ctx, cfg.product, cfg.horizon)
	if err != nil {
		logger.Warn("comparison unavailable", zap.Error(err))
	} else {
		for _, c := range comparison.Companies {
			line := fmt.Sprintf("  #%d %-16s total %9.0f", c.Rank, c.Company, c.ForecastTotal)
			if c.MarketSharePct != nil {
				line += fmt.Sprintf("  share %5.1f%%", *c.MarketSharePct)
			}
			if c.GrowthRatePct != nil {
				line += fmt.Sprintf("  growth %+6.1f%%", *c.GrowthRatePct)
			}
			fmt.Println(line)
		}
	}

	if cfg.withInsights && comparison != nil {
		analysis, err := eng.ComparisonInsights(ctx, cfg.product, cfg.horizon)
		if err != nil {
			logger.Warn("insights unavailable", zap.Error(err))
		} else {
			fmt.Printf("\n=== AI Analysis ===\n")
			fmt.Printf("  Market leader: %s\n", analysis.MarketLeader)
			for _, r := range analysis.StrategicRecommendations {
				fmt.Printf("  - %s\n", r)
			}
		}
	}
	return nil
}

// createStores builds the artifact registry and observation store, live
// or in-memory.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN, registryDir string, useMemory bool) (storage.ArtifactStore, storage.ObservationStore, func(), error) {
	if useMemory {
		return memory.NewArtifactStore(), memory.NewObservationStore(), func() {}, nil
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var artifactStore storage.ArtifactStore
	switch {
	case registryDir != "":
		store, err := fs.NewArtifactStore(registryDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("filesystem registry: %w", err)
		}
		artifactStore = store
	default:
		pool, err := postgres.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		artifactStore = postgres.NewArtifactStore(pool)
	}

	conn, err := clickhouse.NewConn(ctx, clickhouseDSN)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	cleanups = append(cleanups, func() { _ = conn.Close() })
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	return artifactStore, clickhouse.NewObservationStore(conn), cleanup, nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
