package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"pdswatch/internal/history"
	"pdswatch/internal/report"
	"pdswatch/internal/server"
	"pdswatch/internal/stats"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config YAML/JSON")
	baseURL := flag.String("base-url", envOr("PDS_URL", ""), "PDS base URL, e.g. https://jglypt.net")
	handle := flag.String("handle", envOr("PDS_HANDLE", ""), "AT Protocol handle of the monitored account")
	password := flag.String("password", envOr("PDS_PASSWORD", ""), "App password for authenticated probes (optional)")
	storePath := flag.String("store", "", "History file path override")
	dsn := flag.String("dsn", "", "PostgreSQL DSN override (takes precedence over -store)")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-probe timeout")
	format := flag.String("format", "text", "Output format: text|json")
	outputPath := flag.String("out", "", "Write the run record JSON to this file")
	analyze := flag.Bool("analyze", false, "Skip probing; print aggregated statistics for the stored history")
	summary := flag.Bool("summary", false, "Print aggregated history statistics after the run")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		exitWith("failed to load config: " + err.Error())
	}
	if *baseURL != "" {
		cfg.Target.BaseURL = *baseURL
	}
	if *handle != "" {
		cfg.Target.Handle = *handle
	}
	if *password != "" {
		cfg.Target.Password = *password
	}
	if *timeout > 0 {
		cfg.Target.ProbeTimeoutSec = int(timeout.Seconds())
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if *dsn != "" {
		cfg.Store.DSN = *dsn
	}

	ctx := context.Background()
	store, cleanup, err := openStore(ctx, cfg.Store)
	if err != nil {
		exitWith(err.Error())
	}
	defer cleanup()

	if *analyze {
		records, err := store.Load(ctx)
		if err != nil {
			exitWith("failed to load history: " + err.Error())
		}
		printOverview(*format, stats.Compute(records))
		return
	}

	if strings.TrimSpace(cfg.Target.BaseURL) == "" {
		exitWith("PDS_URL or -base-url is required")
	}

	monitor := server.NewMonitor(cfg.Target, store, nil)
	record, runErr := monitor.RunOnce(ctx)

	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "json":
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			exitWith("failed to encode run record: " + err.Error())
		}
		fmt.Println(string(data))
	default:
		report.WriteRun(os.Stdout, record)
	}

	if strings.TrimSpace(*outputPath) != "" {
		if err := writeRecord(*outputPath, record); err != nil {
			exitWith("failed to write run record: " + err.Error())
		}
	}

	if *summary {
		if records, err := store.Load(ctx); err == nil {
			fmt.Println()
			report.WriteSummary(os.Stdout, stats.Compute(records))
		}
	}

	// The summary above is best effort; a failed append still loses the data
	// point and has to fail the invocation.
	if runErr != nil {
		slog.Error("failed to persist run record", "error", runErr)
		os.Exit(2)
	}
	if record.Summary.SuccessfulRequests < record.Summary.TotalRequests {
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg server.StoreConfig) (history.Store, func(), error) {
	if strings.TrimSpace(cfg.DSN) != "" {
		poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("parse database DSN: %w", err)
		}
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = cfg.MaxConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		store := history.NewPgStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	}
	return history.NewFileStore(cfg.Path), func() {}, nil
}

func printOverview(format string, overview stats.Overview) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		data, err := json.MarshalIndent(overview, "", "  ")
		if err != nil {
			exitWith("failed to encode statistics: " + err.Error())
		}
		fmt.Println(string(data))
	default:
		report.WriteSummary(os.Stdout, overview)
	}
}

func writeRecord(path string, record any) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(path), data, 0o644)
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func exitWith(message string) {
	fmt.Fprintln(os.Stderr, "error:", message)
	os.Exit(2)
}
