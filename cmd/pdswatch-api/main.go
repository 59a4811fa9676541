package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"pdswatch/internal/history"
	"pdswatch/internal/server"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config YAML/JSON")
	listen := flag.String("listen", "", "Optional listen address override")
	hashPassword := flag.String("hash-password", "", "Print a bcrypt hash for admin_password_hash and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := server.HashPassword(*hashPassword)
		if err != nil {
			slog.Error("hash password failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if strings.TrimSpace(cfg.Target.BaseURL) == "" {
		slog.Error("target base_url is required")
		os.Exit(1)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(rootCtx, cfg.Store)
	if err != nil {
		slog.Error("open history store failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	obs, err := server.SetupObservability(rootCtx, cfg.Observer)
	if err != nil {
		slog.Error("setup observability failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()

	monitor := server.NewMonitor(cfg.Target, store, obs)
	if err := monitor.Start(rootCtx, cfg.Schedule.Cron); err != nil {
		slog.Error("start schedule failed", "error", err, "cron", cfg.Schedule.Cron)
		os.Exit(1)
	}
	defer monitor.Stop()

	api := server.NewAPI(store, monitor, server.NewAuth(cfg.Auth), obs, cfg.Limits)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-rootCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	slog.Info("pdswatch API listening",
		"listen", cfg.ListenAddr,
		"target", cfg.Target.BaseURL,
		"cron", cfg.Schedule.Cron,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
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
