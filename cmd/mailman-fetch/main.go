// mailman-fetch pulls recent Gmail messages into the local store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vintas/mailman/internal/fetch"
	"github.com/vintas/mailman/internal/gmailapi"
	"github.com/vintas/mailman/internal/rate"
	"github.com/vintas/mailman/internal/store"
)

type fetchConfig struct {
	cfgDir   string
	envFile  string
	dbPath   string
	query    string
	max      int
	pageSize int64
	rps      int
}

func main() {
	cfg := parseFetchFlags()
	if err := run(cfg); err != nil {
		gmailapi.DefaultLogger().Error("mailman-fetch failed", "error", err)
		os.Exit(1)
	}
}

func parseFetchFlags() fetchConfig {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.gmailctl"), "gmailctl auth directory")
	envFile := flag.String("env-file", "", "optional .env file to load before reading settings")
	dbPath := flag.String("db", "", "sqlite database path (default $MAILMAN_DB or mailman.db)")
	query := flag.String("query", "in:inbox", "Gmail search restricting what to fetch")
	maxMessages := flag.Int("max", 100, "maximum messages to list; 0 for no cap")
	pageSize := flag.Int64("page-size", 100, "Gmail list page size (<=500)")
	rps := flag.Int("rps", 4, "max API requests per second")
	flag.Parse()

	return fetchConfig{
		cfgDir:   *cfgDir,
		envFile:  *envFile,
		dbPath:   *dbPath,
		query:    *query,
		max:      *maxMessages,
		pageSize: *pageSize,
		rps:      *rps,
	}
}

func run(cfg fetchConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.envFile != "" {
		if err := godotenv.Load(cfg.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	logger := gmailapi.DefaultLogger()

	db, err := store.Open(settle(cfg.dbPath, "MAILMAN_DB", "mailman.db"), logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	client, err := gmailapi.Connect(ctx, cfg.cfgDir, gmailapi.ScopeReadonly)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	svc := fetch.NewService(client, db, rate.NewPacer(cfg.rps), logger)
	sum, err := svc.Run(ctx, fetch.Spec{
		Query:    cfg.query,
		Max:      cfg.max,
		PageSize: cfg.pageSize,
	})
	if err != nil {
		return fmt.Errorf("run fetch: %w", err)
	}
	logger.Info("done", "stored", sum.Stored, "skipped", sum.Skipped, "failed", sum.Failed)
	return nil
}

// settle picks the flag value, then the environment, then the default.
func settle(flagValue, envKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}
