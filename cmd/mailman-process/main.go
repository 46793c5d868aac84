// mailman-process evaluates the rule file over stored messages and
// applies the planned label mutations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vintas/mailman/internal/engine"
	"github.com/vintas/mailman/internal/gmailapi"
	"github.com/vintas/mailman/internal/labels"
	"github.com/vintas/mailman/internal/plan"
	"github.com/vintas/mailman/internal/process"
	"github.com/vintas/mailman/internal/rate"
	"github.com/vintas/mailman/internal/rules"
	"github.com/vintas/mailman/internal/store"
)

type processConfig struct {
	cfgDir    string
	envFile   string
	dbPath    string
	rulesPath string
	rps       int
	dryRun    bool
}

func main() {
	cfg := parseProcessFlags()
	if err := run(cfg); err != nil {
		gmailapi.DefaultLogger().Error("mailman-process failed", "error", err)
		os.Exit(1)
	}
}

func parseProcessFlags() processConfig {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.gmailctl"), "gmailctl auth directory")
	envFile := flag.String("env-file", "", "optional .env file to load before reading settings")
	dbPath := flag.String("db", "", "sqlite database path (default $MAILMAN_DB or mailman.db)")
	rulesPath := flag.String("rules", "", "rule file path (default $MAILMAN_RULES or rules.json)")
	rps := flag.Int("rps", 4, "max API requests per second")
	dryRun := flag.Bool("dry-run", false, "log planned mutations without applying them")
	flag.Parse()

	return processConfig{
		cfgDir:    *cfgDir,
		envFile:   *envFile,
		dbPath:    *dbPath,
		rulesPath: *rulesPath,
		rps:       *rps,
		dryRun:    *dryRun,
	}
}

func run(cfg processConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.envFile != "" {
		if err := godotenv.Load(cfg.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	logger := gmailapi.DefaultLogger()

	ruleset, err := rules.Load(settle(cfg.rulesPath, "MAILMAN_RULES", "rules.json"))
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	logger.Info("rules loaded", "count", len(ruleset))

	db, err := store.Open(settle(cfg.dbPath, "MAILMAN_DB", "mailman.db"), logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	client, err := gmailapi.Connect(ctx, cfg.cfgDir, gmailapi.ScopeModify)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	svc := process.NewService(
		client,
		db,
		engine.NewEvaluator(logger),
		plan.NewPlanner(labels.NewResolver(client, logger), logger),
		rate.NewPacer(cfg.rps),
		logger,
	)
	sum, err := svc.Run(ctx, ruleset, process.Spec{DryRun: cfg.dryRun})
	if err != nil {
		return fmt.Errorf("run processing: %w", err)
	}
	logger.Info("done",
		"records", sum.Records, "matches", sum.Matches, "mutations", sum.Mutations, "failed", sum.Failed)
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
