package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/joshsymonds/mailtriage/internal/config"
	"github.com/joshsymonds/mailtriage/internal/fetch"
	"github.com/joshsymonds/mailtriage/internal/runtime"
	"github.com/joshsymonds/mailtriage/internal/store"
)

type fetchConfig struct {
	configPath string
	cfgDir     string
	dbPath     string
	query      string
	max        int
	pageSize   int
	rps        int
}

func main() {
	cfg := parseFetchFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailtriage-fetch failed", "error", err)
		os.Exit(1)
	}
}

func parseFetchFlags() fetchConfig {
	configPath := flag.String("config", "mailtriage.toml", "path to config file")
	cfgDir := flag.String("credentials", "", "gmailctl auth directory (overrides config)")
	dbPath := flag.String("db", "", "path to local message database (overrides config)")
	query := flag.String("query", "", "Gmail search query (overrides config)")
	max := flag.Int("max", -1, "maximum messages to mirror; 0 means unlimited (overrides config)")
	pageSize := flag.Int("page-size", 0, "Gmail list page size (overrides config)")
	rps := flag.Int("rps", 0, "max requests per second (overrides config)")
	flag.Parse()

	return fetchConfig{
		configPath: *configPath,
		cfgDir:     *cfgDir,
		dbPath:     *dbPath,
		query:      *query,
		max:        *max,
		pageSize:   *pageSize,
		rps:        *rps,
	}
}

func run(fc fetchConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(fc.configPath)
	if err != nil {
		return err
	}
	applyFetchOverrides(&cfg, fc)

	log := runtime.DefaultLogger()

	db, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	client, err := runtime.NewGmailSource(ctx, cfg.Gmail.CredentialsDir)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Gmail.RequestsPerSecond), cfg.Gmail.RequestsPerSecond)
	svc := fetch.NewService(client, db, limiter, log)
	svc.Workers = cfg.Fetch.Workers

	spec := fetch.Spec{
		Query:    cfg.Fetch.Query,
		Max:      cfg.Fetch.Max,
		PageSize: cfg.Gmail.PageSize,
	}
	stored, err := svc.Run(ctx, spec)
	if err != nil {
		return fmt.Errorf("run fetch: %w", err)
	}
	total, err := db.Count(ctx)
	if err != nil {
		return fmt.Errorf("count mirrored messages: %w", err)
	}
	log.Info("mirror complete", "stored", stored, "total", total)
	return nil
}

func applyFetchOverrides(cfg *config.Config, fc fetchConfig) {
	if fc.cfgDir != "" {
		cfg.Gmail.CredentialsDir = fc.cfgDir
	}
	if fc.dbPath != "" {
		cfg.Database.Path = fc.dbPath
	}
	if fc.query != "" {
		cfg.Fetch.Query = fc.query
	}
	if fc.max >= 0 {
		cfg.Fetch.Max = fc.max
	}
	if fc.pageSize > 0 {
		cfg.Gmail.PageSize = fc.pageSize
	}
	if fc.rps > 0 {
		cfg.Gmail.RequestsPerSecond = fc.rps
	}
}
