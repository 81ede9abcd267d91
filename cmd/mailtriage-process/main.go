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
	"github.com/joshsymonds/mailtriage/internal/process"
	"github.com/joshsymonds/mailtriage/internal/rules"
	"github.com/joshsymonds/mailtriage/internal/runtime"
	"github.com/joshsymonds/mailtriage/internal/store"
)

type processConfig struct {
	configPath string
	cfgDir     string
	dbPath     string
	rulesPath  string
	rps        int
	dryRun     bool
	strict     bool
	keepGoing  bool
}

func main() {
	cfg := parseProcessFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailtriage-process failed", "error", err)
		os.Exit(1)
	}
}

func parseProcessFlags() processConfig {
	configPath := flag.String("config", "mailtriage.toml", "path to config file")
	cfgDir := flag.String("credentials", "", "gmailctl auth directory (overrides config)")
	dbPath := flag.String("db", "", "path to local message database (overrides config)")
	rulesPath := flag.String("rules", "", "path to rule definitions (overrides config)")
	rps := flag.Int("rps", 0, "max requests per second (overrides config)")
	dryRun := flag.Bool("dry-run", false, "log matches; skip mailbox mutations")
	strict := flag.Bool("strict", false, "fail when any rule definition is rejected")
	keepGoing := flag.Bool("keep-going", false, "run remaining actions of a rule after one fails")
	flag.Parse()

	return processConfig{
		configPath: *configPath,
		cfgDir:     *cfgDir,
		dbPath:     *dbPath,
		rulesPath:  *rulesPath,
		rps:        *rps,
		dryRun:     *dryRun,
		strict:     *strict,
		keepGoing:  *keepGoing,
	}
}

func run(pc processConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(pc.configPath)
	if err != nil {
		return err
	}
	if pc.cfgDir != "" {
		cfg.Gmail.CredentialsDir = pc.cfgDir
	}
	if pc.dbPath != "" {
		cfg.Database.Path = pc.dbPath
	}
	if pc.rulesPath != "" {
		cfg.Rules.Path = pc.rulesPath
	}
	if pc.rps > 0 {
		cfg.Gmail.RequestsPerSecond = pc.rps
	}

	log := runtime.DefaultLogger()

	set, rejected, err := rules.LoadFile(cfg.Rules.Path)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	for _, rej := range rejected {
		log.Warn("rule rejected", "rule", rej.Rule, "description", rej.Description, "reason", rej.Reason)
	}
	if pc.strict && len(rejected) > 0 {
		return fmt.Errorf("%d rule definition(s) rejected", len(rejected))
	}
	if len(set) == 0 {
		log.Info("no usable rules; nothing to do", "path", cfg.Rules.Path)
		return nil
	}

	db, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	client, err := runtime.NewGmailActuator(ctx, cfg.Gmail.CredentialsDir)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Gmail.RequestsPerSecond), cfg.Gmail.RequestsPerSecond)
	svc := process.NewService(db, client, limiter, log)

	sum, err := svc.Run(ctx, process.Spec{
		Rules:     set,
		DryRun:    pc.dryRun,
		KeepGoing: pc.keepGoing,
	})
	if err != nil {
		return fmt.Errorf("run processing pass: %w", err)
	}
	log.Info("processing pass complete",
		"messages", sum.Messages, "matched", sum.Matched,
		"actions", sum.Actions, "failures", sum.Failures)
	if sum.Failures > 0 {
		return fmt.Errorf("%d action(s) failed", sum.Failures)
	}
	return nil
}
