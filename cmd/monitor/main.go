package main

import (
	"context"
	"crypto/rsa"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/btcbot/config"
	"github.com/alejandrodnm/btcbot/internal/adapters/coingecko"
	"github.com/alejandrodnm/btcbot/internal/adapters/feargreed"
	"github.com/alejandrodnm/btcbot/internal/adapters/journal"
	"github.com/alejandrodnm/btcbot/internal/adapters/kalshi"
	"github.com/alejandrodnm/btcbot/internal/adapters/notify"
	"github.com/alejandrodnm/btcbot/internal/adapters/storage"
	"github.com/alejandrodnm/btcbot/internal/monitor"
	"github.com/alejandrodnm/btcbot/internal/paper"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "force paper trading regardless of config")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))

	monCfg := cfg.MonitorConfig()
	if *dryRun {
		monCfg.DryRun = true
	}

	slog.Info("btc monitor starting",
		"config", *configPath,
		"series", monCfg.Series,
		"dry_run", monCfg.DryRun,
		"backend", cfg.Paper.Backend,
	)

	var key *rsa.PrivateKey
	if cfg.Kalshi.PrivateKeyPath != "" {
		key, err = kalshi.LoadPrivateKey(cfg.Kalshi.PrivateKeyPath)
		if err != nil {
			slog.Error("failed to load kalshi private key", "err", err)
			os.Exit(1)
		}
	}
	if cfg.Kalshi.APIKeyID == "" || key == nil {
		slog.Error("kalshi credentials missing", "hint", "set KALSHI_API_KEY_ID and KALSHI_PRIVATE_KEY_PATH")
		os.Exit(1)
	}

	exchange := kalshi.NewClient(kalshi.Config{
		BaseURL:           cfg.Kalshi.BaseURL,
		KeyID:             cfg.Kalshi.APIKeyID,
		PrivateKey:        key,
		RequestsPerSecond: cfg.Kalshi.RequestsPerSecond,
		Timeout:           cfg.KalshiTimeout(),
	})

	base, ceiling := cfg.Backoff()
	prices := coingecko.NewFeed(
		coingecko.NewClient(coingecko.Config{
			URL:         cfg.PriceFeed.URL,
			Timeout:     cfg.PriceFeedTimeout(),
			MaxAttempts: cfg.PriceFeed.MaxAttempts,
			BaseBackoff: base,
			MaxBackoff:  ceiling,
		}),
		coingecko.NewCache(cfg.PriceFeed.CachePath, cfg.CacheTTL()),
	)
	sentiment := feargreed.NewClient(cfg.Sentiment.URL, cfg.SentimentTimeout())

	store, err := storage.Open(storage.Options{
		Backend:    cfg.Paper.Backend,
		TradesPath: cfg.Paper.TradesPath,
		StatsPath:  cfg.Paper.StatsPath,
		DSN:        cfg.Paper.DSN,
	})
	if err != nil {
		slog.Error("failed to open storage", "err", err, "backend", cfg.Paper.Backend)
		os.Exit(1)
	}
	defer store.Close()

	log := journal.NewMarkdown(cfg.Journal.Path)
	ledger := paper.NewLedger(store, log, monCfg.Sizer)
	m := monitor.New(monCfg, exchange, prices, sentiment, ledger, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out, err := m.RunOnce(ctx)
	if err != nil {
		slog.Error("monitor cycle failed", "err", err)
		os.Exit(1)
	}

	notify.NewConsole().PrintOutcome(out)
	slog.Info("btc monitor done", "decision", out.Decision)
}
