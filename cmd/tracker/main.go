package main

import (
	"context"
	"crypto/rsa"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/btcbot/config"
	"github.com/alejandrodnm/btcbot/internal/adapters/journal"
	"github.com/alejandrodnm/btcbot/internal/adapters/kalshi"
	"github.com/alejandrodnm/btcbot/internal/adapters/notify"
	"github.com/alejandrodnm/btcbot/internal/adapters/storage"
	"github.com/alejandrodnm/btcbot/internal/paper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run ejecuta el tracker y devuelve el exit code. stdout queda para el resumen que
// reenvía el cron; logs y uso van a stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	resolve := fs.Bool("resolve", false, "resolve settled paper trades and update stats")
	stats := fs.Bool("stats", false, "print paper trading stats")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	logFormat := fs.String("format", "", "log format: text|json (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *resolve == *stats {
		fmt.Fprintln(stderr, "Usage: tracker [-resolve | -stats]")
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	slog.SetDefault(cfg.Log.NewLogger(stderr))

	store, err := storage.Open(storage.Options{
		Backend:    cfg.Paper.Backend,
		TradesPath: cfg.Paper.TradesPath,
		StatsPath:  cfg.Paper.StatsPath,
		DSN:        cfg.Paper.DSN,
	})
	if err != nil {
		slog.Error("failed to open storage", "err", err, "backend", cfg.Paper.Backend)
		return 1
	}
	defer store.Close()

	// Los mercados son públicos: sin clave se piden sin firmar.
	var key *rsa.PrivateKey
	if cfg.Kalshi.PrivateKeyPath != "" {
		key, err = kalshi.LoadPrivateKey(cfg.Kalshi.PrivateKeyPath)
		if err != nil {
			slog.Error("failed to load kalshi private key", "err", err)
			return 1
		}
	}
	markets := kalshi.NewClient(kalshi.Config{
		BaseURL:           cfg.Kalshi.BaseURL,
		KeyID:             cfg.Kalshi.APIKeyID,
		PrivateKey:        key,
		RequestsPerSecond: cfg.Kalshi.RequestsPerSecond,
		Timeout:           cfg.KalshiTimeout(),
	})

	resolver := paper.NewResolver(store, store, markets, journal.NewMarkdown(cfg.Journal.Path), cfg.Paper.Milestone)
	console := notify.NewConsoleWriter(stdout)

	if *stats {
		snap, err := resolver.Stats(ctx)
		if err != nil {
			slog.Error("failed to load stats", "err", err)
			return 1
		}
		console.PrintStats(snap)
		return 0
	}

	res, err := resolver.Sweep(ctx)
	if err != nil {
		slog.Error("resolve sweep failed", "err", err)
		return 1
	}
	slog.Info("resolve sweep done", "newly_resolved", res.NewlyResolved, "total_resolved", res.Stats.TotalResolved)

	if !shouldReport(res) {
		return 0
	}
	console.PrintResolutions(res.Resolutions)
	console.PrintStats(res.Stats)
	if res.Milestone {
		console.PrintMilestone(res.Stats)
	}
	return 0
}

// shouldReport: sin resoluciones nuevas ni milestone no se imprime nada, el cron
// sólo reenvía salidas no vacías.
func shouldReport(res paper.SweepResult) bool {
	return res.NewlyResolved > 0 || res.Milestone
}
