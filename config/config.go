package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/monitor"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de monitor y tracker.
type Config struct {
	Strategy  StrategyConfig  `yaml:"strategy"`
	Kalshi    KalshiConfig    `yaml:"kalshi"`
	PriceFeed PriceFeedConfig `yaml:"price_feed"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Paper     PaperConfig     `yaml:"paper"`
	Journal   JournalConfig   `yaml:"journal"`
	Log       LogConfig       `yaml:"log"`
}

// StrategyConfig contiene los umbrales de decisión y sizing.
type StrategyConfig struct {
	Series                 string                `yaml:"series"`
	MinBetUSD              float64               `yaml:"min_bet_usd"`
	MaxBetUSD              float64               `yaml:"max_bet_usd"`
	MaxEntryCostCents      int                   `yaml:"max_entry_cost_cents"`
	MinDistancePct         float64               `yaml:"min_distance_pct"` // sin hora de cierre conocida
	Min24hMomentumPct      float64               `yaml:"min_24h_momentum_pct"`
	MinSignalScore         int                   `yaml:"min_signal_score"`
	MinVolumeUSD           float64               `yaml:"min_volume_usd"`
	SettlementGuardMinutes int                   `yaml:"settlement_guard_minutes"`
	DistanceTiers          []domain.DistanceTier `yaml:"distance_tiers"`
}

// KalshiConfig contiene credenciales y límites del exchange.
type KalshiConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyID          string  `yaml:"api_key_id"`
	PrivateKeyPath    string  `yaml:"private_key_path"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	// DryRun a nil equivale a true: sin configurar nunca se opera en real.
	DryRun *bool `yaml:"dry_run"`
}

// PriceFeedConfig controla CoinGecko, sus reintentos y la cache en disco.
type PriceFeedConfig struct {
	URL             string  `yaml:"url"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	CachePath       string  `yaml:"cache_path"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	MaxAttempts     int     `yaml:"max_attempts"`
	BaseBackoffSec  float64 `yaml:"base_backoff_seconds"`
	MaxBackoffSec   float64 `yaml:"max_backoff_seconds"`
}

// SentimentConfig apunta al índice Fear & Greed.
type SentimentConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PaperConfig elige dónde se persiste el ledger de paper trading.
type PaperConfig struct {
	Backend    string `yaml:"backend"` // json | sqlite
	TradesPath string `yaml:"trades_path"`
	StatsPath  string `yaml:"stats_path"`
	DSN        string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	Milestone  int    `yaml:"milestone"`
}

// JournalConfig es el log de decisiones en markdown.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un path vacío arranca desde los defaults. Las variables de entorno ganan sobre el YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"KALSHI_API_KEY_ID":       &cfg.Kalshi.APIKeyID,
		"KALSHI_PRIVATE_KEY_PATH": &cfg.Kalshi.PrivateKeyPath,
		"KALSHI_BASE_URL":         &cfg.Kalshi.BaseURL,
		"KALSHI_TRADE_LOG":        &cfg.Journal.Path,
		"BTC_CACHE_PATH":          &cfg.PriceFeed.CachePath,
		"PAPER_TRADES_PATH":       &cfg.Paper.TradesPath,
		"PAPER_STATS_PATH":        &cfg.Paper.StatsPath,
		"LOG_LEVEL":               &cfg.Log.Level,
		"LOG_FORMAT":              &cfg.Log.Format,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("KALSHI_DRY_RUN"); v != "" {
		dry := strings.EqualFold(v, "true")
		cfg.Kalshi.DryRun = &dry
	}
	if v := os.Getenv("BTC_CACHE_TTL_SECONDS"); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BTC_CACHE_TTL_SECONDS=%q: %w", v, err)
		}
		cfg.PriceFeed.CacheTTLSeconds = ttl
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	s := &cfg.Strategy
	if s.Series == "" {
		s.Series = "KXBTCD"
	}
	if s.MinBetUSD == 0 {
		s.MinBetUSD = 100
	}
	if s.MaxBetUSD == 0 {
		s.MaxBetUSD = 300
	}
	if s.MaxEntryCostCents == 0 {
		s.MaxEntryCostCents = 35
	}
	if s.MinDistancePct <= 0 {
		s.MinDistancePct = 2.0
	}
	if s.Min24hMomentumPct <= 0 {
		s.Min24hMomentumPct = 0.3
	}
	if s.MinSignalScore <= 0 {
		s.MinSignalScore = 3
	}
	if s.MinVolumeUSD <= 0 {
		s.MinVolumeUSD = 30e9
	}
	if s.SettlementGuardMinutes <= 0 {
		s.SettlementGuardMinutes = 90
	}
	if len(s.DistanceTiers) == 0 {
		s.DistanceTiers = domain.DefaultDistanceScale().Tiers
	}

	if cfg.Kalshi.BaseURL == "" {
		cfg.Kalshi.BaseURL = "https://api.elections.kalshi.com"
	}
	if cfg.Kalshi.RequestsPerSecond <= 0 {
		cfg.Kalshi.RequestsPerSecond = 12
	}
	if cfg.Kalshi.TimeoutSeconds <= 0 {
		cfg.Kalshi.TimeoutSeconds = 10
	}
	if cfg.Kalshi.DryRun == nil {
		dry := true
		cfg.Kalshi.DryRun = &dry
	}

	p := &cfg.PriceFeed
	if p.URL == "" {
		p.URL = "https://api.coingecko.com/api/v3/coins/markets?vs_currency=usd&ids=bitcoin&price_change_percentage=1h,24h"
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = 10
	}
	if p.CachePath == "" {
		p.CachePath = "data/kalshi-btc-cache.json"
	}
	if p.CacheTTLSeconds <= 0 {
		p.CacheTTLSeconds = 300
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseBackoffSec <= 0 {
		p.BaseBackoffSec = 0.5
	}
	if p.MaxBackoffSec <= 0 {
		p.MaxBackoffSec = 6
	}

	if cfg.Sentiment.URL == "" {
		cfg.Sentiment.URL = "https://api.alternative.me/fng/?limit=1"
	}
	if cfg.Sentiment.TimeoutSeconds <= 0 {
		cfg.Sentiment.TimeoutSeconds = 10
	}

	if cfg.Paper.Backend == "" {
		cfg.Paper.Backend = "json"
	}
	if cfg.Paper.TradesPath == "" {
		cfg.Paper.TradesPath = "data/kalshi-paper-trades.json"
	}
	if cfg.Paper.StatsPath == "" {
		cfg.Paper.StatsPath = "data/kalshi-paper-stats.json"
	}
	if cfg.Paper.DSN == "" {
		cfg.Paper.DSN = "data/kalshi-paper.db"
	}
	if cfg.Paper.Milestone == 0 {
		cfg.Paper.Milestone = domain.DefaultMilestone
	}

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "data/kalshi-btc-trades.md"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate rechaza configuraciones que producirían sizing o selección sin sentido.
func (c *Config) Validate() error {
	var errs []error
	s := c.Strategy
	if s.MinBetUSD <= 0 {
		errs = append(errs, fmt.Errorf("strategy.min_bet_usd must be > 0, got %v", s.MinBetUSD))
	}
	if s.MaxBetUSD < s.MinBetUSD {
		errs = append(errs, fmt.Errorf("strategy.max_bet_usd (%v) below min_bet_usd (%v)", s.MaxBetUSD, s.MinBetUSD))
	}
	if s.MaxEntryCostCents < 1 || s.MaxEntryCostCents > 99 {
		errs = append(errs, fmt.Errorf("strategy.max_entry_cost_cents must be in 1..99, got %d", s.MaxEntryCostCents))
	}
	for i := 1; i < len(s.DistanceTiers); i++ {
		if s.DistanceTiers[i].MaxHours <= s.DistanceTiers[i-1].MaxHours {
			errs = append(errs, fmt.Errorf("strategy.distance_tiers must be sorted by max_hours (index %d)", i))
			break
		}
	}
	switch c.Paper.Backend {
	case "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("paper.backend must be json or sqlite, got %q", c.Paper.Backend))
	}
	return errors.Join(errs...)
}

// IsDryRun indica si el monitor registra paper trades en vez de enviar órdenes.
func (c *Config) IsDryRun() bool {
	return c.Kalshi.DryRun == nil || *c.Kalshi.DryRun
}

// DistanceScale convierte los tramos configurados a la tabla del dominio.
func (c *Config) DistanceScale() domain.DistanceScale {
	tiers := make([]domain.DistanceTier, len(c.Strategy.DistanceTiers))
	copy(tiers, c.Strategy.DistanceTiers)
	return domain.DistanceScale{DefaultPct: c.Strategy.MinDistancePct, Tiers: tiers}
}

// Sizer devuelve el sizing por apuesta.
func (c *Config) Sizer() domain.Sizer {
	return domain.Sizer{MinBetUSD: c.Strategy.MinBetUSD, MaxBetUSD: c.Strategy.MaxBetUSD}
}

// SignalConfig devuelve los umbrales del scorer; sólo el volumen es configurable.
func (c *Config) SignalConfig() domain.SignalConfig {
	sc := domain.DefaultSignalConfig()
	sc.MinVolumeUSD = c.Strategy.MinVolumeUSD
	return sc
}

// SelectorConfig devuelve los filtros del selector de mercado.
func (c *Config) SelectorConfig() monitor.SelectorConfig {
	return monitor.SelectorConfig{
		MaxEntryCostCents: c.Strategy.MaxEntryCostCents,
		SettlementGuard:   time.Duration(c.Strategy.SettlementGuardMinutes) * time.Minute,
		Distance:          c.DistanceScale(),
	}
}

// MonitorConfig arma la configuración completa del ciclo.
func (c *Config) MonitorConfig() monitor.Config {
	return monitor.Config{
		Series:         c.Strategy.Series,
		MinMomentumPct: c.Strategy.Min24hMomentumPct,
		MinSignalScore: c.Strategy.MinSignalScore,
		DryRun:         c.IsDryRun(),
		Signals:        c.SignalConfig(),
		Selector:       c.SelectorConfig(),
		Sizer:          c.Sizer(),
	}
}

// KalshiTimeout devuelve el timeout HTTP del exchange.
func (c *Config) KalshiTimeout() time.Duration {
	return time.Duration(c.Kalshi.TimeoutSeconds) * time.Second
}

// CacheTTL devuelve la vigencia de la cache de precio.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.PriceFeed.CacheTTLSeconds) * time.Second
}

// PriceFeedTimeout devuelve el timeout HTTP de CoinGecko.
func (c *Config) PriceFeedTimeout() time.Duration {
	return time.Duration(c.PriceFeed.TimeoutSeconds) * time.Second
}

// SentimentTimeout devuelve el timeout HTTP del Fear & Greed.
func (c *Config) SentimentTimeout() time.Duration {
	return time.Duration(c.Sentiment.TimeoutSeconds) * time.Second
}

// Backoff devuelve la espera base y máxima entre reintentos del price feed.
func (c *Config) Backoff() (base, ceiling time.Duration) {
	base = time.Duration(c.PriceFeed.BaseBackoffSec * float64(time.Second))
	ceiling = time.Duration(c.PriceFeed.MaxBackoffSec * float64(time.Second))
	return base, ceiling
}

// NewLogger crea el logger slog según nivel y formato, escribiendo en w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
