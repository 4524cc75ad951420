package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultURL = "https://api.coingecko.com/api/v3/coins/markets?vs_currency=usd&ids=bitcoin&price_change_percentage=1h,24h"

	// Plan público: 30 req/min. Vamos al 60%.
	defaultRequestsPerMinute = 18
	defaultTimeout           = 15 * time.Second

	defaultMaxAttempts = 3
	defaultBaseBackoff = 500 * time.Millisecond
	defaultMaxBackoff  = 6 * time.Second
	jitterFraction     = 0.3
)

// HTTPError es una respuesta no-2xx del feed.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("coingecko: HTTP %d: %s", e.Status, e.Body)
}

// Retryable devuelve true para 429 y 5xx.
func (e *HTTPError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || (e.Status >= 500 && e.Status <= 599)
}

// Sleeper espera d o hasta que el contexto se cancele.
type Sleeper func(ctx context.Context, d time.Duration) error

// Config agrupa los parámetros del cliente. Los ceros toman los valores por defecto.
type Config struct {
	URL               string
	Timeout           time.Duration
	RequestsPerMinute float64
	MaxAttempts       int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	// Sleep permite sustituir la espera entre reintentos (tests).
	Sleep Sleeper
}

// Client pide el snapshot de BTC con reintentos y backoff exponencial con jitter.
type Client struct {
	http        *http.Client
	url         string
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	sleep       Sleeper
	jitter      func() float64
}

// NewClient crea un Client con la configuración dada.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		url:         cfg.URL,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), cfg.MaxAttempts),
		maxAttempts: cfg.MaxAttempts,
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
		sleep:       cfg.Sleep,
		jitter:      rand.Float64,
	}
}

// coinMarket es una fila de /coins/markets. Los campos opcionales llegan a null a veces.
type coinMarket struct {
	CurrentPrice *float64 `json:"current_price"`
	Change1h     *float64 `json:"price_change_percentage_1h_in_currency"`
	Change24h    *float64 `json:"price_change_percentage_24h"`
	High24h      *float64 `json:"high_24h"`
	Low24h       *float64 `json:"low_24h"`
	TotalVolume  *float64 `json:"total_volume"`
}

// FetchLive pide el snapshot en vivo, sin cache.
func (c *Client) FetchLive(ctx context.Context) (domain.PriceSnapshot, error) {
	var rows []coinMarket
	if err := c.getWithRetry(ctx, &rows); err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("coingecko.FetchLive: %w", err)
	}
	if len(rows) == 0 || rows[0].CurrentPrice == nil {
		return domain.PriceSnapshot{}, errors.New("coingecko.FetchLive: empty response")
	}
	r := rows[0]
	return domain.PriceSnapshot{
		Price:     *r.CurrentPrice,
		Change1h:  orZero(r.Change1h),
		Change24h: orZero(r.Change24h),
		High24h:   orZero(r.High24h),
		Low24h:    orZero(r.Low24h),
		Volume24h: orZero(r.TotalVolume),
	}, nil
}

// getWithRetry reintenta errores de red, 429 y 5xx hasta maxAttempts intentos.
// Cualquier otro HTTP error falla al instante.
func (c *Client) getWithRetry(ctx context.Context, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		err := c.get(ctx, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(ctx, err) || attempt == c.maxAttempts {
			break
		}

		delay := c.backoff(attempt)
		slog.Warn("price feed request failed, retrying",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"delay", delay.Round(time.Millisecond),
			"err", err,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) get(ctx context.Context, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "btcbot/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &HTTPError{Status: resp.StatusCode, Body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// backoff devuelve min(maxBackoff, base·2^(attempt−1)) más un jitter uniforme en [0, 0.3·base].
func (c *Client) backoff(attempt int) time.Duration {
	base := math.Min(float64(c.maxBackoff), float64(c.baseBackoff)*math.Pow(2, float64(attempt-1)))
	return time.Duration(base + c.jitter()*base*jitterFraction)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}

// sleepCtx espera d respetando el contexto.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
