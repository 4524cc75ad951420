package kalshi

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.elections.kalshi.com"
	apiPrefix      = "/trade-api/v2"

	// Tier básico: 20 lecturas/s. Vamos al 60%.
	defaultRatePerSec = 12
	defaultTimeout    = 30 * time.Second

	// El breaker abre tras 5 fallos seguidos de transporte o 5xx y prueba de nuevo al minuto.
	breakerFailures = 5
	breakerTimeout  = time.Minute
)

// ErrBreakerOpen se devuelve sin llamar a la API mientras el breaker está abierto.
var ErrBreakerOpen = gobreaker.ErrOpenState

// APIError es una respuesta HTTP no-2xx del exchange.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kalshi: HTTP %d: %s", e.Status, e.Body)
}

// Config agrupa los parámetros del cliente.
type Config struct {
	BaseURL           string
	KeyID             string
	PrivateKey        *rsa.PrivateKey
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client es el cliente REST firmado de Kalshi con rate limiting y circuit breaker.
// No reintenta: los errores se devuelven al llamador.
type Client struct {
	http    *http.Client
	baseURL string
	signer  *signer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient crea un Client. Sin BaseURL usa producción.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRatePerSec
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	st := gobreaker.Settings{
		Name:    "kalshi",
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		// Un 4xx es culpa de la petición, no de la API: no cuenta para abrir el breaker.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		signer:  newSigner(cfg.KeyID, cfg.PrivateKey),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 5),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// get hace un GET firmado. path incluye el prefijo /trade-api/v2 y la query.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// post hace un POST JSON firmado.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.signer.sign(req, method, path); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
