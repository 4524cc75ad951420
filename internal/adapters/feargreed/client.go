package feargreed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

const (
	defaultURL     = "https://api.alternative.me/fng/?limit=1"
	defaultTimeout = 10 * time.Second
)

// Client lee el índice Fear & Greed de alternative.me. Sin reintentos: si falla,
// la señal de sentimiento simplemente no cuenta.
// Se consulta una vez por ciclo, así que no lleva rate limiter.
type Client struct {
	http *http.Client
	url  string
}

// NewClient crea un Client. url vacío usa la API pública.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = defaultURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		url:  url,
	}
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// FetchSentiment devuelve la última lectura del índice.
func (c *Client) FetchSentiment(ctx context.Context) (domain.Sentiment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.Sentiment{}, fmt.Errorf("feargreed.FetchSentiment: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Sentiment{}, fmt.Errorf("feargreed.FetchSentiment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Sentiment{}, fmt.Errorf("feargreed.FetchSentiment: HTTP %d: %s", resp.StatusCode, b)
	}

	var body fngResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Sentiment{}, fmt.Errorf("feargreed.FetchSentiment: decode: %w", err)
	}
	if len(body.Data) == 0 {
		return domain.Sentiment{}, errors.New("feargreed.FetchSentiment: empty data")
	}

	v, err := strconv.Atoi(body.Data[0].Value)
	if err != nil {
		return domain.Sentiment{}, fmt.Errorf("feargreed.FetchSentiment: value %q: %w", body.Data[0].Value, err)
	}
	return domain.Sentiment{Value: v, Label: body.Data[0].Classification}, nil
}
