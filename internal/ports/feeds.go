package ports

import (
	"context"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

// PriceFeed entrega el snapshot de precio de BTC. Las implementaciones pueden
// devolver datos de cache marcados con FromCache.
type PriceFeed interface {
	FetchSnapshot(ctx context.Context) (domain.PriceSnapshot, error)
}

// SentimentFeed entrega la lectura del índice Fear & Greed.
type SentimentFeed interface {
	FetchSentiment(ctx context.Context) (domain.Sentiment, error)
}
