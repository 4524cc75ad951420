package coingecko

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

// ErrNoData indica que fallaron tanto el feed en vivo como la cache.
var ErrNoData = errors.New("coingecko: no live data and no valid cache")

// Feed es el PriceFeed de producción: en vivo con cache de respaldo.
type Feed struct {
	client *Client
	cache  *Cache
}

// NewFeed crea un Feed. cache puede ser nil.
func NewFeed(client *Client, cache *Cache) *Feed {
	return &Feed{client: client, cache: cache}
}

// FetchSnapshot devuelve el snapshot en vivo y lo cachea. Si el feed falla usa la
// cache vigente, marcada con FromCache.
func (f *Feed) FetchSnapshot(ctx context.Context) (domain.PriceSnapshot, error) {
	snap, err := f.client.FetchLive(ctx)
	if err == nil {
		if f.cache != nil {
			if werr := f.cache.Write(snap); werr != nil {
				slog.Warn("price cache write failed", "err", werr)
			}
		}
		return snap, nil
	}

	slog.Warn("live price fetch failed", "err", err)
	if f.cache != nil {
		if cached, ok := f.cache.Read(); ok {
			slog.Warn("using cached price data", "age", cached.CacheAge)
			return cached, nil
		}
	}
	return domain.PriceSnapshot{}, fmt.Errorf("%w: %v", ErrNoData, err)
}
