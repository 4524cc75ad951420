package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.PriceFeed = (*Feed)(nil)

func TestFeed_LiveSuccessRefreshesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(btcRow))
	}))
	defer srv.Close()

	var delays []time.Duration
	cache := newTestCache(t, 0)
	feed := NewFeed(newTestClient(srv.URL, &delays), cache)

	snap, err := feed.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.FromCache)

	cached, ok := cache.Read()
	require.True(t, ok)
	assert.InDelta(t, 100000.5, cached.Price, 1e-9)
}

func TestFeed_ThreeRateLimitsFallBackToCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cache := newTestCache(t, 300*time.Second)
	require.NoError(t, cache.Write(domain.PriceSnapshot{Price: 99_000, Change24h: 1.2}))
	cache.now = func() time.Time { return cacheNow.Add(120 * time.Second) }

	var delays []time.Duration
	feed := NewFeed(newTestClient(srv.URL, &delays), cache)

	snap, err := feed.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, snap.FromCache)
	assert.Equal(t, 120*time.Second, snap.CacheAge)
	assert.InDelta(t, 99_000, snap.Price, 1e-9)
}

func TestFeed_NoLiveNoCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var delays []time.Duration
	feed := NewFeed(newTestClient(srv.URL, &delays), newTestCache(t, 0))

	_, err := feed.FetchSnapshot(context.Background())
	require.ErrorIs(t, err, ErrNoData)
}
