package coingecko

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cacheNow = time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c := NewCache(filepath.Join(t.TempDir(), "memory", "btc-cache.json"), ttl)
	c.now = func() time.Time { return cacheNow }
	return c
}

func TestCache_WriteThenRead(t *testing.T) {
	c := newTestCache(t, 0)
	snap := domain.PriceSnapshot{Price: 100_000, Change1h: 0.2, Change24h: 1.5, High24h: 101_000, Low24h: 97_000, Volume24h: 35e9}
	require.NoError(t, c.Write(snap))

	c.now = func() time.Time { return cacheNow.Add(120 * time.Second) }
	got, ok := c.Read()
	require.True(t, ok)
	assert.True(t, got.FromCache)
	assert.Equal(t, 120*time.Second, got.CacheAge)
	assert.Equal(t, snap.Price, got.Price)
	assert.Equal(t, snap.Volume24h, got.Volume24h)
	assert.Equal(t, "cached", got.DataQuality())
}

func TestCache_FileFormat(t *testing.T) {
	c := newTestCache(t, 0)
	require.NoError(t, c.Write(domain.PriceSnapshot{Price: 1, FromCache: true}))

	b, err := os.ReadFile(c.path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp": 1770120000, "data": {"price": 1, "change_1h": 0, "change_24h": 0, "high_24h": 0, "low_24h": 0, "volume_24h": 0}}`, string(b))
}

func TestCache_TTLBoundary(t *testing.T) {
	c := newTestCache(t, 300*time.Second)
	require.NoError(t, c.Write(domain.PriceSnapshot{Price: 1}))

	c.now = func() time.Time { return cacheNow.Add(300 * time.Second) }
	_, ok := c.Read()
	assert.True(t, ok, "justo en el TTL vale")

	c.now = func() time.Time { return cacheNow.Add(301 * time.Second) }
	_, ok = c.Read()
	assert.False(t, ok)
}

func TestCache_MissingOrMalformed(t *testing.T) {
	c := newTestCache(t, 0)
	_, ok := c.Read()
	assert.False(t, ok)

	require.NoError(t, os.MkdirAll(filepath.Dir(c.path), 0o755))
	for _, body := range []string{`not json`, `{"timestamp": 0, "data": {"price": 1}}`, `{"timestamp": 1770120000}`} {
		require.NoError(t, os.WriteFile(c.path, []byte(body), 0o644))
		_, ok := c.Read()
		assert.False(t, ok, body)
	}
}
