package coingecko

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

const defaultCacheTTL = 300 * time.Second

// cacheFile es el formato en disco: {"timestamp": epoch_s, "data": {...}}.
type cacheFile struct {
	Timestamp int64                 `json:"timestamp"`
	Data      *domain.PriceSnapshot `json:"data"`
}

// Cache guarda el último snapshot bueno en un fichero JSON.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewCache crea una Cache en path. ttl <= 0 usa 300s.
func NewCache(path string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{path: path, ttl: ttl, now: time.Now}
}

// Write guarda el snapshot con el timestamp actual.
func (c *Cache) Write(snap domain.PriceSnapshot) error {
	b, err := json.Marshal(cacheFile{Timestamp: c.now().Unix(), Data: &snap})
	if err != nil {
		return fmt.Errorf("coingecko.Cache.Write: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("coingecko.Cache.Write: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("coingecko.Cache.Write: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("coingecko.Cache.Write: %w", err)
	}
	return nil
}

// Read devuelve el snapshot cacheado si existe y no supera el TTL. Un fichero
// ausente, ilegible o caducado cuenta como sin cache.
func (c *Cache) Read() (domain.PriceSnapshot, bool) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return domain.PriceSnapshot{}, false
	}
	var f cacheFile
	if err := json.Unmarshal(b, &f); err != nil || f.Timestamp == 0 || f.Data == nil {
		return domain.PriceSnapshot{}, false
	}

	age := c.now().Sub(time.Unix(f.Timestamp, 0)).Truncate(time.Second)
	if age > c.ttl {
		return domain.PriceSnapshot{}, false
	}

	snap := *f.Data
	snap.FromCache = true
	snap.CacheAge = age
	return snap, true
}
