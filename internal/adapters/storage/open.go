package storage

import (
	"fmt"

	"github.com/alejandrodnm/btcbot/internal/ports"
)

// Store es un backend que guarda ledger y stats.
type Store interface {
	ports.LedgerStore
	ports.StatsStore
	Close() error
}

// Options elige backend y rutas.
type Options struct {
	Backend    string // json | sqlite
	TradesPath string
	StatsPath  string
	DSN        string
}

// Open abre el backend configurado.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "json":
		return NewJSONStore(opts.TradesPath, opts.StatsPath), nil
	case "sqlite":
		s, err := NewSQLiteStorage(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage.Open: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage.Open: unknown backend %q", opts.Backend)
	}
}
