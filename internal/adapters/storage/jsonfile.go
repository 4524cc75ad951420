package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

// JSONStore guarda el ledger como un array JSON y las stats como un objeto JSON,
// cada uno en su fichero. Cada Save reescribe el fichero completo.
type JSONStore struct {
	tradesPath string
	statsPath  string
}

// NewJSONStore crea un JSONStore. Los directorios se crean al primer Save.
func NewJSONStore(tradesPath, statsPath string) *JSONStore {
	return &JSONStore{tradesPath: tradesPath, statsPath: statsPath}
}

// LoadTrades devuelve el ledger. Un fichero inexistente es un ledger vacío.
func (s *JSONStore) LoadTrades(_ context.Context) ([]domain.TradeRecord, error) {
	var trades []domain.TradeRecord
	found, err := readJSON(s.tradesPath, &trades)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadTrades: %w", err)
	}
	if !found || trades == nil {
		return []domain.TradeRecord{}, nil
	}
	return trades, nil
}

// SaveTrades reescribe el ledger completo.
func (s *JSONStore) SaveTrades(_ context.Context, trades []domain.TradeRecord) error {
	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	if err := writeJSON(s.tradesPath, trades); err != nil {
		return fmt.Errorf("storage.SaveTrades: %w", err)
	}
	return nil
}

// LoadStats devuelve las stats guardadas, o un snapshot vacío si no hay fichero.
func (s *JSONStore) LoadStats(_ context.Context) (domain.StatsSnapshot, error) {
	var stats domain.StatsSnapshot
	if _, err := readJSON(s.statsPath, &stats); err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("storage.LoadStats: %w", err)
	}
	return stats, nil
}

// SaveStats reescribe el fichero de stats.
func (s *JSONStore) SaveStats(_ context.Context, stats domain.StatsSnapshot) error {
	if err := writeJSON(s.statsPath, stats); err != nil {
		return fmt.Errorf("storage.SaveStats: %w", err)
	}
	return nil
}

// Close no hace nada: cada operación abre y cierra su archivo.
func (s *JSONStore) Close() error { return nil }

func readJSON(path string, out any) (bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// writeJSON escribe en un temporal y renombra, para no dejar un fichero a medias.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
