package storage

// sqlite.go — backend alternativo del ledger de paper trades.
//
//   - `paper_trades`: una fila por trade; `seq` conserva el orden de creación.
//     SaveTrades reescribe la tabla entera dentro de una transacción, igual que el
//     fichero JSON, para que ambos backends se comporten igual.
//   - `paper_stats`: una única fila (id = 1) con el último snapshot.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS paper_trades (
    id                      TEXT PRIMARY KEY,
    seq                     INTEGER NOT NULL,
    opened_at               TEXT    NOT NULL,
    ticker                  TEXT    NOT NULL,
    side                    TEXT    NOT NULL,
    action                  TEXT    NOT NULL,
    strike                  REAL    NOT NULL DEFAULT 0,
    entry_cost_cents        INTEGER NOT NULL,
    contracts               INTEGER NOT NULL,
    hypothetical_cost_usd   REAL    NOT NULL DEFAULT 0,
    potential_profit_usd    REAL    NOT NULL DEFAULT 0,
    signal_score            INTEGER NOT NULL DEFAULT 0,
    signals                 TEXT    NOT NULL DEFAULT '{}',
    btc_price_at_entry      REAL    NOT NULL DEFAULT 0,
    btc_change_24h_at_entry REAL    NOT NULL DEFAULT 0,
    settlement_time         TEXT,
    status                  TEXT    NOT NULL,
    result_side             TEXT,
    realized_pnl            REAL,
    resolved_at             TEXT
);

CREATE INDEX IF NOT EXISTS idx_trades_seq    ON paper_trades(seq);
CREATE INDEX IF NOT EXISTS idx_trades_status ON paper_trades(status);

CREATE TABLE IF NOT EXISTS paper_stats (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    payload    TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

const timeLayout = time.RFC3339Nano

// SQLiteStorage implementa LedgerStore y StatsStore sobre SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// LoadTrades devuelve el ledger en orden de creación.
func (s *SQLiteStorage) LoadTrades(ctx context.Context) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, opened_at, ticker, side, action, strike, entry_cost_cents, contracts,
		       hypothetical_cost_usd, potential_profit_usd, signal_score, signals,
		       btc_price_at_entry, btc_change_24h_at_entry, settlement_time,
		       status, result_side, realized_pnl, resolved_at
		FROM paper_trades
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadTrades: query: %w", err)
	}
	defer rows.Close()

	trades := []domain.TradeRecord{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.LoadTrades: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveTrades reemplaza el ledger completo en una transacción.
func (s *SQLiteStorage) SaveTrades(ctx context.Context, trades []domain.TradeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveTrades: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM paper_trades`); err != nil {
		return fmt.Errorf("storage.SaveTrades: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO paper_trades
			(id, seq, opened_at, ticker, side, action, strike, entry_cost_cents, contracts,
			 hypothetical_cost_usd, potential_profit_usd, signal_score, signals,
			 btc_price_at_entry, btc_change_24h_at_entry, settlement_time,
			 status, result_side, realized_pnl, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveTrades: prepare: %w", err)
	}
	defer stmt.Close()

	for i, t := range trades {
		signals, err := json.Marshal(t.Signals)
		if err != nil {
			return fmt.Errorf("storage.SaveTrades: marshal signals %s: %w", t.ID, err)
		}
		var resultSide any
		if t.ResultSide != nil {
			resultSide = string(*t.ResultSide)
		}
		var pnl any
		if t.RealizedPnL != nil {
			pnl = *t.RealizedPnL
		}

		if _, err := stmt.ExecContext(ctx,
			t.ID,
			i,
			t.Timestamp.UTC().Format(timeLayout),
			t.Ticker,
			string(t.Side),
			string(t.Action),
			t.Strike,
			t.EntryCostCents,
			t.Contracts,
			t.HypotheticalCostUSD,
			t.PotentialProfitUSD,
			t.SignalScore,
			string(signals),
			t.BTCPriceAtEntry,
			t.BTCChange24hAtEntry,
			nullTime(t.SettlementTime),
			string(t.Status),
			resultSide,
			pnl,
			nullTime(t.ResolvedAt),
		); err != nil {
			return fmt.Errorf("storage.SaveTrades: insert %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveTrades: commit: %w", err)
	}
	return nil
}

// LoadStats devuelve el último snapshot, o uno vacío si nunca se guardó.
func (s *SQLiteStorage) LoadStats(ctx context.Context) (domain.StatsSnapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM paper_stats WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StatsSnapshot{}, nil
	}
	if err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("storage.LoadStats: %w", err)
	}

	var stats domain.StatsSnapshot
	if err := json.Unmarshal([]byte(payload), &stats); err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("storage.LoadStats: decode: %w", err)
	}
	return stats, nil
}

// SaveStats reemplaza el snapshot guardado.
func (s *SQLiteStorage) SaveStats(ctx context.Context, stats domain.StatsSnapshot) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("storage.SaveStats: marshal: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO paper_stats (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at
	`, string(payload), time.Now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("storage.SaveStats: upsert: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func scanTrade(rows *sql.Rows) (domain.TradeRecord, error) {
	var (
		t                      domain.TradeRecord
		openedAt, side, action string
		signals, status        string
		settlement, resolvedAt sql.NullString
		resultSide             sql.NullString
		pnl                    sql.NullFloat64
	)
	if err := rows.Scan(
		&t.ID,
		&openedAt,
		&t.Ticker,
		&side,
		&action,
		&t.Strike,
		&t.EntryCostCents,
		&t.Contracts,
		&t.HypotheticalCostUSD,
		&t.PotentialProfitUSD,
		&t.SignalScore,
		&signals,
		&t.BTCPriceAtEntry,
		&t.BTCChange24hAtEntry,
		&settlement,
		&status,
		&resultSide,
		&pnl,
		&resolvedAt,
	); err != nil {
		return domain.TradeRecord{}, fmt.Errorf("scan row: %w", err)
	}

	ts, err := time.Parse(timeLayout, openedAt)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("trade %s: opened_at: %w", t.ID, err)
	}
	t.Timestamp = ts
	t.Side = domain.Side(side)
	t.Action = domain.Action(action)
	t.Status = domain.TradeStatus(status)
	if err := json.Unmarshal([]byte(signals), &t.Signals); err != nil {
		return domain.TradeRecord{}, fmt.Errorf("trade %s: signals: %w", t.ID, err)
	}
	t.SettlementTime = parseNullTime(settlement)
	t.ResolvedAt = parseNullTime(resolvedAt)
	if resultSide.Valid {
		rs := domain.Side(resultSide.String)
		t.ResultSide = &rs
	}
	if pnl.Valid {
		v := pnl.Float64
		t.RealizedPnL = &v
	}
	return t, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
