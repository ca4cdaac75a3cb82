package storage

// sqlite.go: cache de scans, bank e histórico de ciclos en un único archivo.
//
// Tablas:
//   - `scan_cache`: un payload opaco por clave con su hora de guardado. El
//     scanner decide la frescura; aquí solo se guarda y se lee.
//   - `bankroll`: una sola fila (id = 1).
//   - `cycles`: resumen ligero por ciclo de scan. Prune automático al arrancar.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/betbot199/BetBot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Payload del último scan por clave
CREATE TABLE IF NOT EXISTS scan_cache (
    key      TEXT PRIMARY KEY,
    payload  BLOB     NOT NULL,
    saved_at INTEGER NOT NULL -- unix ms
);

-- Bank del operador, una sola fila
CREATE TABLE IF NOT EXISTS bankroll (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    amount     REAL     NOT NULL,
    updated_at INTEGER  NOT NULL
);

-- Resumen ligero por ciclo de scan
CREATE TABLE IF NOT EXISTS cycles (
    id          TEXT PRIMARY KEY,
    scanned_at  INTEGER  NOT NULL, -- unix ms
    duration_ms INTEGER  NOT NULL DEFAULT 0,
    events      INTEGER  NOT NULL DEFAULT 0,
    groups_n    INTEGER  NOT NULL DEFAULT 0,
    values_n    INTEGER  NOT NULL DEFAULT 0,
    surebets    INTEGER  NOT NULL DEFAULT 0,
    middles     INTEGER  NOT NULL DEFAULT 0,
    best_edge   REAL     NOT NULL DEFAULT 0,
    best_margin REAL     NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cycles_at ON cycles(scanned_at DESC);
`

const retentionCycles = 30 * 24 * time.Hour // ciclos: 30 días

// SQLiteStorage implementa ports.Storage y ports.ScanHistory usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia ciclos antiguos.
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

	s := &SQLiteStorage{db: db, now: time.Now}
	s.pruneOld(context.Background())
	return s, nil
}

// LoadPayload implementa ports.CacheStore.
func (s *SQLiteStorage) LoadPayload(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	var payload []byte
	var savedAtMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM scan_cache WHERE key = ?`, key,
	).Scan(&payload, &savedAtMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("storage.LoadPayload: %w", err)
	}
	return payload, time.UnixMilli(savedAtMs).UTC(), true, nil
}

// SavePayload implementa ports.CacheStore.
func (s *SQLiteStorage) SavePayload(ctx context.Context, key string, payload []byte) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_cache (key, payload, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload  = excluded.payload,
			saved_at = excluded.saved_at
	`, key, payload, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("storage.SavePayload: upsert %s: %w", key, err)
	}
	return nil
}

// Bankroll implementa ports.BankrollStore.
func (s *SQLiteStorage) Bankroll(ctx context.Context) (float64, bool, error) {
	var amount float64
	err := s.db.QueryRowContext(ctx, `SELECT amount FROM bankroll WHERE id = 1`).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("storage.Bankroll: %w", err)
	}
	return amount, true, nil
}

// SetBankroll implementa ports.BankrollStore.
func (s *SQLiteStorage) SetBankroll(ctx context.Context, amount float64) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bankroll (id, amount, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount     = excluded.amount,
			updated_at = excluded.updated_at
	`, amount, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("storage.SetBankroll: %w", err)
	}
	return nil
}

// SaveCycle implementa ports.ScanHistory.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, c domain.CycleSummary) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cycles
			(id, scanned_at, duration_ms, events, groups_n, values_n, surebets, middles, best_edge, best_margin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.ScannedAt.UnixMilli(), c.Duration.Milliseconds(), c.Events, c.Groups,
		c.Values, c.Surebets, c.Middles, c.BestEdge, c.BestMargin,
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert %s: %w", c.ID, err)
	}
	return nil
}

// RecentCycles implementa ports.ScanHistory.
func (s *SQLiteStorage) RecentCycles(ctx context.Context, n int) ([]domain.CycleSummary, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scanned_at, duration_ms, events, groups_n, values_n,
		       surebets, middles, best_edge, best_margin
		FROM cycles
		ORDER BY scanned_at DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentCycles: query: %w", err)
	}
	defer rows.Close()

	var out []domain.CycleSummary
	for rows.Next() {
		var c domain.CycleSummary
		var scannedMs, durationMs int64
		if err := rows.Scan(
			&c.ID, &scannedMs, &durationMs, &c.Events, &c.Groups, &c.Values,
			&c.Surebets, &c.Middles, &c.BestEdge, &c.BestMargin,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentCycles: scan row: %w", err)
		}
		c.ScannedAt = time.UnixMilli(scannedMs).UTC()
		c.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina ciclos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := s.now().Add(-retentionCycles).UnixMilli()
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE scanned_at < ?`, cutoff)
}
