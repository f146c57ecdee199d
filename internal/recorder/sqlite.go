package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"ForexSignal/internal/model"
)

// SQLiteRecorder persists signal history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_history (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			request_id      TEXT,
			source          TEXT,
			symbol          TEXT NOT NULL,
			start_date      TEXT,
			end_date        TEXT,
			threshold       REAL,
			predicted_price REAL,
			signal          TEXT,
			as_of           INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ts ON signal_history(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_symbol ON signal_history(symbol)`,

		`CREATE TABLE IF NOT EXISTS signal_failures (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			request_id TEXT,
			source     TEXT,
			symbol     TEXT,
			kind       TEXT,
			message    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failure_ts ON signal_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordSignal(rec *SignalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`INSERT INTO signal_history
		(timestamp, request_id, source, symbol, start_date, end_date, threshold, predicted_price, signal, as_of)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		stamp(rec.Timestamp), rec.RequestID, rec.Source, rec.Symbol,
		rec.StartDate, rec.EndDate, rec.Threshold, rec.PredictedPrice,
		string(rec.Signal), rec.AsOf.Unix(),
	)
	if err != nil {
		return err
	}
	rec.ID, err = res.LastInsertId()
	return err
}

func (r *SQLiteRecorder) RecordFailure(rec *FailureRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signal_failures
		(timestamp, request_id, source, symbol, kind, message)
		VALUES (?,?,?,?,?,?)`,
		stamp(rec.Timestamp), rec.RequestID, rec.Source, rec.Symbol,
		string(rec.Kind), rec.Message,
	)
	return err
}

func (r *SQLiteRecorder) Recent(limit int) ([]SignalRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, request_id, source, symbol, start_date, end_date,
		threshold, predicted_price, signal, as_of
		FROM signal_history ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query signal history: %w", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var (
			rec      SignalRecord
			ts, asOf int64
			signal   string
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.RequestID, &rec.Source, &rec.Symbol,
			&rec.StartDate, &rec.EndDate, &rec.Threshold, &rec.PredictedPrice, &signal, &asOf); err != nil {
			return nil, fmt.Errorf("scan signal history: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		rec.AsOf = time.Unix(asOf, 0).UTC()
		rec.Signal = model.Signal(signal)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
