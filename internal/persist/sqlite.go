package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ScoreStore is the score backend the session and the command use.
type ScoreStore interface {
	Record(ctx context.Context, s ScoreRow) error
	Top(ctx context.Context, level string, limit int) ([]ScoreRow, error)
	Levels(ctx context.Context) ([]string, error)
}

var (
	_ ScoreStore = (*ScoreRepo)(nil)
	_ ScoreStore = (*SQLiteScores)(nil)
)

// SQLiteScores keeps scores in a local SQLite file, for runs without a
// PostgreSQL server.
type SQLiteScores struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the score file at path.
func OpenSQLite(path string) (*SQLiteScores, error) {
	if path == "" {
		return nil, fmt.Errorf("empty score db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open score db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS runs (
			run_id     TEXT PRIMARY KEY,
			player     TEXT NOT NULL,
			last_level TEXT NOT NULL,
			best_score INTEGER NOT NULL DEFAULT 0,
			finished   INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS scores (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES runs(run_id),
			player      TEXT NOT NULL,
			level       TEXT NOT NULL,
			score       INTEGER NOT NULL,
			outcome     TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS scores_level_idx ON scores(level, outcome, score DESC);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init score db: %w", err)
		}
	}
	return &SQLiteScores{db: db}, nil
}

func (s *SQLiteScores) Close() error { return s.db.Close() }

// Record stores one level result and updates the run summary in a single
// transaction.
func (s *SQLiteScores) Record(ctx context.Context, row ScoreRow) error {
	at := row.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}
	stamp := at.UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("score begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, player, last_level, best_score, finished, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id) DO UPDATE SET
		     last_level = excluded.last_level,
		     best_score = MAX(runs.best_score, excluded.best_score),
		     finished   = runs.finished OR excluded.finished,
		     updated_at = excluded.updated_at`,
		row.RunID, row.Player, row.Level, row.Score, row.Finished, stamp,
	); err != nil {
		return fmt.Errorf("score upsert run %s: %w", row.RunID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scores (run_id, player, level, score, outcome, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Player, row.Level, row.Score, string(row.Outcome), stamp,
	); err != nil {
		return fmt.Errorf("score insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("score commit: %w", err)
	}
	return nil
}

// Top returns the best completed results for a level, highest first.
func (s *SQLiteScores) Top(ctx context.Context, level string, limit int) ([]ScoreRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, player, level, score, outcome, recorded_at
		 FROM scores
		 WHERE level = ? AND outcome = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`, level, string(OutcomeComplete), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var r ScoreRow
		var outcome, stamp string
		if err := rows.Scan(&r.RunID, &r.Player, &r.Level, &r.Score, &outcome, &stamp); err != nil {
			return nil, err
		}
		r.Outcome = Outcome(outcome)
		if r.RecordedAt, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
			return nil, fmt.Errorf("score %s recorded_at: %w", r.RunID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Levels returns every level with at least one completed result.
func (s *SQLiteScores) Levels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT level FROM scores WHERE outcome = ? ORDER BY level`, string(OutcomeComplete))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var lv string
		if err := rows.Scan(&lv); err != nil {
			return nil, err
		}
		out = append(out, lv)
	}
	return out, rows.Err()
}

// RunFinished reports whether a run reached its last level.
func (s *SQLiteScores) RunFinished(ctx context.Context, runID string) (bool, error) {
	var finished bool
	err := s.db.QueryRowContext(ctx, `SELECT finished FROM runs WHERE run_id = ?`, runID).Scan(&finished)
	if err != nil {
		return false, fmt.Errorf("run %s: %w", runID, err)
	}
	return finished, nil
}
