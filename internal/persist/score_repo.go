package persist

import (
	"context"
	"fmt"
	"time"
)

// Outcome says how a level attempt ended.
type Outcome string

const (
	OutcomeComplete Outcome = "complete" // reached the flag
	OutcomeDied     Outcome = "died"
)

type ScoreRow struct {
	RunID      string
	Player     string
	Level      string
	Score      int
	Outcome    Outcome
	Finished   bool // the run has no further level
	RecordedAt time.Time
}

type ScoreRepo struct {
	db *DB
}

func NewScoreRepo(db *DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

// Record stores one level result and updates the run summary in a single
// transaction.
func (r *ScoreRepo) Record(ctx context.Context, s ScoreRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("score begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO runs (run_id, player, last_level, best_score, finished)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id) DO UPDATE SET
		     last_level = EXCLUDED.last_level,
		     best_score = GREATEST(runs.best_score, EXCLUDED.best_score),
		     finished   = runs.finished OR EXCLUDED.finished,
		     updated_at = now()`,
		s.RunID, s.Player, s.Level, s.Score, s.Finished,
	); err != nil {
		return fmt.Errorf("score upsert run %s: %w", s.RunID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO scores (run_id, player, level, score, outcome)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.RunID, s.Player, s.Level, s.Score, string(s.Outcome),
	); err != nil {
		return fmt.Errorf("score insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("score commit: %w", err)
	}
	return nil
}

// Top returns the best completed results for a level, highest first.
func (r *ScoreRepo) Top(ctx context.Context, level string, limit int) ([]ScoreRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT run_id, player, level, score, outcome, recorded_at
		 FROM scores
		 WHERE level = $1 AND outcome = $2
		 ORDER BY score DESC, recorded_at ASC
		 LIMIT $3`, level, string(OutcomeComplete), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var s ScoreRow
		var outcome string
		if err := rows.Scan(&s.RunID, &s.Player, &s.Level, &s.Score, &outcome, &s.RecordedAt); err != nil {
			return nil, err
		}
		s.Outcome = Outcome(outcome)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Levels returns every level with at least one completed result.
func (r *ScoreRepo) Levels(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT DISTINCT level FROM scores WHERE outcome = $1 ORDER BY level`, string(OutcomeComplete))
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
