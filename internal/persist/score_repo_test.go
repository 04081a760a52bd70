package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/config"
)

// openTestDB connects to BRICKWORLD_TEST_DSN, skipping when it is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("BRICKWORLD_TEST_DSN")
	if dsn == "" {
		t.Skip("BRICKWORLD_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewDB(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, RunMigrations(ctx, db.Pool))
	return db
}

func TestMigrationsApplied(t *testing.T) {
	db := openTestDB(t)
	v, err := SchemaVersion(context.Background(), db.Pool)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, int64(1))
}

func TestScoreRepoRecordAndTop(t *testing.T) {
	db := openTestDB(t)
	repo := NewScoreRepo(db)
	ctx := context.Background()

	level := "test-" + ulid.Make().String()
	runA, runB := ulid.Make().String(), ulid.Make().String()

	require.NoError(t, repo.Record(ctx, ScoreRow{RunID: runA, Player: "ann", Level: level, Score: 10, Outcome: OutcomeComplete}))
	require.NoError(t, repo.Record(ctx, ScoreRow{RunID: runB, Player: "bob", Level: level, Score: 30, Outcome: OutcomeComplete}))
	require.NoError(t, repo.Record(ctx, ScoreRow{RunID: runB, Player: "bob", Level: level, Score: 99, Outcome: OutcomeDied}))

	top, err := repo.Top(ctx, level, 10)
	require.NoError(t, err)
	require.Len(t, top, 2, "deaths are not ranked")
	assert.Equal(t, "bob", top[0].Player)
	assert.Equal(t, 30, top[0].Score)
	assert.Equal(t, "ann", top[1].Player)

	levels, err := repo.Levels(ctx)
	require.NoError(t, err)
	assert.Contains(t, levels, level)
}
