package repository

import (
	"context"
	"testing"
	"time"

	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRunTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.GenerationRun{}))
	return db
}

func seedRuns(t *testing.T, repo RunRepository, runs ...models.GenerationRun) {
	ctx := context.Background()
	for i := range runs {
		require.NoError(t, repo.Create(ctx, &runs[i]))
	}
}

func TestRunRepo_CreateAndList(t *testing.T) {
	repo := NewRunRepository(setupRunTestDB(t))
	ctx := context.Background()

	seedRuns(t, repo,
		models.GenerationRun{Mode: models.RunModeBatch, Attempt: 1, Status: models.RunStatusSuccess, ImageNames: "a.png"},
		models.GenerationRun{Mode: models.RunModeSingle, Attempt: 1, Status: models.RunStatusFailed, ErrorKind: "extraction"},
		models.GenerationRun{Mode: models.RunModeSingle, Attempt: 2, Status: models.RunStatusSuccess},
	)

	all, err := repo.List(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].Attempt, "newest first")

	single, err := repo.List(ctx, RunFilter{Mode: models.RunModeSingle})
	require.NoError(t, err)
	assert.Len(t, single, 2)

	failed, err := repo.List(ctx, RunFilter{Status: models.RunStatusFailed, Limit: 10})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "extraction", failed[0].ErrorKind)

	limited, err := repo.List(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunRepo_Stats(t *testing.T) {
	repo := NewRunRepository(setupRunTestDB(t))

	seedRuns(t, repo,
		models.GenerationRun{Mode: models.RunModeBatch, Attempt: 1, Status: models.RunStatusSuccess, InputTokens: 100, OutputTokens: 40, DurationMs: 1000},
		models.GenerationRun{Mode: models.RunModeBatch, Attempt: 1, Status: models.RunStatusFailed, ErrorKind: "extraction", DurationMs: 3000},
		models.GenerationRun{Mode: models.RunModeSingle, Attempt: 2, Status: models.RunStatusFailed, ErrorKind: "extraction", DurationMs: 2000},
		models.GenerationRun{Mode: models.RunModeSingle, Attempt: 1, Status: models.RunStatusFailed, ErrorKind: "transport", DurationMs: 2000},
		models.GenerationRun{Mode: models.RunModeBatch, Attempt: 1, Status: models.RunStatusCached},
	)

	stats, err := repo.Stats(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.EqualValues(t, 5, stats.TotalRuns)
	assert.EqualValues(t, 1, stats.SuccessCount)
	assert.EqualValues(t, 3, stats.FailedCount)
	assert.EqualValues(t, 1, stats.CachedCount)
	assert.EqualValues(t, 1, stats.RetriedCount)
	assert.EqualValues(t, 100, stats.TotalInputTokens)
	assert.EqualValues(t, 40, stats.TotalOutputTokens)
	assert.InDelta(t, 1600, stats.AvgDurationMs, 0.001)
	assert.Equal(t, map[string]int64{"extraction": 2, "transport": 1}, stats.ByErrorKind)
}

func TestRunRepo_StatsEmpty(t *testing.T) {
	repo := NewRunRepository(setupRunTestDB(t))

	stats, err := repo.Stats(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRuns)
	assert.Empty(t, stats.ByErrorKind)
}

func TestRunRepo_DeleteBefore(t *testing.T) {
	repo := NewRunRepository(setupRunTestDB(t))
	ctx := context.Background()
	now := time.Now()

	seedRuns(t, repo,
		models.GenerationRun{Mode: models.RunModeBatch, Status: models.RunStatusSuccess, CreatedAt: now.Add(-48 * time.Hour)},
		models.GenerationRun{Mode: models.RunModeBatch, Status: models.RunStatusSuccess, CreatedAt: now.Add(-47 * time.Hour)},
		models.GenerationRun{Mode: models.RunModeBatch, Status: models.RunStatusSuccess, CreatedAt: now},
	)

	deleted, err := repo.DeleteBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	remaining, err := repo.List(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
