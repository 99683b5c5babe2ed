package repository

import (
	"context"
	"time"

	"github.com/phambaophuc/product-copy-generator/internal/models"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type RunRepository interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	// Record satisfies the orchestrator's recorder contract.
	Record(ctx context.Context, run *models.GenerationRun) error
	List(ctx context.Context, filter RunFilter) ([]models.GenerationRun, error)
	Stats(ctx context.Context, since time.Time) (*RunStats, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunFilter narrows List. Zero values match everything.
type RunFilter struct {
	Mode   string
	Status string
	Since  time.Time
	Limit  int
}

type RunStats struct {
	TotalRuns         int64            `json:"total_runs"`
	SuccessCount      int64            `json:"success_count"`
	FailedCount       int64            `json:"failed_count"`
	CachedCount       int64            `json:"cached_count"`
	RetriedCount      int64            `json:"retried_count"`
	TotalInputTokens  int64            `json:"total_input_tokens"`
	TotalOutputTokens int64            `json:"total_output_tokens"`
	AvgDurationMs     float64          `json:"avg_duration_ms"`
	ByErrorKind       map[string]int64 `json:"by_error_kind" gorm:"-"`
}

type runRepo struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *models.GenerationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepo) Record(ctx context.Context, run *models.GenerationRun) error {
	return r.Create(ctx, run)
}

func (r *runRepo) List(ctx context.Context, filter RunFilter) ([]models.GenerationRun, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := r.db.WithContext(ctx).Model(&models.GenerationRun{})
	if filter.Mode != "" {
		query = query.Where("mode = ?", filter.Mode)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}

	var runs []models.GenerationRun
	err := query.Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

func (r *runRepo) Stats(ctx context.Context, since time.Time) (*RunStats, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.GenerationRun{})
		if !since.IsZero() {
			query = query.Where("created_at >= ?", since)
		}
		return query
	}

	var stats RunStats
	err := base().Select(`
		COUNT(*) as total_runs,
		COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as success_count,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed_count,
		COALESCE(SUM(CASE WHEN status = 'cached' THEN 1 ELSE 0 END), 0) as cached_count,
		COALESCE(SUM(CASE WHEN attempt > 1 THEN 1 ELSE 0 END), 0) as retried_count,
		COALESCE(SUM(input_tokens), 0) as total_input_tokens,
		COALESCE(SUM(output_tokens), 0) as total_output_tokens,
		COALESCE(AVG(duration_ms), 0) as avg_duration_ms
	`).Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	var kinds []struct {
		ErrorKind string
		Count     int64
	}
	err = base().
		Select("error_kind, COUNT(*) as count").
		Where("error_kind <> ''").
		Group("error_kind").
		Scan(&kinds).Error
	if err != nil {
		return nil, err
	}

	stats.ByErrorKind = make(map[string]int64, len(kinds))
	for _, k := range kinds {
		stats.ByErrorKind[k.ErrorKind] = k.Count
	}

	return &stats, nil
}

func (r *runRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.GenerationRun{})
	return result.RowsAffected, result.Error
}
