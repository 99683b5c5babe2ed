package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/product-copy-generator/internal/models"
)

const jobKeyPrefix = "generation_job:"

var ErrJobNotFound = errors.New("job not found")

func (s *StorageService) SaveJob(ctx context.Context, job *models.GenerationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return s.redisClient.Set(ctx, jobKeyPrefix+job.ID, data, s.cacheDuration).Err()
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.GenerationJob, error) {
	data, err := s.GetFromCache(ctx, jobKeyPrefix+id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrJobNotFound
	}

	var job models.GenerationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}
