package queue

import (
	"context"

	"github.com/phambaophuc/product-copy-generator/internal/models"
)

// ImageSource fetches archived upload bytes by storage path.
type ImageSource interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

type JobStore interface {
	SaveJob(ctx context.Context, job *models.GenerationJob) error
}

type BatchRunner interface {
	RunBatch(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.BatchResult, error)
}
