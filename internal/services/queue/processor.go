package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/processor"
)

func (q *QueueService) processJob(ctx context.Context, job *models.GenerationJob) (*models.BatchResult, error) {
	images := make([]models.UploadedImage, 0, len(job.Images))
	for _, stored := range job.Images {
		data, err := q.images.Download(ctx, stored.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to download image %s: %w", stored.Name, err)
		}
		images = append(images, processor.NewUploadedImage(stored.Name, stored.MIMEType, data))
	}

	return q.runner.RunBatch(ctx, images, job.Config)
}
