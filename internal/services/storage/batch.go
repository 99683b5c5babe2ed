package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/phambaophuc/product-copy-generator/internal/models"
)

const uploadWorkers = 5

// UploadImages archives images under folder, keeping their order in the
// returned slice. Any failure removes the images already stored.
func (s *StorageService) UploadImages(ctx context.Context, folder string, images []models.UploadedImage) ([]models.StoredImage, error) {
	if len(images) == 0 {
		return []models.StoredImage{}, nil
	}

	stored := make([]models.StoredImage, len(images))
	errs := make([]error, len(images))

	numWorkers := min(uploadWorkers, len(images))
	jobs := make(chan int, len(images))
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				img := images[i]
				key, _, err := s.Upload(ctx, img.Raw, folder, img.Name, img.MIMEType)
				errs[i] = err
				stored[i] = models.StoredImage{
					Path:     key,
					Name:     img.Name,
					MIMEType: img.MIMEType,
					Size:     img.Size(),
				}
			}
		}()
	}

	for i := range images {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	var failed []string
	var uploaded []string
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", images[i].Name, err))
		} else {
			uploaded = append(uploaded, stored[i].Path)
		}
	}

	if len(failed) > 0 {
		if len(uploaded) > 0 {
			_ = s.Delete(context.WithoutCancel(ctx), uploaded...)
		}
		return nil, fmt.Errorf("failed to upload %d images: %s", len(failed), strings.Join(failed, "; "))
	}

	return stored, nil
}
