package storage

import (
	"context"
	"fmt"
)

func (s *StorageService) Download(ctx context.Context, path string) ([]byte, error) {
	if !s.ArchiveEnabled() {
		return nil, ErrStorageDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.sbClient.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", path, err)
	}
	return data, nil
}
