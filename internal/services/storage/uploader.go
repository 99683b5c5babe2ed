package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/phambaophuc/product-copy-generator/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
)

var ErrStorageDisabled = errors.New("object storage is not configured")

// Upload stores data under a unique key derived from filename and returns the
// key and its public URL.
func (s *StorageService) Upload(ctx context.Context, data []byte, folder, filename, contentType string) (string, string, error) {
	if !s.ArchiveEnabled() {
		return "", "", ErrStorageDisabled
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	key := utils.GenerateStorageKey(folder, filename)
	upsert := false

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return key, publicURL.SignedURL, nil
}

// Delete removes files from Supabase Storage
func (s *StorageService) Delete(ctx context.Context, paths ...string) error {
	if !s.ArchiveEnabled() {
		return ErrStorageDisabled
	}
	_, err := s.sbClient.RemoveFile(s.bucket, paths)
	return err
}
