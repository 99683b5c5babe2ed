package storage

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/redis/go-redis/v9"
)

const CacheKeyPrefix = "copy_cache:"

func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

// Lookup returns the cached product for images and cfg, or nil on a miss.
func (s *StorageService) Lookup(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.GeneratedProduct, error) {
	data, err := s.GetFromCache(ctx, GenerateCacheKey(images, cfg))
	if err != nil || data == nil {
		return nil, err
	}

	var product models.GeneratedProduct
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached product: %w", err)
	}
	return &product, nil
}

func (s *StorageService) Store(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig, product *models.GeneratedProduct) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}
	return s.SetCache(ctx, GenerateCacheKey(images, cfg), data)
}

// GenerateCacheKey hashes the image bytes and the clamped config, so the same
// photo under different settings gets a different entry.
func GenerateCacheKey(images []models.UploadedImage, cfg models.GenerationConfig) string {
	cfg = cfg.Clamp()
	hash := sha256.New()

	for _, img := range images {
		fmt.Fprintf(hash, "%s:%d:", img.MIMEType, len(img.Raw))
		hash.Write(img.Raw)
	}

	fmt.Fprintf(hash, "features_%d_hashtags_%d_sentences_%d_lang_%s",
		cfg.FeaturesCount, cfg.HashtagsCount, cfg.DescriptionSentences, cfg.Language)

	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash.Sum(nil))
}

// CleanupCache removes cache keys that have lost their expiry.
func (s *StorageService) CleanupCache(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := s.redisClient.Scan(ctx, cursor, CacheKeyPrefix+"*", 100).Result()
		if err != nil {
			return removed, err
		}

		for _, key := range keys {
			ttl, err := s.redisClient.TTL(ctx, key).Result()
			if err != nil {
				return removed, err
			}
			if ttl < 0 {
				if err := s.redisClient.Del(ctx, key).Err(); err != nil {
					return removed, err
				}
				removed++
			}
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"db_keys":        dbSize,
		"cache_duration": s.cacheDuration.String(),
	}

	return stats, nil
}
