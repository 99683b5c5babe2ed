package handlers

import (
	"context"
	"time"

	"github.com/phambaophuc/product-copy-generator/internal/config"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/repository"
	"github.com/phambaophuc/product-copy-generator/internal/services/generation"
	"github.com/phambaophuc/product-copy-generator/internal/services/processor"
	"github.com/phambaophuc/product-copy-generator/internal/services/webhook"
	"go.uber.org/zap"
)

const (
	imagesParamKey     = "images"
	webhookURLParamKey = "webhook_url"
	contentParamKey    = "content"
)

type Generator interface {
	RunBatch(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.BatchResult, error)
	RunSingle(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*generation.SingleResult, error)
	RunRelay(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.RawResponse, *models.GeneratedProduct, error)
	Model() string
}

// Archive is the object storage used for job images and exports.
type Archive interface {
	ArchiveEnabled() bool
	Upload(ctx context.Context, data []byte, folder, filename, contentType string) (string, string, error)
	UploadImages(ctx context.Context, folder string, images []models.UploadedImage) ([]models.StoredImage, error)
}

type JobStore interface {
	GetJob(ctx context.Context, id string) (*models.GenerationJob, error)
}

type JobPublisher interface {
	PublishJob(ctx context.Context, job *models.GenerationJob) error
}

type WebhookSender interface {
	SendBatch(ctx context.Context, url string, result *models.BatchResult, images []models.UploadedImage, cfg models.GenerationConfig, apiMode string) (*webhook.Delivery, error)
	SendProduct(ctx context.Context, url string, content interface{}, images []string) (*webhook.Delivery, error)
}

// HealthReporter returns service name -> "healthy" | "not configured" | "unhealthy: ...".
type HealthReporter interface {
	HealthCheck(ctx context.Context) map[string]string
}

type HealthFunc func(ctx context.Context) map[string]string

func (f HealthFunc) HealthCheck(ctx context.Context) map[string]string {
	return f(ctx)
}

// StatsFunc reports runtime statistics for one subsystem.
type StatsFunc func(ctx context.Context) (interface{}, error)

// Options wires the handler. Archive, Jobs, Queue and Runs may be nil; the
// endpoints that need them answer 503.
type Options struct {
	Config    *config.Config
	Generator Generator
	Processor *processor.ImageProcessor
	Archive   Archive
	Jobs      JobStore
	Queue     JobPublisher
	Webhooks  WebhookSender
	Runs      repository.RunRepository
	Health    []HealthReporter
	Stats     map[string]StatsFunc
	Logger    *zap.Logger
}

type Handler struct {
	config    *config.Config
	generator Generator
	processor *processor.ImageProcessor
	archive   Archive
	jobs      JobStore
	queue     JobPublisher
	webhooks  WebhookSender
	runs      repository.RunRepository
	health    []HealthReporter
	stats     map[string]StatsFunc
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Handler{
		config:    opts.Config,
		generator: opts.Generator,
		processor: opts.Processor,
		archive:   opts.Archive,
		jobs:      opts.Jobs,
		queue:     opts.Queue,
		webhooks:  opts.Webhooks,
		runs:      opts.Runs,
		health:    opts.Health,
		stats:     opts.Stats,
		logger:    opts.Logger,
		now:       time.Now,
	}
}
