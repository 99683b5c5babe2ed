package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phambaophuc/product-copy-generator/internal/failure"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/prompt"
	"github.com/phambaophuc/product-copy-generator/pkg/utils"
	"go.uber.org/zap"
)

// Generator issues one generation request per call.
type Generator interface {
	Generate(ctx context.Context, images []models.EncodedImage, p prompt.Prompt) (*models.RawResponse, error)
}

// ResultCache stores products keyed by the images and config that produced
// them. Lookup returns nil, nil on a miss.
type ResultCache interface {
	Lookup(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.GeneratedProduct, error)
	Store(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig, product *models.GeneratedProduct) error
}

type RunRecorder interface {
	Record(ctx context.Context, run *models.GenerationRun) error
}

type Options struct {
	Builder   *prompt.Builder
	Extractor *Extractor
	Cache     ResultCache
	Recorder  RunRecorder
	Logger    *zap.Logger
}

type Orchestrator struct {
	generator Generator
	builder   *prompt.Builder
	extractor *Extractor
	cache     ResultCache
	recorder  RunRecorder
	logger    *zap.Logger
	model     string
}

func NewOrchestrator(generator Generator, opts Options) *Orchestrator {
	if opts.Builder == nil {
		opts.Builder = prompt.NewBuilder()
	}
	if opts.Extractor == nil {
		opts.Extractor = NewExtractor()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	model := "unknown"
	if named, ok := generator.(interface{ Model() string }); ok {
		model = named.Model()
	}

	return &Orchestrator{
		generator: generator,
		builder:   opts.Builder,
		extractor: opts.Extractor,
		cache:     opts.Cache,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		model:     model,
	}
}

func (o *Orchestrator) Model() string {
	return o.model
}

// RunBatch processes images one at a time in submission order. A failed image
// is recorded in the result and never stops the loop. The context is checked
// between images; on cancellation the remaining images are counted as failed
// and the context error is returned with the partial result.
func (o *Orchestrator) RunBatch(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.BatchResult, error) {
	if len(images) == 0 {
		return nil, failure.Precondition("no images provided")
	}

	cfg = cfg.Clamp()
	result := models.NewBatchResult(len(images))

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			for _, skipped := range images[i:] {
				result.AddFailure(imageFailure(skipped.Name, err))
			}
			o.logger.Warn("Batch canceled",
				zap.Int("processed", i),
				zap.Int("total", len(images)),
				zap.Error(err))
			return result, err
		}

		o.logger.Info("Processing image",
			zap.Int("index", i+1),
			zap.Int("total", len(images)),
			zap.String("image", img.Name))

		product, err := o.attempt(ctx, models.RunModeBatch, 1, []models.UploadedImage{img}, cfg)
		if err != nil {
			o.logger.Warn("Image processing failed",
				zap.String("image", img.Name),
				zap.String("kind", string(failure.KindOf(err))),
				zap.Error(err))
			result.AddFailure(imageFailure(img.Name, err))
			continue
		}

		result.AddSuccess(i, img.Name, *product)
	}

	o.logger.Info("Batch finished",
		zap.String("outcome", result.Outcome()),
		zap.Int("succeeded", result.SucceededCount),
		zap.Int("failed", result.FailedCount))

	return result, nil
}

type SingleResult struct {
	Product    *models.GeneratedProduct `json:"product"`
	Attempts   int                      `json:"attempts"`
	Retried    bool                     `json:"retried"`
	ImagesUsed int                      `json:"imagesUsed"`
	Config     models.GenerationConfig  `json:"config"`
}

// RunError is the terminal error of a single run.
type RunError struct {
	Err                 error
	Attempts            int
	Retried             bool
	TruncationSuspected bool
}

func (e *RunError) Error() string {
	var sb strings.Builder
	sb.WriteString("content generation failed: ")
	sb.WriteString(e.Err.Error())
	if e.Retried {
		sb.WriteString(" (an automatic retry with reduced settings also failed)")
	}
	if e.TruncationSuspected {
		sb.WriteString("; the response appears to have been truncated, try fewer images or smaller counts")
	}
	return sb.String()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// RunSingle sends all images in one request. When that attempt fails with a
// retryable error it makes exactly one more attempt with the first image only
// and the reduced config. The second failure is terminal.
func (o *Orchestrator) RunSingle(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*SingleResult, error) {
	if len(images) == 0 {
		return nil, &RunError{Err: failure.Precondition("no images provided")}
	}

	cfg = cfg.Clamp()

	product, err := o.attempt(ctx, models.RunModeSingle, 1, images, cfg)
	if err == nil {
		return &SingleResult{Product: product, Attempts: 1, ImagesUsed: len(images), Config: cfg}, nil
	}

	if !failure.Retryable(err) {
		return nil, &RunError{
			Err:                 err,
			Attempts:            1,
			TruncationSuspected: failure.TruncationSuspected(err),
		}
	}

	reduced := cfg.Reduced()
	o.logger.Warn("First attempt failed, retrying with reduced settings",
		zap.Error(err),
		zap.Int("features", reduced.FeaturesCount),
		zap.Int("hashtags", reduced.HashtagsCount),
		zap.Int("sentences", reduced.DescriptionSentences),
		zap.Int("dropped_images", len(images)-1))

	product, retryErr := o.attempt(ctx, models.RunModeSingle, 2, images[:1], reduced)
	if retryErr == nil {
		return &SingleResult{Product: product, Attempts: 2, Retried: true, ImagesUsed: 1, Config: reduced}, nil
	}

	return nil, &RunError{
		Err:                 retryErr,
		Attempts:            2,
		Retried:             true,
		TruncationSuspected: failure.TruncationSuspected(err) || failure.TruncationSuspected(retryErr),
	}
}

// RunRelay makes one uncached attempt and returns the raw envelope alongside
// the extracted product, so a relay can forward both. resp is non-nil
// whenever the generator answered, even when extraction failed.
func (o *Orchestrator) RunRelay(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) (*models.RawResponse, *models.GeneratedProduct, error) {
	if len(images) == 0 {
		return nil, nil, failure.Precondition("no images provided")
	}

	start := time.Now()
	cfg = cfg.Clamp()
	run := &models.GenerationRun{
		Mode:       models.RunModeRelay,
		Attempt:    1,
		ImageNames: imageNames(images),
		ImageCount: len(images),
		Model:      o.model,
	}

	resp, err := o.generator.Generate(ctx, encodedImages(images), o.builder.Build(cfg))

	var product *models.GeneratedProduct
	if err == nil {
		product, err = o.extractor.Extract(resp)
	}
	o.finishRun(ctx, run, resp, err, start)

	return resp, product, err
}

func (o *Orchestrator) attempt(
	ctx context.Context,
	mode string,
	attempt int,
	images []models.UploadedImage,
	cfg models.GenerationConfig,
) (*models.GeneratedProduct, error) {
	start := time.Now()
	run := &models.GenerationRun{
		Mode:       mode,
		Attempt:    attempt,
		ImageNames: imageNames(images),
		ImageCount: len(images),
		Model:      o.model,
	}

	if cached := o.lookup(ctx, images, cfg); cached != nil {
		run.Status = models.RunStatusCached
		run.DurationMs = time.Since(start).Milliseconds()
		o.record(ctx, run)
		return cached, nil
	}

	resp, err := o.generator.Generate(ctx, encodedImages(images), o.builder.Build(cfg))

	var product *models.GeneratedProduct
	if err == nil {
		product, err = o.extractor.Extract(resp)
	}
	if err == nil {
		o.store(ctx, images, cfg, product)
	}
	o.finishRun(ctx, run, resp, err, start)

	return product, err
}

func (o *Orchestrator) finishRun(ctx context.Context, run *models.GenerationRun, resp *models.RawResponse, err error, start time.Time) {
	if c := resp.FirstCandidate(); c != nil {
		run.FinishReason = c.FinishReason
	}
	if resp != nil && resp.UsageMetadata != nil {
		run.InputTokens = resp.UsageMetadata.PromptTokenCount
		run.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}

	run.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorKind = string(failure.KindOf(err))
		run.ErrorMsg = utils.TruncateUTF8(err.Error(), 1024)
	} else {
		run.Status = models.RunStatusSuccess
	}

	o.record(ctx, run)
}

func (o *Orchestrator) lookup(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig) *models.GeneratedProduct {
	if o.cache == nil {
		return nil
	}

	product, err := o.cache.Lookup(ctx, images, cfg)
	if err != nil {
		o.logger.Warn("Cache lookup failed", zap.Error(err))
		return nil
	}
	if product != nil {
		o.logger.Info("Cache hit", zap.String("images", imageNames(images)))
	}
	return product
}

func (o *Orchestrator) store(ctx context.Context, images []models.UploadedImage, cfg models.GenerationConfig, product *models.GeneratedProduct) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Store(ctx, images, cfg, product); err != nil {
		o.logger.Warn("Failed to cache result", zap.Error(err))
	}
}

func (o *Orchestrator) record(ctx context.Context, run *models.GenerationRun) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		o.logger.Warn("Failed to record generation run", zap.Error(err))
	}
}

func encodedImages(images []models.UploadedImage) []models.EncodedImage {
	encoded := make([]models.EncodedImage, 0, len(images))
	for _, img := range images {
		encoded = append(encoded, img.Encoded)
	}
	return encoded
}

func imageNames(images []models.UploadedImage) string {
	names := make([]string, 0, len(images))
	for _, img := range images {
		names = append(names, img.Name)
	}
	return utils.TruncateUTF8(strings.Join(names, ","), 1024)
}

func imageFailure(name string, err error) string {
	return fmt.Sprintf("failed to process image %s: %v", name, err)
}
