package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/failure"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/processor"
)

// === REQUEST PARSING ===

func (h *Handler) parseMultipartFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("failed to parse form data: %v", err)
	}

	files := form.File[imagesParamKey]
	if len(files) == 0 {
		return nil, fmt.Errorf("no images provided")
	}
	if len(files) > h.config.Storage.MaxFiles {
		return nil, fmt.Errorf("too many images: %d (maximum %d)", len(files), h.config.Storage.MaxFiles)
	}

	return files, nil
}

// parseGenerationConfig reads the optional config form fields over the
// configured defaults. Present but non-numeric counts are rejected; range
// clamping is left to the orchestrator.
func (h *Handler) parseGenerationConfig(c *gin.Context) (models.GenerationConfig, error) {
	cfg := h.defaultGenerationConfig()

	fields := []struct {
		name  string
		value *int
	}{
		{"features_count", &cfg.FeaturesCount},
		{"hashtags_count", &cfg.HashtagsCount},
		{"description_sentences", &cfg.DescriptionSentences},
	}

	for _, f := range fields {
		raw := c.PostForm(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: must be a number", f.name)
		}
		*f.value = n
	}

	if lang := c.PostForm("language"); lang != "" {
		cfg.Language = lang
	}

	return cfg, nil
}

func (h *Handler) defaultGenerationConfig() models.GenerationConfig {
	d := h.config.Generation
	return models.GenerationConfig{
		FeaturesCount:        d.FeaturesCount,
		HashtagsCount:        d.HashtagsCount,
		DescriptionSentences: d.DescriptionSentences,
		Language:             d.Language,
	}
}

// withDefaults fills zero-valued fields of a JSON-supplied config.
func (h *Handler) withDefaults(cfg models.GenerationConfig) models.GenerationConfig {
	d := h.defaultGenerationConfig()
	if cfg.FeaturesCount == 0 {
		cfg.FeaturesCount = d.FeaturesCount
	}
	if cfg.HashtagsCount == 0 {
		cfg.HashtagsCount = d.HashtagsCount
	}
	if cfg.DescriptionSentences == 0 {
		cfg.DescriptionSentences = d.DescriptionSentences
	}
	if cfg.Language == "" {
		cfg.Language = d.Language
	}
	return cfg
}

// === FILE OPERATIONS ===

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// loadImages validates and downscales uploads for generation.
func (h *Handler) loadImages(files []*multipart.FileHeader) ([]models.UploadedImage, error) {
	images := make([]models.UploadedImage, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}

		img, err := h.processor.Load(fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// originalImages validates uploads but keeps their bytes untouched.
func (h *Handler) originalImages(files []*multipart.FileHeader) ([]models.UploadedImage, error) {
	images := make([]models.UploadedImage, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}

		mimeType, err := h.processor.Validate(data, fh.Header.Get("Content-Type"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		images = append(images, processor.NewUploadedImage(fh.Filename, mimeType, data))
	}
	return images, nil
}

// === RESPONSE HANDLING ===

func (h *Handler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *Handler) requireGenerator(c *gin.Context) bool {
	if h.generator == nil || !h.config.GeneratorReady() {
		h.respondError(c, http.StatusServiceUnavailable, "content generation is not configured")
		return false
	}
	return true
}

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch failure.KindOf(err) {
	case failure.KindPrecondition:
		return http.StatusBadRequest
	case failure.KindCanceled:
		return http.StatusRequestTimeout
	case failure.KindTransport:
		var te *failure.TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	case failure.KindExtraction:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// === UTILITY METHODS ===

func (h *Handler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
