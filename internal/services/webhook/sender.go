package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/export"
	"github.com/phambaophuc/product-copy-generator/pkg/utils"
	"go.uber.org/zap"
)

const (
	BatchContentField = "all-products-marketing-content.json"
	Source            = "smart-marketing-generator"
	Version           = "1.0.0"
	UserAgent         = "SmartMarketingGenerator/1.0.0"
)

// DeliveryError reports a receiver that answered outside the 2xx range.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook responded with status %d: %s", e.StatusCode, e.Body)
}

// Delivery is what the receiver answered. Data holds decoded JSON when the
// body parsed, otherwise the raw text.
type Delivery struct {
	StatusCode int         `json:"status"`
	Data       interface{} `json:"data"`
}

type ImageInfo struct {
	FileName      string `json:"fileName"`
	MIMEType      string `json:"mimeType"`
	FileSize      int64  `json:"fileSize"`
	SizeFormatted string `json:"sizeFormatted"`
}

type BatchMetadata struct {
	TotalImages          int         `json:"totalImages"`
	GeneratedAt          string      `json:"generatedAt"`
	APIMode              string      `json:"apiMode"`
	DescriptionSentences int         `json:"descriptionSentences"`
	FeaturesCount        int         `json:"featuresCount"`
	HashtagsCount        int         `json:"hashtagsCount"`
	ImageInfo            []ImageInfo `json:"imageInfo"`
}

type batchDocument struct {
	*models.BatchResult
	Metadata BatchMetadata `json:"metadata"`
}

type productPayload struct {
	Content   interface{} `json:"content"`
	Images    []string    `json:"images"`
	Timestamp string      `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
}

type Sender struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewSender(timeout time.Duration, logger *zap.Logger) *Sender {
	return &Sender{
		http:   resty.New().SetTimeout(timeout),
		logger: logger,
	}
}

// SendBatch posts the batch result and the original images as one multipart
// form.
func (s *Sender) SendBatch(
	ctx context.Context,
	webhookURL string,
	result *models.BatchResult,
	images []models.UploadedImage,
	cfg models.GenerationConfig,
	apiMode string,
) (*Delivery, error) {
	if err := ValidateURL(webhookURL); err != nil {
		return nil, err
	}

	doc, err := export.Marshal(batchDocument{
		BatchResult: result,
		Metadata:    buildMetadata(images, cfg, apiMode),
	})
	if err != nil {
		return nil, err
	}

	req := s.http.R().
		SetContext(ctx).
		SetMultipartField(BatchContentField, BatchContentField, "application/json", bytes.NewReader(doc))

	for i, img := range images {
		req.SetMultipartField(fmt.Sprintf("image_%d", i+1), img.Name, img.MIMEType, bytes.NewReader(img.Raw))
	}

	resp, err := req.Post(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to send webhook: %w", err)
	}

	s.logger.Info("Batch webhook delivered",
		zap.String("host", hostOf(webhookURL)),
		zap.Int("status", resp.StatusCode()),
		zap.Int("products", result.SucceededCount),
		zap.Int("images", len(images)))

	return delivery(resp)
}

// SendProduct posts one product as JSON with base64 images inline.
func (s *Sender) SendProduct(ctx context.Context, webhookURL string, content interface{}, images []string) (*Delivery, error) {
	if err := ValidateURL(webhookURL); err != nil {
		return nil, err
	}
	if images == nil {
		images = []string{}
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", UserAgent).
		SetBody(productPayload{
			Content:   content,
			Images:    images,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Source:    Source,
			Version:   Version,
		}).
		Post(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to send webhook: %w", err)
	}

	s.logger.Info("Product webhook delivered",
		zap.String("host", hostOf(webhookURL)),
		zap.Int("status", resp.StatusCode()),
		zap.Int("images", len(images)))

	return delivery(resp)
}

func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid webhook URL %q", raw)
	}
	return nil
}

func buildMetadata(images []models.UploadedImage, cfg models.GenerationConfig, apiMode string) BatchMetadata {
	info := make([]ImageInfo, 0, len(images))
	for _, img := range images {
		info = append(info, ImageInfo{
			FileName:      img.Name,
			MIMEType:      img.MIMEType,
			FileSize:      img.Size(),
			SizeFormatted: utils.FormatSize(img.Size()),
		})
	}

	return BatchMetadata{
		TotalImages:          len(images),
		GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
		APIMode:              apiMode,
		DescriptionSentences: cfg.DescriptionSentences,
		FeaturesCount:        cfg.FeaturesCount,
		HashtagsCount:        cfg.HashtagsCount,
		ImageInfo:            info,
	}
}

func delivery(resp *resty.Response) (*Delivery, error) {
	body := strings.TrimSpace(resp.String())
	if !resp.IsSuccess() {
		return nil, &DeliveryError{StatusCode: resp.StatusCode(), Body: body}
	}

	var data interface{} = body
	var parsed interface{}
	if err := json.Unmarshal(resp.Body(), &parsed); err == nil {
		data = parsed
	}

	return &Delivery{StatusCode: resp.StatusCode(), Data: data}, nil
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Host
	}
	return ""
}
