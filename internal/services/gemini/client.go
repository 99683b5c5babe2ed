package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phambaophuc/product-copy-generator/internal/failure"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/prompt"
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com"
	defaultAPIVersion = "v1beta"
	defaultModel      = "gemini-2.5-flash"
	defaultTimeout    = 90 * time.Second
	jsonMIMEType      = "application/json"
	userAgent         = "product-copy-generator/1.0"
)

type Options struct {
	APIKey          string
	BaseURL         string
	APIVersion      string
	Model           string
	Timeout         time.Duration
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.APIVersion == "" {
		o.APIVersion = defaultAPIVersion
	}
	if o.Model == "" {
		o.Model = defaultModel
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
}

// Client calls generateContent over REST. Each Generate call issues exactly
// one request.
type Client struct {
	http *resty.Client
	opts Options
}

func New(opts Options) *Client {
	opts.applyDefaults()

	http := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", jsonMIMEType)

	return &Client{http: http, opts: opts}
}

func (c *Client) Model() string {
	return c.opts.Model
}

func (c *Client) Generate(ctx context.Context, images []models.EncodedImage, p prompt.Prompt) (*models.RawResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.opts.APIKey).
		SetBody(c.buildRequest(images, p)).
		Post(c.endpoint())
	if err != nil {
		return nil, &failure.TransportError{Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &failure.TransportError{
			StatusCode: resp.StatusCode(),
			Body:       errorMessage(resp.Body()),
		}
	}

	var out models.RawResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &failure.TransportError{
			StatusCode: resp.StatusCode(),
			Body:       "undecodable response envelope",
			Err:        err,
		}
	}

	return &out, nil
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent",
		strings.TrimRight(c.opts.BaseURL, "/"), c.opts.APIVersion, url.PathEscape(c.opts.Model))
}

func (c *Client) buildRequest(images []models.EncodedImage, p prompt.Prompt) generateRequest {
	parts := make([]part, 0, len(images)+1)
	parts = append(parts, part{Text: p.Instruction})
	for _, img := range images {
		parts = append(parts, part{InlineData: &blob{MIMEType: img.MIMEType, Data: img.Data}})
	}

	return generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature:      c.opts.Temperature,
			TopK:             c.opts.TopK,
			TopP:             c.opts.TopP,
			MaxOutputTokens:  c.opts.MaxOutputTokens,
			ResponseMIMEType: jsonMIMEType,
			ResponseSchema:   p.Schema,
		},
	}
}

// errorMessage prefers the message of a Google error envelope and falls back
// to the raw body.
func errorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(body))
}
