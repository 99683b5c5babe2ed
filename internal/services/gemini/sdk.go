package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/phambaophuc/product-copy-generator/internal/failure"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/processor"
	"github.com/phambaophuc/product-copy-generator/internal/services/prompt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// SDKClient generates through the official Go SDK instead of raw REST.
type SDKClient struct {
	client *genai.Client
	opts   Options
}

func NewSDKClient(ctx context.Context, opts Options) (*SDKClient, error) {
	opts.applyDefaults()

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &SDKClient{client: client, opts: opts}, nil
}

func (c *SDKClient) Model() string {
	return c.opts.Model
}

func (c *SDKClient) Close() error {
	return c.client.Close()
}

func (c *SDKClient) Generate(ctx context.Context, images []models.EncodedImage, p prompt.Prompt) (*models.RawResponse, error) {
	model := c.client.GenerativeModel(c.opts.Model)
	model.SetTemperature(float32(c.opts.Temperature))
	if c.opts.TopK > 0 {
		model.SetTopK(int32(c.opts.TopK))
	}
	if c.opts.TopP > 0 {
		model.SetTopP(float32(c.opts.TopP))
	}
	if c.opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(c.opts.MaxOutputTokens))
	}
	model.ResponseMIMEType = jsonMIMEType
	model.ResponseSchema = toSDKSchema(p.Schema)

	parts := []genai.Part{genai.Text(p.Instruction)}
	for i, img := range images {
		data, err := processor.Decode(img)
		if err != nil {
			return nil, failure.Precondition("image %d: %v", i+1, err)
		}
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, transportError(err)
	}

	return fromSDKResponse(resp), nil
}

func toSDKSchema(s *prompt.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{Required: s.Required}
	switch s.Type {
	case prompt.TypeObject:
		out.Type = genai.TypeObject
	case prompt.TypeArray:
		out.Type = genai.TypeArray
	default:
		out.Type = genai.TypeString
	}

	if s.Items != nil {
		out.Items = toSDKSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSDKSchema(prop)
		}
	}

	return out
}

func fromSDKResponse(resp *genai.GenerateContentResponse) *models.RawResponse {
	out := &models.RawResponse{}
	if resp == nil {
		return out
	}

	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}

		converted := models.Candidate{FinishReason: finishReason(cand.FinishReason)}
		if cand.Content != nil {
			converted.Content = &models.Content{Role: cand.Content.Role}
			for _, p := range cand.Content.Parts {
				if text, ok := p.(genai.Text); ok {
					converted.Content.Parts = append(converted.Content.Parts, models.Part{Text: string(text)})
				}
			}
		}
		out.Candidates = append(out.Candidates, converted)
	}

	if resp.UsageMetadata != nil {
		out.UsageMetadata = &models.UsageMetadata{
			PromptTokenCount:     int(resp.UsageMetadata.PromptTokenCount),
			CandidatesTokenCount: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokenCount:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return out
}

func finishReason(r genai.FinishReason) string {
	switch r {
	case genai.FinishReasonStop:
		return models.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return models.FinishReasonMaxTokens
	case genai.FinishReasonSafety:
		return "SAFETY"
	case genai.FinishReasonRecitation:
		return "RECITATION"
	case genai.FinishReasonUnspecified:
		return ""
	default:
		return "OTHER"
	}
}

func transportError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &failure.TransportError{StatusCode: gErr.Code, Body: gErr.Message, Err: err}
	}

	var aErr *apierror.APIError
	if errors.As(err, &aErr) {
		code := aErr.HTTPCode()
		if code < 0 {
			code = 0
		}
		return &failure.TransportError{StatusCode: code, Body: aErr.Reason(), Err: err}
	}

	return &failure.TransportError{Err: err}
}
