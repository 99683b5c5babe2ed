package gemini

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phambaophuc/product-copy-generator/internal/failure"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/prompt"
)

// RelayClient sends generation requests through a server-side relay that
// holds the API key. The relay rebuilds the prompt from the config.
type RelayClient struct {
	http  *resty.Client
	url   string
	token string
}

func NewRelayClient(relayURL, token string, timeout time.Duration) *RelayClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &RelayClient{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Content-Type", jsonMIMEType),
		url:   relayURL,
		token: token,
	}
}

func (c *RelayClient) Model() string {
	return "relay"
}

func (c *RelayClient) Generate(ctx context.Context, images []models.EncodedImage, p prompt.Prompt) (*models.RawResponse, error) {
	body := models.RelayRequest{Config: p.Config}
	for _, img := range images {
		body.Images = append(body.Images, models.RelayImage{MIMEType: img.MIMEType, Data: img.Data})
	}

	req := c.http.R().SetContext(ctx).SetBody(body)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}

	resp, err := req.Post(c.url)
	if err != nil {
		return nil, &failure.TransportError{Err: err}
	}

	var env models.RelayEnvelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if !resp.IsSuccess() {
		if decodeErr == nil && env.Error != nil {
			if env.Error.Response != nil {
				return env.Error.Response, nil
			}
			return nil, &failure.TransportError{StatusCode: resp.StatusCode(), Body: env.Error.Message}
		}
		return nil, &failure.TransportError{
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(resp.String()),
		}
	}

	if decodeErr != nil || env.Data == nil || env.Data.Response == nil {
		return nil, &failure.TransportError{
			StatusCode: resp.StatusCode(),
			Body:       "relay response carries no generation envelope",
			Err:        decodeErr,
		}
	}

	return env.Data.Response, nil
}
