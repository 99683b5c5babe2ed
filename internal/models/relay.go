package models

const (
	RelayCodeImageProcessing = "IMAGE_PROCESSING_FAILED"
	RelayCodeWebhookSend     = "WEBHOOK_SEND_FAILED"
)

// RelayRequest is the body accepted by the server-side generation relay.
type RelayRequest struct {
	Images []RelayImage     `json:"images" binding:"required,min=1"`
	Config GenerationConfig `json:"config"`
}

// RelayImage accepts either data or base64Data for the payload.
type RelayImage struct {
	MIMEType   string `json:"mimeType"`
	Data       string `json:"data,omitempty"`
	Base64Data string `json:"base64Data,omitempty"`
}

func (i RelayImage) Payload() string {
	if i.Base64Data != "" {
		return i.Base64Data
	}
	return i.Data
}

type RelayEnvelope struct {
	Data  *RelayData  `json:"data,omitempty"`
	Error *RelayError `json:"error,omitempty"`
}

type RelayData struct {
	Success        bool              `json:"success"`
	Content        *GeneratedProduct `json:"content,omitempty"`
	Response       *RawResponse      `json:"response,omitempty"`
	Timestamp      string            `json:"timestamp"`
	ProcessingInfo ProcessingInfo    `json:"processing_info"`
}

type ProcessingInfo struct {
	ImagesCount int    `json:"images_count"`
	ModelUsed   string `json:"model_used"`
}

// RelayError carries the upstream envelope when one was received so the
// caller can classify the failure itself.
type RelayError struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Timestamp string       `json:"timestamp"`
	Response  *RawResponse `json:"response,omitempty"`
}

// WebhookRequest is the body of the single-product webhook relay.
type WebhookRequest struct {
	WebhookURL string                 `json:"webhookUrl"`
	Content    map[string]interface{} `json:"content"`
	Images     []string               `json:"images"`
}

type WebhookEnvelope struct {
	Data  *WebhookData `json:"data,omitempty"`
	Error *RelayError  `json:"error,omitempty"`
}

type WebhookData struct {
	Success     bool            `json:"success"`
	WebhookURL  string          `json:"webhook_url"`
	SentAt      string          `json:"sent_at"`
	Response    WebhookResponse `json:"response"`
	PayloadSent PayloadSummary  `json:"payload_sent"`
}

type WebhookResponse struct {
	Status int         `json:"status"`
	Data   interface{} `json:"data"`
}

type PayloadSummary struct {
	ContentFields []string `json:"content_fields"`
	ImagesCount   int      `json:"images_count"`
}
