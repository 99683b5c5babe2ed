package processor

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/phambaophuc/product-copy-generator/internal/models"
)

func Encode(raw []byte, mimeType string) models.EncodedImage {
	return models.EncodedImage{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}
}

// Decode accepts plain base64 or a data URI.
func Decode(img models.EncodedImage) ([]byte, error) {
	_, payload := SplitDataURI(img.Data)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return data, nil
}

// SplitDataURI separates "data:<mime>;base64,<payload>". Input without the
// prefix is returned unchanged as the payload.
func SplitDataURI(s string) (mimeType, payload string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}

	comma := strings.Index(s, ",")
	if comma < 0 {
		return "", s
	}

	meta := strings.TrimPrefix(s[:comma], "data:")
	mimeType = strings.TrimSuffix(meta, ";base64")
	return mimeType, s[comma+1:]
}
