package processor

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/phambaophuc/product-copy-generator/internal/failure"
	_ "golang.org/x/image/webp"
)

// Validate checks size and content type and returns the effective MIME type.
func (p *ImageProcessor) Validate(data []byte, declaredType string) (string, error) {
	if len(data) == 0 {
		return "", failure.Precondition("empty file")
	}

	if p.maxFileSize > 0 && int64(len(data)) > p.maxFileSize {
		return "", failure.Precondition("file size %d exceeds maximum allowed size %d", len(data), p.maxFileSize)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		if !strings.HasPrefix(declaredType, "image/") {
			return "", failure.Precondition("unsupported content type %s", mimeType)
		}
		mimeType = declaredType
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", failure.Precondition("invalid image format: %v", err)
	}

	return mimeType, nil
}
