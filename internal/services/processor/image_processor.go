package processor

import (
	"github.com/phambaophuc/product-copy-generator/internal/models"
)

const defaultQuality = 85

type ImageProcessor struct {
	maxFileSize  int64
	maxDimension int
}

// NewImageProcessor returns a processor that rejects files above maxFileSize
// and downscales images whose longest side exceeds maxDimension. A zero
// maxDimension disables downscaling.
func NewImageProcessor(maxFileSize int64, maxDimension int) *ImageProcessor {
	return &ImageProcessor{
		maxFileSize:  maxFileSize,
		maxDimension: maxDimension,
	}
}

// Load validates raw upload bytes, optionally downscales them and returns the
// immutable image the generation pipeline works on.
func (p *ImageProcessor) Load(name, declaredType string, data []byte) (models.UploadedImage, error) {
	mimeType, err := p.Validate(data, declaredType)
	if err != nil {
		return models.UploadedImage{}, err
	}

	prepared, preparedType, err := p.Prepare(data, mimeType)
	if err != nil {
		return models.UploadedImage{}, err
	}

	return NewUploadedImage(name, preparedType, prepared), nil
}

func NewUploadedImage(name, mimeType string, raw []byte) models.UploadedImage {
	return models.UploadedImage{
		Name:     name,
		MIMEType: mimeType,
		Raw:      raw,
		Encoded:  Encode(raw, mimeType),
	}
}
