package processor

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Prepare shrinks images larger than the configured dimension. Images that
// already fit, and animated GIFs, are returned untouched.
func (p *ImageProcessor) Prepare(data []byte, mimeType string) ([]byte, string, error) {
	if p.maxDimension <= 0 || mimeType == "image/gif" {
		return data, mimeType, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= p.maxDimension && bounds.Dy() <= p.maxDimension {
		return data, mimeType, nil
	}

	resized := imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)

	format, outType := imaging.JPEG, "image/jpeg"
	if mimeType == "image/png" {
		format, outType = imaging.PNG, "image/png"
	}

	buffer := &bytes.Buffer{}
	if err := imaging.Encode(buffer, resized, format, imaging.JPEGQuality(defaultQuality)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}

	return buffer.Bytes(), outType, nil
}
