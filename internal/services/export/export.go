package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/pkg/utils"
)

const (
	BatchFilename    = "multiple-products-marketing-content.json"
	fallbackFilename = "marketing-content.json"
	archiveFolder    = "exports"
	contentType      = "application/json"
)

type Uploader interface {
	Upload(ctx context.Context, data []byte, folder, filename, contentType string) (key string, url string, err error)
}

// Marshal renders v as two-space indented JSON with a trailing newline.
func Marshal(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

// ProductFilename names a single-product export after the product.
func ProductFilename(productName string) string {
	slug := utils.Slugify(productName)
	if slug == "" {
		return fallbackFilename
	}
	return slug + "-marketing-content.json"
}

type Document struct {
	Filename string
	Data     []byte
}

func Batch(result *models.BatchResult) (*Document, error) {
	data, err := Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Document{Filename: BatchFilename, Data: data}, nil
}

func Product(product *models.GeneratedProduct) (*Document, error) {
	data, err := Marshal(product)
	if err != nil {
		return nil, err
	}
	return &Document{Filename: ProductFilename(product.ProductName), Data: data}, nil
}

// Archive stores the document and returns its public URL.
func Archive(ctx context.Context, uploader Uploader, doc *Document) (string, error) {
	_, url, err := uploader.Upload(ctx, doc.Data, archiveFolder, doc.Filename, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", doc.Filename, err)
	}
	return url, nil
}
