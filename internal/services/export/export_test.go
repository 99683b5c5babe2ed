package export

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	folder   string
	filename string
	data     []byte
}

func (r *recordingUploader) Upload(_ context.Context, data []byte, folder, filename, _ string) (string, string, error) {
	r.folder, r.filename, r.data = folder, filename, data
	return folder + "/" + filename, "https://cdn.example.com/" + filename, nil
}

func TestBatch(t *testing.T) {
	result := models.NewBatchResult(2)
	result.AddSuccess(0, "a.jpg", models.GeneratedProduct{ProductName: "Lamp", KeyFeatures: []string{"x"}, Hashtags: []string{"#y"}})
	result.AddFailure("failed to process image b.jpg")

	doc, err := Batch(result)
	require.NoError(t, err)

	assert.Equal(t, BatchFilename, doc.Filename)
	assert.True(t, strings.HasSuffix(string(doc.Data), "\n"))
	assert.Contains(t, string(doc.Data), "\n  \"products\": [")

	var back models.BatchResult
	require.NoError(t, json.Unmarshal(doc.Data, &back))
	assert.Equal(t, 1, back.SucceededCount)
	assert.Equal(t, "Lamp", back.Products[0].Product.ProductName)
}

func TestProduct(t *testing.T) {
	doc, err := Product(&models.GeneratedProduct{ProductName: "Brass Desk Lamp"})
	require.NoError(t, err)
	assert.Equal(t, "brass-desk-lamp-marketing-content.json", doc.Filename)

	doc, err = Product(&models.GeneratedProduct{})
	require.NoError(t, err)
	assert.Equal(t, "marketing-content.json", doc.Filename)
}

func TestArchive(t *testing.T) {
	uploader := &recordingUploader{}
	doc := &Document{Filename: BatchFilename, Data: []byte("{}\n")}

	url, err := Archive(context.Background(), uploader, doc)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/"+BatchFilename, url)
	assert.Equal(t, "exports", uploader.folder)
	assert.Equal(t, doc.Data, uploader.data)
}
