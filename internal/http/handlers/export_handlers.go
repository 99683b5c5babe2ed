package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/export"
	"go.uber.org/zap"
)

const archiveURLHeader = "X-Archive-URL"

// Export renders a batch result or a single product as a downloadable JSON
// document. A body with a "products" array is treated as a batch.
func (h *Handler) Export(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "failed to read body")
		return
	}

	doc, err := buildExport(body)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if h.archive != nil && h.archive.ArchiveEnabled() {
		url, err := export.Archive(c.Request.Context(), h.archive, doc)
		if err != nil {
			h.logger.Warn("Failed to archive export", zap.String("filename", doc.Filename), zap.Error(err))
		} else {
			c.Header(archiveURLHeader, url)
		}
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc.Data)
}

func buildExport(body []byte) (*export.Document, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %v", err)
	}

	if _, ok := probe["products"]; ok {
		var result models.BatchResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("invalid batch result: %v", err)
		}
		return export.Batch(&result)
	}

	var product models.GeneratedProduct
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("invalid product: %v", err)
	}
	if product.ProductName == "" {
		return nil, fmt.Errorf("body is neither a batch result nor a product")
	}
	return export.Product(&product)
}
