package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/models"
)

// multipartOverhead covers boundaries and the non-file form fields.
const multipartOverhead = 1 << 20

// RequestSizeLimit rejects bodies larger than maxFiles uploads of
// maxFileSize each. JSON bodies carry the images base64 encoded and get a
// limit scaled by 4/3. Declared lengths are checked up front; the body reader
// is capped for chunked requests.
func RequestSizeLimit(maxFileSize int64, maxFiles int) gin.HandlerFunc {
	rawLimit := maxFileSize*int64(maxFiles) + multipartOverhead
	encodedLimit := (maxFileSize+2)/3*4*int64(maxFiles) + multipartOverhead

	return func(ctx *gin.Context) {
		limit := rawLimit
		if strings.HasPrefix(strings.ToLower(ctx.GetHeader("Content-Type")), "application/json") {
			limit = encodedLimit
		}

		if ctx.Request.ContentLength > limit {
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.APIResponse{
				Success: false,
				Error:   fmt.Sprintf("request body exceeds %d bytes", limit),
			})
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		ctx.Next()
	}
}

// ValidateContentType rejects requests whose media type is not one of allowed.
func ValidateContentType(allowed ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := strings.ToLower(ctx.GetHeader("Content-Type"))

		for _, a := range allowed {
			if strings.HasPrefix(contentType, a) {
				ctx.Next()
				return
			}
		}

		ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.APIResponse{
			Success: false,
			Error:   fmt.Sprintf("Content-Type must be one of: %s", strings.Join(allowed, ", ")),
		})
	}
}
