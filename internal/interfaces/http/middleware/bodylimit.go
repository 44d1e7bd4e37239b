package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
)

// BodyLimit rejects requests whose declared length exceeds maxBytes and caps
// streamed bodies at the same size.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
