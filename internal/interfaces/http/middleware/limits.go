package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit refuses requests declaring a Content-Length above maxBytes and
// caps the rest with http.MaxBytesReader, which handlers see as
// *http.MaxBytesError
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.Set(ErrorCodeKey, dto.ErrCodePayloadTooLarge)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.Fail(
				dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size", RequestIDFrom(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// Timeout puts a deadline on the request context. Services observe it
// through ctx; the handler still writes the response.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		return passThrough
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-Timeout", timeout.String())
		c.Next()
	}
}
