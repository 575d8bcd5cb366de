package middleware

import (
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey names both the gin context key and the header carrying
	// the request id
	RequestIDKey = logger.RequestIDHeader

	// MaxRequestIDLength clips client supplied ids
	MaxRequestIDLength = 128
)

// RequestID tags each request with an id. An incoming X-Request-ID header is
// kept, clipped to MaxRequestIDLength; otherwise a uuid is minted.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := clipRequestID(c.GetHeader(RequestIDKey))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDKey, requestID)
		c.Next()
	}
}

// RequestIDFrom returns the id set by RequestID, falling back to the raw
// header when the middleware did not run
func RequestIDFrom(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return clipRequestID(c.GetHeader(RequestIDKey))
}

func clipRequestID(id string) string {
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}
