package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID set by the request ID middleware
const RequestIDHeader = "X-Request-ID"

const ginLoggerKey = "logger"

// Middleware logs one line per request and makes a request scoped logger
// available through RequestLogger and, for services, FromContext. Register
// it after the request ID middleware and the tracing middleware.
func Middleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		requestID := c.Writer.Header().Get(RequestIDHeader)
		fields := append([]zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		}, TraceFields(ctx)...)
		reqLog := log.With(fields...)

		ctx = WithContext(WithRequestID(ctx, requestID), reqLog)
		c.Request = c.Request.WithContext(ctx)
		c.Set(ginLoggerKey, reqLog)

		c.Next()

		status := c.Writer.Status()
		done := []zap.Field{
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			done = append(done, zap.Strings("errors", c.Errors.Errors()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			reqLog.Error("Request failed", done...)
		case status >= http.StatusBadRequest:
			reqLog.Warn("Request rejected", done...)
		default:
			reqLog.Info("Request served", done...)
		}
	}
}

// Recovery turns a handler panic into a 500 and logs it with its stack
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				RequestLogger(c, log).Error("Panic recovered",
					zap.Any("panic", r),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// RequestLogger returns the logger Middleware stored on c, or fallback.
// A nil fallback means a no-op logger.
func RequestLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if log, ok := v.(*zap.Logger); ok {
			return log
		}
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback.With(zap.String("path", c.Request.URL.Path))
}
