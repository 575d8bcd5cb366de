// Package middleware provides the HTTP middleware of the sales co-pilot API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxEntryKeyLength bounds the product key copied onto spans
const MaxEntryKeyLength = 100

type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts a server span per request through otelgin. Follow it with
// SpanDecorator.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanDecorator tags the request span with the request id and the batch,
// proposal or catalog entry the route addresses. Once the handler is done it
// marks 4xx and 5xx answers as errors carrying the API error code.
func SpanDecorator() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := RequestIDFrom(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		span.SetAttributes(resourceAttributes(c)...)

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("error.code", code))
		}
	}
}

// resourceAttributes identifies what the matched route addresses
func resourceAttributes(c *gin.Context) []attribute.KeyValue {
	route := c.FullPath()
	var attrs []attribute.KeyValue
	if id := c.Param("id"); id != "" {
		switch {
		case strings.Contains(route, "/catalog/uploads/"):
			attrs = append(attrs, telemetry.AttrBatchID.String(id))
		case strings.Contains(route, "/proposals/"):
			attrs = append(attrs, telemetry.AttrProposalID.String(id))
		}
	}
	if key := c.Param("key"); key != "" && strings.Contains(route, "/catalog/entries/") {
		if len(key) > MaxEntryKeyLength {
			key = key[:MaxEntryKeyLength]
		}
		attrs = append(attrs, telemetry.AttrEntryKey.String(key))
	}
	return attrs
}
