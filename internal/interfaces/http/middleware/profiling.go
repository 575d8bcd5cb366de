package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig selects the requests that carry pprof labels
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths and SkipPathPrefixes exclude probes and docs
	SkipPaths        []string
	SkipPathPrefixes []string
}

func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/api/v1/system/ping"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

func (cfg ProfilingConfig) skips(path string) bool {
	if slices.Contains(cfg.SkipPaths, path) {
		return true
	}
	return slices.ContainsFunc(cfg.SkipPathPrefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// Profiling labels each request's goroutine with its controller, route
// pattern and method, so pyroscope can split CPU time per endpoint.
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return func(c *gin.Context) {
		if cfg.skips(c.Request.URL.Path) {
			c.Next()
			return
		}
		route := c.FullPath()
		labels := telemetry.HTTPRequestLabels(routeController(route), route, c.Request.Method)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// routeController joins up to two literal segments after the /api/vN
// prefix, stopping at the first parameter.
//
//	"/api/v1/catalog/uploads/:id/commit" -> "catalog.uploads"
//	"/api/v1/proposals/:id/pdf"          -> "proposals"
func routeController(route string) string {
	parts := make([]string, 0, 2)
	for seg := range strings.SplitSeq(route, "/") {
		switch {
		case seg == "", seg == "api", apiVersion(seg):
			continue
		case seg[0] == ':' || seg[0] == '*':
			return strings.Join(parts, ".")
		}
		if parts = append(parts, seg); len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, ".")
}

// apiVersion matches v1, v2, V10
func apiVersion(seg string) bool {
	if len(seg) < 2 || (seg[0] != 'v' && seg[0] != 'V') {
		return false
	}
	return strings.Trim(seg[1:], "0123456789") == ""
}
