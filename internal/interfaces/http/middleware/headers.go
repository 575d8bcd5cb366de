package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityConfig selects the hardening headers sent with every response.
// Empty policies and a zero HSTSMaxAge leave the header out.
type SecurityConfig struct {
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityConfig leaves HSTS off; it belongs behind TLS termination
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' data:; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		PermissionsPolicy:     "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
	}
}

// Header renders the configuration once
func (s SecurityConfig) Header() http.Header {
	h := http.Header{}
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	if s.ContentSecurityPolicy != "" {
		h.Set("Content-Security-Policy", s.ContentSecurityPolicy)
	}
	if s.PermissionsPolicy != "" {
		h.Set("Permissions-Policy", s.PermissionsPolicy)
	}
	if s.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", int(s.HSTSMaxAge.Seconds()))
		if s.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if s.HSTSPreload {
			hsts += "; preload"
		}
		h.Set("Strict-Transport-Security", hsts)
	}
	return h
}

// Secure adds the security headers of cfg to every response
func Secure(cfg SecurityConfig) gin.HandlerFunc {
	headers := cfg.Header()
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range headers {
			h[k] = v
		}
		c.Next()
	}
}
