package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerStatus(cfg SwaggerConfig, remoteAddr string) int {
	router := gin.New()
	router.Use(SwaggerProtection(cfg))
	router.GET("/swagger/index.html", func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name   string
		cfg    SwaggerConfig
		remote string
		want   int
	}{
		{"disabled", SwaggerConfig{Enabled: false}, "192.0.2.1:1000", http.StatusNotFound},
		{"no restrictions", SwaggerConfig{Enabled: true}, "192.0.2.1:1000", http.StatusOK},
		{"listed address", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.0.2.1"}}, "192.0.2.1:1000", http.StatusOK},
		{"unlisted address", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.0.2.1"}}, "198.51.100.7:1000", http.StatusForbidden},
		{"inside prefix", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.20.30.40:1000", http.StatusOK},
		{"outside prefix", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "11.0.0.1:1000", http.StatusForbidden},
		{"only garbage entries", SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip"}}, "192.0.2.1:1000", http.StatusForbidden},
		{"ipv6 loopback", SwaggerConfig{Enabled: true, AllowedIPs: []string{"::1"}}, "[::1]:1000", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, swaggerStatus(tt.cfg, tt.remote))
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	prefixes := []netip.Prefix{
		netip.MustParsePrefix("192.168.1.0/24"),
		netip.MustParsePrefix("203.0.113.5/32"),
	}

	assert.True(t, isIPAllowed(netip.MustParseAddr("192.168.1.77"), prefixes))
	assert.True(t, isIPAllowed(netip.MustParseAddr("203.0.113.5"), prefixes))
	assert.False(t, isIPAllowed(netip.MustParseAddr("203.0.113.6"), prefixes))
	assert.False(t, isIPAllowed(netip.Addr{}, prefixes))
}
