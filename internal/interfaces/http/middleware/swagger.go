package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SwaggerConfig holds configuration for Swagger endpoint protection
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string // addresses or CIDR prefixes; empty allows all
}

// SwaggerProtection guards the API documentation endpoints. A disabled
// endpoint answers 404; a client outside AllowedIPs gets 403.
// Unparseable entries in AllowedIPs are ignored.
func SwaggerProtection(cfg SwaggerConfig) gin.HandlerFunc {
	var prefixes []netip.Prefix
	for _, raw := range cfg.AllowedIPs {
		raw = strings.TrimSpace(raw)
		if strings.Contains(raw, "/") {
			if p, err := netip.ParsePrefix(raw); err == nil {
				prefixes = append(prefixes, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(raw); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.Fail(
				dto.ErrCodeNotFound, "API documentation is not available", RequestIDFrom(c)))
			return
		}
		if restricted && !isIPAllowed(getClientIP(c), prefixes) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Fail(
				dto.ErrCodeForbidden, "Access to API documentation is restricted", RequestIDFrom(c)))
			return
		}
		c.Next()
	}
}

// getClientIP returns the client address, honoring gin's trusted proxies
func getClientIP(c *gin.Context) netip.Addr {
	if addr, err := netip.ParseAddr(c.ClientIP()); err == nil {
		return addr.Unmap()
	}
	if ap, err := netip.ParseAddrPort(c.Request.RemoteAddr); err == nil {
		return ap.Addr().Unmap()
	}
	return netip.Addr{}
}

func isIPAllowed(ip netip.Addr, prefixes []netip.Prefix) bool {
	if !ip.IsValid() {
		return false
	}
	for _, p := range prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
