package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/relist/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig controls which requests get pprof labels attached.
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// Profiling labels API requests for Pyroscope with the default skip list:
// health checks and docs endpoints produce noise, not signal.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/healthz", "/ready", "/metrics"},
		SkipPathPrefixes: []string{"/swagger", "/api-docs"},
	})
}

// ProfilingWithConfig wraps handler execution in pprof labels (method,
// route pattern, resource, seller) so profiles can be sliced per endpoint
// and per seller in the Pyroscope UI.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return noopMiddleware
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), requestLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func requestLabels(c *gin.Context) map[string]string {
	labels := map[string]string{
		telemetry.ProfilingLabelMethod: c.Request.Method,
	}

	// Label by the matched pattern, never the raw path, to keep the
	// label set bounded.
	if route := c.FullPath(); route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
		if resource := routeResource(route); resource != "" {
			labels[telemetry.ProfilingLabelController] = resource
		}
	}

	if sellerID := getSellerID(c); sellerID != "" {
		labels[telemetry.ProfilingLabelSellerID] = sellerID
	}
	return labels
}

// routeResource names the resource a route serves: the first concrete
// segment past the API prefix. "/api/v1/sellers/:id/scrape" -> "sellers".
func routeResource(route string) string {
	for _, part := range strings.Split(route, "/") {
		switch {
		case part == "" || part == "api":
		case isAPIVersion(part):
		case strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*"):
		default:
			return part
		}
	}
	return ""
}

func isAPIVersion(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
