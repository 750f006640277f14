package middleware

import (
	"context"
	"strings"

	"github.com/backoffice/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig configures the Pyroscope labelling middleware.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths lists exact paths excluded from labelling, typically
	// health probes and metrics scrapes.
	SkipPaths []string
	// SkipPathPrefixes excludes whole subtrees such as /debug.
	SkipPathPrefixes []string
}

// DefaultProfilingConfig excludes the operational endpoints that would
// otherwise dominate the profile stream.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
		SkipPathPrefixes: []string{
			"/debug",
		},
	}
}

// Profiling returns the labelling middleware with defaults applied.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig tags request handling with Pyroscope labels
// (method, route pattern, resource) so CPU profiles can be sliced per
// endpoint in the Pyroscope UI.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passthrough
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
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

// requestLabels builds the low-cardinality label set for a request. The
// route pattern is used rather than the raw path, so "/api/v1/items/42"
// and "/api/v1/items/43" profile under the same label.
func requestLabels(c *gin.Context) map[string]string {
	route := c.FullPath()

	labels := make(map[string]string, 3)
	if method := c.Request.Method; method != "" {
		labels[telemetry.ProfilingLabelMethod] = method
	}
	if route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
	}
	if resource := resourceFromRoute(route); resource != "" {
		labels[telemetry.ProfilingLabelController] = resource
	}
	return labels
}

// resourceFromRoute picks the resource segment out of a route pattern,
// so "/api/v1/purchase-orders/:id/receive" labels as "purchase-orders".
func resourceFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		switch {
		case part == "" || part == "api" || apiVersion(part):
		case strings.HasPrefix(part, ":") || strings.HasPrefix(part, "{"):
		default:
			return part
		}
	}
	return ""
}

// apiVersion reports whether a path segment looks like "v1", "v2", ...
func apiVersion(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
