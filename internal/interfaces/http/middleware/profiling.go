package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pharmaops/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig controls the Pyroscope labeling middleware.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths and SkipPathPrefixes exclude endpoints whose profiles carry
	// no signal, such as health checks.
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig enables labeling everywhere except operational
// endpoints.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/healthz", "/ready", "/metrics"},
		SkipPathPrefixes: []string{"/api-docs"},
	}
}

// Profiling tags each request's execution with Pyroscope labels so CPU and
// heap profiles can be sliced by route, method, and pharmacy.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig is Profiling with explicit configuration. Place it
// after the JWT middleware so the pharmacy label is available.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if cfg.skip(c.Request.URL.Path) {
			c.Next()
			return
		}

		telemetry.WithProfilingLabels(c.Request.Context(), requestLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func (cfg ProfilingConfig) skip(path string) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// requestLabels builds the per-request label set. The matched route pattern
// is used instead of the raw path to keep cardinality bounded.
func requestLabels(c *gin.Context) map[string]string {
	labels := map[string]string{
		telemetry.ProfilingLabelMethod: c.Request.Method,
	}

	if route := c.FullPath(); route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
		if resource := routeResource(route); resource != "" {
			labels[telemetry.ProfilingLabelController] = resource
		}
	}

	if id, ok := c.Get(JWTPharmacyIDKey); ok {
		if s, ok := id.(string); ok && s != "" {
			labels[telemetry.ProfilingLabelPharmacyID] = s
		}
	}

	return labels
}

// routeResource pulls the resource segment out of a route pattern:
// "/api/v1/holds/:id" yields "holds".
func routeResource(route string) string {
	for _, part := range strings.Split(route, "/") {
		switch {
		case part == "", part == "api", isAPIVersion(part):
			continue
		case strings.HasPrefix(part, ":"), strings.HasPrefix(part, "*"):
			continue
		}
		return part
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
