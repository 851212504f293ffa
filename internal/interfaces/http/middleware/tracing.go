// Package middleware provides HTTP middleware for the pharmacy platform.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Length caps for identity values lifted from request headers. Oversized
// headers are truncated or rejected before they reach span attributes.
const (
	MaxRequestIDLength  = 128
	MaxPharmacyIDLength = 64
)

// Pharmacy IDs arriving via header must look like a UUID; anything else is
// dropped rather than copied into the trace.
var pharmacyIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "pharmaops-backend",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin and annotates each server span with the
// request identity (request_id, pharmacy_id, user_id). Span names follow
// otelgin's "METHOD route_pattern" convention.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	instrument := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		instrument(c)

		// otelgin has started the span by now; annotate it.
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(identityAttrs(c)...)
		}
	}
}

// identityAttrs collects whatever request identity is visible at this point
// in the middleware chain. JWT claims win over headers; header values are
// validated since clients control them.
func identityAttrs(c *gin.Context) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if id := traceRequestID(c); id != "" {
		attrs = append(attrs, attribute.String("request_id", id))
	}
	if id := tracePharmacyID(c); id != "" {
		attrs = append(attrs, attribute.String("pharmacy_id", id))
	}
	if id := claimString(c, JWTUserIDKey); id != "" {
		attrs = append(attrs, attribute.String("user_id", id))
	}
	return attrs
}

// claimString reads a string value set on the gin context by an upstream
// middleware, or "" when absent or not a string.
func claimString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func traceRequestID(c *gin.Context) string {
	if id := claimString(c, "request_id"); id != "" {
		return id
	}
	id := c.GetHeader("X-Request-ID")
	if len(id) > MaxRequestIDLength {
		id = id[:MaxRequestIDLength]
	}
	return id
}

func tracePharmacyID(c *gin.Context) string {
	if id := claimString(c, JWTPharmacyIDKey); id != "" {
		return id
	}
	// Header fallback covers unauthenticated requests.
	if id := c.GetHeader("X-Pharmacy-ID"); validPharmacyHeader(id) {
		return id
	}
	return ""
}

func validPharmacyHeader(id string) bool {
	return id != "" && len(id) <= MaxPharmacyIDLength && pharmacyIDPattern.MatchString(id)
}

// SpanErrorMarker marks the server span with error status for 4xx and 5xx
// responses. Place it after the Tracing middleware.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, statusMessage(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

func statusMessage(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "Internal Server Error"
	case status == http.StatusUnauthorized:
		return "Unauthorized"
	case status == http.StatusForbidden:
		return "Forbidden"
	case status == http.StatusNotFound:
		return "Not Found"
	default:
		return "Client Error"
	}
}

// TracingAttributeInjector re-annotates the current span once authentication
// has populated the JWT claims. Place it after both Tracing and JWT.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(identityAttrs(c)...)
		}
		c.Next()
	}
}
