// Package middleware provides the HTTP middleware of the manufacturing API.
package middleware

import (
	"slices"

	"github.com/erp/manufacturing/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxAttributeLength caps header-sourced span attributes
const MaxAttributeLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
	// SkipPaths are routes that never get a span, such as health probes.
	SkipPaths []string
	// TracerProvider overrides the global provider when set.
	TracerProvider trace.TracerProvider
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "erp-manufacturing",
		Enabled:     true,
		SkipPaths:   []string{"/health"},
	}
}

// Tracing returns the otelgin middleware for cfg followed by a handler that
// tags the server span with the request and actor IDs. Register both, in
// order, after logger.GinMiddleware so the IDs are already in the context.
func Tracing(cfg TracingConfig) []gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgin.Option{
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			return !slices.Contains(cfg.SkipPaths, c.Request.URL.Path)
		}),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}

	return []gin.HandlerFunc{otelgin.Middleware(cfg.ServiceName, opts...), SpanAttributes()}
}

// SpanAttributes enriches the active server span. It runs inside the otelgin
// handler, before the route handler, while the span is still recording.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			ctx := c.Request.Context()
			if id := logger.GetRequestID(ctx); id != "" {
				span.SetAttributes(attribute.String("request_id", truncate(id)))
			}
			if actor := logger.GetActorID(ctx); actor != "" {
				span.SetAttributes(attribute.String("actor_id", truncate(actor)))
			}
		}
		c.Next()
	}
}

func truncate(s string) string {
	if len(s) > MaxAttributeLength {
		return s[:MaxAttributeLength]
	}
	return s
}
