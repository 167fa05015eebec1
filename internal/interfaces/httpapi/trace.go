package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const handlerSpanPrefix = "httpapi.Handler."

var apiTracer = otel.Tracer("match-ledger/internal/interfaces/httpapi")

// startSpan traces handlers only. Middleware and response helpers call it too
// but get a no-op span, as do requests whose parent was filtered out.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !strings.HasPrefix(name, handlerSpanPrefix) || !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, noop.Span{}
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// pathAttrs turns the ids in the matched route pattern into span attributes.
func pathAttrs(r *http.Request) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, key := range []string{"matchID", "profileID"} {
		if v := r.PathValue(key); v != "" {
			attrs = append(attrs, attribute.String("ledger.path."+key, v))
		}
	}
	return attrs
}
