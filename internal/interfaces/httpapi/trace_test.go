package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan_NoParentIsNoop(t *testing.T) {
	ctx := context.Background()
	got, span := startSpan(ctx, "httpapi.Handler.CreateMatch")
	if got != ctx {
		t.Fatalf("expected context unchanged without a parent span")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("expected no-op span without a parent")
	}
}

func TestStartSpan_HelpersStayUntraced(t *testing.T) {
	parent := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
	}))

	for _, name := range []string{"httpapi.RequestLogging", "httpapi.writeError", ""} {
		got, _ := startSpan(parent, name)
		if got != parent {
			t.Fatalf("expected %q to keep the parent context", name)
		}
	}
}

func TestPathAttrs(t *testing.T) {
	var got map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/players/{profileID}/claim", func(_ http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for _, attr := range pathAttrs(r) {
			got[string(attr.Key)] = attr.Value.AsString()
		}
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/players/p-7/claim", nil))

	if len(got) != 1 || got["ledger.path.profileID"] != "p-7" {
		t.Fatalf("unexpected path attrs: %+v", got)
	}
}
