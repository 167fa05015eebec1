package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var usecaseTracer = otel.Tracer("match-ledger/internal/usecase")

// startUsecaseSpan opens a child span only under an existing trace. Background
// pushes and tests run without a parent and get a no-op span.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, noop.Span{}
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func matchAttr(matchID string) attribute.KeyValue {
	return attribute.String("ledger.match_id", matchID)
}

func profileAttr(profileID string) attribute.KeyValue {
	return attribute.String("ledger.profile_id", profileID)
}

func accountAttr(accountID string) attribute.KeyValue {
	return attribute.String("ledger.account_id", accountID)
}
