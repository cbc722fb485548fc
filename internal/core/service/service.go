package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	saveAttempts     = 3
)

var tracer = otel.Tracer("github.com/simnova/sharethrift/internal/core/service")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type eventSource interface {
	PendingEvents() []domain.Event
	ClearEvents()
}

// publish forwards the pending events of a saved aggregate.
func publish(ctx context.Context, pub ports.EventPublisher, src eventSource) {
	events := src.PendingEvents()
	if pub == nil || len(events) == 0 {
		return
	}
	pub.Publish(ctx, events)
	src.ClearEvents()
}

func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
