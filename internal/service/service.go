// Package service holds the storefront's use cases. Each call is a short
// unit of work; services keep no state between calls.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const publishTimeout = 5 * time.Second

var tracer = otel.Tracer("github.com/Skotchmaster/storefront/internal/service")

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// publish sends an event after the owning transaction has committed.
// Delivery is best effort: a failure is logged and never undoes the write.
func publish(ctx context.Context, p mykafka.Publisher, topic, key, typ string, data any) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(pctx, topic, key, mykafka.NewEvent(typ, data)); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "type", typ, "error", err)
	}
}
