package mykafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

type Handler func(ctx context.Context, msg kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
	topic  string
	log    *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: r, topic: topic, log: log}
}

// Run feeds messages to h until ctx is cancelled. A message is committed
// after h returns, even on failure, so a poison message cannot stall the
// partition; the failure is logged.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	tracer := otel.Tracer("mykafka")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		mctx := otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier{Headers: &msg.Headers})
		mctx, span := tracer.Start(mctx, c.topic+" process",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.destination.name", c.topic),
				attribute.Int64("messaging.kafka.offset", msg.Offset),
			),
		)
		l := c.log.With("topic", c.topic, "offset", msg.Offset, "key", string(msg.Key))
		if err := h(logging.IntoContext(mctx, l), msg); err != nil {
			span.RecordError(err)
			l.Error("consume_error", "err", err)
		}
		span.End()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
