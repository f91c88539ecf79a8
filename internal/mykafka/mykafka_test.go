package mykafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_RunCommitsEvenOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fr := &fakeReader{
		msgs:   []kafka.Message{{Offset: 1, Value: []byte("a")}, {Offset: 2, Value: []byte("b")}, {Offset: 3, Value: []byte("c")}},
		cancel: cancel,
	}
	c := &Consumer{reader: fr, topic: TopicProduct, log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	var seen []string
	err := c.Run(ctx, func(_ context.Context, msg kafka.Message) error {
		seen = append(seen, string(msg.Value))
		if string(msg.Value) == "b" {
			return errors.New("bad payload")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, []int64{1, 2, 3}, fr.committed)
}

func TestHeaderCarrier_RoundTripsTraceContext(t *testing.T) {
	t.Parallel()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var headers []kafka.Header
	prop := propagation.TraceContext{}
	prop.Inject(ctx, HeaderCarrier{Headers: &headers})
	require.Len(t, headers, 1)
	assert.Equal(t, "traceparent", headers[0].Key)

	out := trace.SpanContextFromContext(prop.Extract(context.Background(), HeaderCarrier{Headers: &headers}))
	assert.Equal(t, traceID, out.TraceID())
	assert.Equal(t, spanID, out.SpanID())
}

func TestHeaderCarrier_SetOverwrites(t *testing.T) {
	t.Parallel()

	var headers []kafka.Header
	c := HeaderCarrier{Headers: &headers}
	c.Set("k", "1")
	c.Set("k", "2")
	assert.Equal(t, "2", c.Get("k"))
	assert.Equal(t, []string{"k"}, c.Keys())
	assert.Equal(t, "", c.Get("missing"))
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishEvent(context.Background(), TopicCart, "k", NewEvent(CartCleared, nil)))
}
