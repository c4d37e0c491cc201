package outbox

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func headerValue(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

func TestDispatchBuildsMessage(t *testing.T) {
	producer := &fakeProducer{}
	d := NewDispatcher(slog.Default(), producer, "storefront.lifecycle")

	err := d.Dispatch(context.Background(), Event{
		ID:          7,
		AggregateID: "order-1",
		Type:        "OrderCreated",
		Payload:     []byte(`{"order_id":"order-1"}`),
		Headers:     map[string]string{"source": "storefront-coordinator"},
		Traceparent: "00-abc-def-01",
	})
	require.NoError(t, err)
	require.Len(t, producer.msgs, 1)

	msg := producer.msgs[0]
	assert.Equal(t, "storefront.lifecycle", msg.Topic)
	assert.Equal(t, []byte("order-1"), msg.Key)
	assert.JSONEq(t, `{"order_id":"order-1"}`, string(msg.Value))

	eventType, ok := headerValue(msg, "event_type")
	require.True(t, ok)
	assert.Equal(t, "OrderCreated", eventType)

	tp, ok := headerValue(msg, "traceparent")
	require.True(t, ok)
	assert.Equal(t, "00-abc-def-01", tp)

	src, ok := headerValue(msg, "source")
	require.True(t, ok)
	assert.Equal(t, "storefront-coordinator", src)
}

func TestDispatchOmitsEmptyTraceparent(t *testing.T) {
	producer := &fakeProducer{}
	d := NewDispatcher(slog.Default(), producer, "t")

	require.NoError(t, d.Dispatch(context.Background(), Event{ID: 1, AggregateID: "a", Type: "X"}))
	_, ok := headerValue(producer.msgs[0], "traceparent")
	assert.False(t, ok)
}

func TestDispatchPropagatesProducerError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	d := NewDispatcher(slog.Default(), producer, "t")

	err := d.Dispatch(context.Background(), Event{ID: 1, AggregateID: "a", Type: "X"})
	assert.Error(t, err)
}
