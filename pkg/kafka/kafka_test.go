package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roombook/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	if len(r.queue) == 0 {
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestMessageBuilder(t *testing.T) {
	ts := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	msg, err := NewMessage().
		WithKey("room-1").
		WithValue(map[string]string{"title": "Standup"}).
		WithEventType("booking.created").
		WithCorrelationID("").
		WithTimestamp(ts).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "room-1", msg.Key)
	assert.JSONEq(t, `{"title":"Standup"}`, string(msg.Value))
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "booking.created", msg.GetEventType())
	assert.Equal(t, "2025-03-10T09:00:00Z", msg.Headers[HeaderTimestamp])
	_, hasCorrelation := msg.Headers[HeaderCorrelationID]
	assert.False(t, hasCorrelation)
}

func TestMessageBuilder_ReportsEncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())
	msg.IncrementRetryCount()
	msg.IncrementRetryCount()
	assert.Equal(t, 2, msg.GetRetryCount())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"tagged transient", NewTransientError("db down", errors.New("x")), ErrorTypeTransient},
		{"tagged permanent", NewPermanentError("bad payload", errors.New("x")), ErrorTypePermanent},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"network text", errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{"other", errors.New("unexpected end of JSON input"), ErrorTypePermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}

	assert.True(t, ShouldRetry(context.DeadlineExceeded, 0, 1))
	assert.False(t, ShouldRetry(context.DeadlineExceeded, 1, 1))
}

func TestProducerPublish(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriters("booking-events", writer, nil, logger.Discard())

	var seenTopic string
	producer.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
		seenTopic = msg.Topic
		return next(ctx, msg)
	})

	msg, err := NewMessage().WithKey("room-1").WithValue("payload").WithEventType("booking.created").Build()
	require.NoError(t, err)
	require.NoError(t, producer.Publish(context.Background(), msg))

	assert.Equal(t, "booking-events", seenTopic)
	written := writer.written()
	require.Len(t, written, 1)
	assert.Equal(t, "room-1", string(written[0].Key))
	assert.Equal(t, "booking.created", headerValue(written[0], HeaderEventType))
}

func TestProducerPublish_RejectsIncompleteMessages(t *testing.T) {
	producer := NewProducerWithWriters("t", &fakeWriter{}, nil, logger.Discard())

	assert.ErrorIs(t, producer.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, producer.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)
}

func TestProducerPublish_FailureGoesToDLQ(t *testing.T) {
	writeErr := errors.New("leader not available")
	writer := &fakeWriter{err: writeErr}
	dlq := &fakeWriter{}
	producer := NewProducerWithWriters("booking-events", writer, dlq, logger.Discard())

	err := producer.Publish(context.Background(), Message{Key: "k", Value: []byte("v"), Headers: map[string]string{}})
	assert.ErrorIs(t, err, writeErr)

	dead := dlq.written()
	require.Len(t, dead, 1)
	assert.Equal(t, "booking-events", headerValue(dead[0], HeaderOriginalTopic))
	assert.Equal(t, "leader not available", headerValue(dead[0], "dlq-error"))
}

func TestProducerClose(t *testing.T) {
	writer, dlq := &fakeWriter{}, &fakeWriter{}
	producer := NewProducerWithWriters("t", writer, dlq, logger.Discard())

	require.NoError(t, producer.Close())
	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
	assert.True(t, dlq.closed)
	assert.ErrorIs(t, producer.Publish(context.Background(), Message{Key: "k", Value: []byte("v")}), ErrProducerClosed)
}

func runConsumer(t *testing.T, consumer *Consumer, reader *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx) }()

	select {
	case <-reader.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain the reader")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	reader := newFakeReader(
		kafka.Message{Key: []byte("room-1"), Value: []byte(`{}`), Headers: []kafka.Header{{Key: HeaderEventID, Value: []byte("e1")}}},
		kafka.Message{Key: []byte("room-2"), Value: []byte(`{}`)},
	)

	var mu sync.Mutex
	var keys []string
	consumer := NewConsumerWithReader(reader, nil, "booking-events", func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		keys = append(keys, msg.Key)
		return nil
	}, logger.Discard())

	runConsumer(t, consumer, reader)

	assert.Equal(t, []string{"room-1", "room-2"}, keys)
	assert.Len(t, reader.committed, 2)
}

func TestConsumer_RetriesTransientErrors(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("room-1"), Value: []byte(`{}`)})

	attempts := 0
	consumer := NewConsumerWithReader(reader, nil, "booking-events", func(ctx context.Context, msg Message) error {
		attempts++
		if attempts < 3 {
			return NewTransientError("store unavailable", nil)
		}
		return nil
	}, logger.Discard()).WithRetries(3, time.Millisecond)

	runConsumer(t, consumer, reader)

	assert.Equal(t, 3, attempts)
	assert.Len(t, reader.committed, 1)
}

func TestConsumer_PermanentErrorsGoToDLQ(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("room-1"), Value: []byte(`not json`)})
	dlq := &fakeWriter{}

	attempts := 0
	consumer := NewConsumerWithReader(reader, dlq, "booking-events", func(ctx context.Context, msg Message) error {
		attempts++
		return NewPermanentError("undecodable event", nil)
	}, logger.Discard()).WithRetries(3, time.Millisecond)

	runConsumer(t, consumer, reader)

	assert.Equal(t, 1, attempts)
	dead := dlq.written()
	require.Len(t, dead, 1)
	assert.Equal(t, "booking-events", headerValue(dead[0], HeaderOriginalTopic))
	assert.Len(t, reader.committed, 1)
}

func TestConsumer_StartAfterClose(t *testing.T) {
	consumer := NewConsumerWithReader(newFakeReader(), nil, "t", func(context.Context, Message) error { return nil }, logger.Discard())
	require.NoError(t, consumer.Close())
	assert.ErrorIs(t, consumer.Start(context.Background()), ErrConsumerClosed)
}
