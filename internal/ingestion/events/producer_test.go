package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockKafkaWriter implements KafkaWriter for testing
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

// newTestProducer builds a Producer around a mock writer without dialing a
// broker.
func newTestProducer(logger *zap.Logger, writer KafkaWriter, buffer int) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, buffer),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}
}

func TestProducer_Produce(t *testing.T) {
	t.Run("successful produce", func(t *testing.T) {
		producer := newTestProducer(zaptest.NewLogger(t), &MockKafkaWriter{}, 10)

		producer.Produce(Event{Type: RunStarted, RunID: "run-1"})

		assert.Equal(t, 1, len(producer.events))
	})

	t.Run("dropped event when queue full", func(t *testing.T) {
		core, recorded := observer.New(zap.WarnLevel)
		producer := newTestProducer(zap.New(core), &MockKafkaWriter{}, 1)

		producer.Produce(Event{Type: FileIngested, RunID: "run-1"})
		producer.Produce(Event{Type: FileIngested, RunID: "run-1"})

		assert.Equal(t, 1, len(producer.events))
		require.Equal(t, 1, recorded.Len())
		assert.Contains(t, recorded.All()[0].Message, "dropping event")
	})
}

func TestProducer_SendEvent(t *testing.T) {
	writer := &MockKafkaWriter{}
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)
	producer := newTestProducer(zaptest.NewLogger(t), writer, 10)

	event := Event{Type: FileIngested, RunID: "run-1", File: "Empresas0.zip", Records: 42}
	producer.sendEvent(context.Background(), event)

	writer.AssertNumberOfCalls(t, "WriteMessages", 1)
	msgs := writer.Calls[0].Arguments.Get(1).([]kafka.Message)
	require.Len(t, msgs, 1)
	assert.Equal(t, []byte("run-1"), msgs[0].Key, "events should be keyed by run id")

	var decoded Event
	require.NoError(t, json.Unmarshal(msgs[0].Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestProducer_SendEventWriteFailure(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	writer := &MockKafkaWriter{}
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	producer := newTestProducer(zap.New(core), writer, 10)

	producer.sendEvent(context.Background(), Event{Type: RunCompleted, RunID: "run-1"})

	require.Equal(t, 1, recorded.Len())
	assert.Contains(t, recorded.All()[0].Message, "Failed to produce event")
}

// chanWriter hands written messages to the test goroutine.
type chanWriter struct {
	messages chan kafka.Message
}

func (w *chanWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		w.messages <- msg
	}
	return nil
}

func (w *chanWriter) Close() error { return nil }

func TestProducer_EventLoopDrains(t *testing.T) {
	writer := &chanWriter{messages: make(chan kafka.Message, 1)}
	producer := newTestProducer(zaptest.NewLogger(t), writer, 10)
	go producer.eventLoop()
	defer producer.Close()

	producer.Produce(Event{Type: RunStarted, RunID: "run-1"})

	select {
	case msg := <-writer.messages:
		assert.Equal(t, []byte("run-1"), msg.Key)
	case <-time.After(time.Second):
		t.Fatal("event loop did not deliver the queued event")
	}
}
