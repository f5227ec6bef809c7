package queue

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

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/domain/mocks"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func testEvent() *domain.RevalidationEvent {
	return &domain.RevalidationEvent{
		ID:          "evt-1",
		Type:        "api-update",
		DocumentIDs: []string{"YFKcDhEAACMAmqvX"},
		ReceivedAt:  time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC),
	}
}

func TestKafkaProducer_Publish(t *testing.T) {
	w := new(mockWriter)
	p := &KafkaProducer{writer: w, topic: "blog_revalidate"}

	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "evt-1" {
			return false
		}
		var decoded domain.RevalidationEvent
		return json.Unmarshal(msgs[0].Value, &decoded) == nil && decoded.Type == "api-update"
	})).Return(nil).Once()

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	w.AssertExpectations(t)
}

func TestKafkaProducer_PublishError(t *testing.T) {
	w := new(mockWriter)
	p := &KafkaProducer{writer: w, topic: "blog_revalidate"}

	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := p.Publish(context.Background(), testEvent())
	assert.Error(t, err)
}

func TestKafkaConsumer_Process(t *testing.T) {
	payload, err := json.Marshal(testEvent())
	require.NoError(t, err)
	msg := kafka.Message{Key: []byte("evt-1"), Value: payload}

	t.Run("success does not touch DLQ", func(t *testing.T) {
		dlq := new(mocks.MockEventProducer)
		c := &KafkaConsumer{dlqProducer: dlq}

		var got *domain.RevalidationEvent
		c.process(context.Background(), msg, func(ctx context.Context, e *domain.RevalidationEvent) error {
			got = e
			return nil
		})

		require.NotNil(t, got)
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, []string{"YFKcDhEAACMAmqvX"}, got.DocumentIDs)
		dlq.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("failure goes to DLQ", func(t *testing.T) {
		dlq := new(mocks.MockEventProducer)
		dlq.On("Publish", mock.Anything, mock.MatchedBy(func(e *domain.RevalidationEvent) bool {
			return e.ID == "evt-1"
		})).Return(nil).Once()
		c := &KafkaConsumer{dlqProducer: dlq}

		c.process(context.Background(), msg, func(ctx context.Context, e *domain.RevalidationEvent) error {
			return errors.New("cms unavailable")
		})

		dlq.AssertExpectations(t)
	})

	t.Run("malformed payload is skipped", func(t *testing.T) {
		dlq := new(mocks.MockEventProducer)
		c := &KafkaConsumer{dlqProducer: dlq}
		called := false

		c.process(context.Background(), kafka.Message{Value: []byte("{")}, func(ctx context.Context, e *domain.RevalidationEvent) error {
			called = true
			return nil
		})

		assert.False(t, called)
		dlq.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}
