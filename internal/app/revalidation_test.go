package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/domain/mocks"
	"github.com/spacetraveling/blog/internal/infra/queue"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockConsumer struct {
	mock.Mock
}

func (m *mockConsumer) Start(ctx context.Context, handler queue.MessageHandler) {
	m.Called(ctx, handler)
}

func (m *mockConsumer) Close() error {
	return m.Called().Error(0)
}

func TestRevalidationService_Request(t *testing.T) {
	producer := new(mocks.MockEventProducer)
	s := NewRevalidationService(producer, new(mockConsumer), new(mockGenerator))
	s.now = func() time.Time { return fixedNow }

	producer.On("Publish", mock.Anything, mock.MatchedBy(func(e *domain.RevalidationEvent) bool {
		return e.ID != "" && e.Type == "api-update" && e.ReceivedAt.Equal(fixedNow) &&
			assert.ObjectsAreEqual([]string{"YFK"}, e.DocumentIDs)
	})).Return(nil).Once()

	id, err := s.Request(context.Background(), "api-update", []string{"YFK"})

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	producer.AssertExpectations(t)
}

func TestRevalidationService_RequestPublishError(t *testing.T) {
	producer := new(mocks.MockEventProducer)
	s := NewRevalidationService(producer, new(mockConsumer), new(mockGenerator))

	producer.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	id, err := s.Request(context.Background(), "api-update", nil)

	assert.Error(t, err)
	assert.Empty(t, id)
}

func TestRevalidationService_HandleEvent(t *testing.T) {
	gen := new(mockGenerator)
	s := NewRevalidationService(new(mocks.MockEventProducer), new(mockConsumer), gen)
	event := &domain.RevalidationEvent{ID: "evt-1"}

	gen.On("GenerateAll", mock.Anything).Return(nil).Once()
	require.NoError(t, s.handleEvent(context.Background(), event))

	gen.On("GenerateAll", mock.Anything).Return(domain.ErrCMSUnavailable).Once()
	assert.ErrorIs(t, s.handleEvent(context.Background(), event), domain.ErrCMSUnavailable)

	gen.AssertExpectations(t)
}

func TestRevalidationService_StartStop(t *testing.T) {
	consumer := new(mockConsumer)
	s := NewRevalidationService(new(mocks.MockEventProducer), consumer, new(mockGenerator))

	started := make(chan struct{})
	consumer.On("Start", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(started)
	}).Return()
	consumer.On("Close").Return(nil)

	s.Start(context.Background())
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("consumer was not started")
	}
	require.NoError(t, s.Stop())
	consumer.AssertExpectations(t)
}
