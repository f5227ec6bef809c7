package mocks

import (
	"context"
	"time"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPageStore struct {
	mock.Mock
}

var _ domain.PageStore = (*MockPageStore)(nil)

func (m *MockPageStore) SaveHome(ctx context.Context, props *domain.HomeProps) error {
	args := m.Called(ctx, props)
	return args.Error(0)
}

func (m *MockPageStore) GetHome(ctx context.Context) (*domain.HomeProps, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HomeProps), args.Error(1)
}

func (m *MockPageStore) SavePost(ctx context.Context, props *domain.PostProps) error {
	args := m.Called(ctx, props)
	return args.Error(0)
}

func (m *MockPageStore) SavePosts(ctx context.Context, posts []*domain.PostProps) error {
	args := m.Called(ctx, posts)
	return args.Error(0)
}

func (m *MockPageStore) GetPost(ctx context.Context, uid string) (*domain.PostProps, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostProps), args.Error(1)
}

func (m *MockPageStore) DeleteStalePosts(ctx context.Context, keep []string) (int64, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(int64), args.Error(1)
}

type MockEventProducer struct {
	mock.Mock
}

var _ domain.EventProducer = (*MockEventProducer)(nil)

func (m *MockEventProducer) Publish(ctx context.Context, event *domain.RevalidationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockPreviewStore struct {
	mock.Mock
}

var _ domain.PreviewStore = (*MockPreviewStore)(nil)

func (m *MockPreviewStore) Save(ctx context.Context, sessionID, ref string, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, ref, ttl)
	return args.Error(0)
}

func (m *MockPreviewStore) Get(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockPreviewStore) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
