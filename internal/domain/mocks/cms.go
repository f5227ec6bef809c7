package mocks

import (
	"context"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCMSClient struct {
	mock.Mock
}

var _ domain.CMSClient = (*MockCMSClient)(nil)

func (m *MockCMSClient) Ref(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockCMSClient) Query(ctx context.Context, predicates []string, opts domain.QueryOptions) (*domain.PostPage, error) {
	args := m.Called(ctx, predicates, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostPage), args.Error(1)
}

func (m *MockCMSClient) GetByUID(ctx context.Context, docType, uid, ref string) (*domain.PostDetail, error) {
	args := m.Called(ctx, docType, uid, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostDetail), args.Error(1)
}

func (m *MockCMSClient) FetchPage(ctx context.Context, cursor string) (*domain.PostPage, error) {
	args := m.Called(ctx, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostPage), args.Error(1)
}

func (m *MockCMSClient) DocumentUID(ctx context.Context, id, ref string) (string, error) {
	args := m.Called(ctx, id, ref)
	return args.String(0), args.Error(1)
}
