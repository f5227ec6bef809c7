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
)

func TestPreviewService_Begin(t *testing.T) {
	store := new(mocks.MockPreviewStore)
	cms := new(mocks.MockCMSClient)
	s := NewPreviewService(store, cms, 30*time.Minute)

	cms.On("DocumentUID", mock.Anything, "YFK", "PREVIEW").Return("hello-world", nil)
	store.On("Save", mock.Anything, mock.AnythingOfType("string"), "PREVIEW", 30*time.Minute).Return(nil)

	sessionID, uid, err := s.Begin(context.Background(), "PREVIEW", "YFK")

	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, "hello-world", uid)
	store.AssertExpectations(t)
}

func TestPreviewService_BeginWithoutDocument(t *testing.T) {
	store := new(mocks.MockPreviewStore)
	cms := new(mocks.MockCMSClient)
	s := NewPreviewService(store, cms, time.Minute)

	store.On("Save", mock.Anything, mock.Anything, "PREVIEW", time.Minute).Return(nil)

	_, uid, err := s.Begin(context.Background(), "PREVIEW", "")

	require.NoError(t, err)
	assert.Empty(t, uid)
	cms.AssertNotCalled(t, "DocumentUID", mock.Anything, mock.Anything, mock.Anything)
}

func TestPreviewService_BeginErrors(t *testing.T) {
	store := new(mocks.MockPreviewStore)
	cms := new(mocks.MockCMSClient)
	s := NewPreviewService(store, cms, time.Minute)

	_, _, err := s.Begin(context.Background(), "", "YFK")
	assert.ErrorIs(t, err, ErrMissingPreviewToken)

	cms.On("DocumentUID", mock.Anything, "gone", "PREVIEW").Return("", domain.ErrNotFound)
	_, _, err = s.Begin(context.Background(), "PREVIEW", "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPreviewService_Ref(t *testing.T) {
	store := new(mocks.MockPreviewStore)
	s := NewPreviewService(store, new(mocks.MockCMSClient), time.Minute)

	store.On("Get", mock.Anything, "live").Return("PREVIEW", nil)
	store.On("Get", mock.Anything, "broken").Return("", errors.New("redis down"))

	assert.Equal(t, "PREVIEW", s.Ref(context.Background(), "live"))
	assert.Empty(t, s.Ref(context.Background(), "broken"))
	assert.Empty(t, s.Ref(context.Background(), ""))
}

func TestPreviewService_End(t *testing.T) {
	store := new(mocks.MockPreviewStore)
	s := NewPreviewService(store, new(mocks.MockCMSClient), time.Minute)

	store.On("Delete", mock.Anything, "live").Return(nil).Once()

	require.NoError(t, s.End(context.Background(), "live"))
	require.NoError(t, s.End(context.Background(), ""))
	store.AssertExpectations(t)
}
