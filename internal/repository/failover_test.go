package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"calcbot/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, userID int64) (*models.SubscriptionEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionEntry), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, entry *models.SubscriptionEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockCache) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

func TestFailoverCacheRepository(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverCacheRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		entry := &models.SubscriptionEntry{UserID: 1, Subscribed: true}
		primary.On("Get", ctx, int64(1)).Return(entry, nil).Once()

		got, err := repo.Get(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, entry, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		entry := &models.SubscriptionEntry{UserID: 2}
		primary.On("Get", ctx, int64(2)).Return(nil, errors.New("fail")).Once()
		fallback.On("Get", ctx, int64(2)).Return(entry, nil).Once()

		got, err := repo.Get(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, entry, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		entry := &models.SubscriptionEntry{UserID: 3}
		primary.On("Get", ctx, int64(3)).Return(entry, nil).Once()

		got, err := repo.Get(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, entry, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Get", ctx, int64(33)).Return(nil, errors.New("still fail")).Once()
		fallback.On("Get", ctx, int64(33)).Return(nil, nil).Once()

		_, err := repo.Get(ctx, 33)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		entry := &models.SubscriptionEntry{UserID: 77}
		primary.On("Set", ctx, entry).Return(nil).Once()

		err := repo.Set(ctx, entry)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("SetFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		entry := &models.SubscriptionEntry{UserID: 4}
		primary.On("Set", ctx, entry).Return(errors.New("fail")).Once()
		fallback.On("Set", ctx, entry).Return(nil).Once()

		err := repo.Set(ctx, entry)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("Delete", ctx, int64(88)).Return(nil).Once()

		err := repo.Delete(ctx, 88)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("DeleteFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("Delete", ctx, int64(5)).Return(errors.New("fail")).Once()
		fallback.On("Delete", ctx, int64(5)).Return(nil).Once()

		err := repo.Delete(ctx, 5)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		entry := &models.SubscriptionEntry{UserID: 44}
		fallback.On("Set", ctx, entry).Return(nil).Once()

		err := repo.Set(ctx, entry)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})

	t.Run("SweepBothWhenUp", func(t *testing.T) {
		repo.isDown.Store(false)
		cutoff := time.Now()
		fallback.On("Sweep", ctx, cutoff).Return(2, nil).Once()
		primary.On("Sweep", ctx, cutoff).Return(3, nil).Once()

		removed, err := repo.Sweep(ctx, cutoff)
		assert.NoError(t, err)
		assert.Equal(t, 5, removed)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SweepFallbackOnlyWhenDown", func(t *testing.T) {
		repo.isDown.Store(true)
		cutoff := time.Now()
		fallback.On("Sweep", ctx, cutoff).Return(1, nil).Once()

		removed, err := repo.Sweep(ctx, cutoff)
		assert.NoError(t, err)
		assert.Equal(t, 1, removed)
		fallback.AssertExpectations(t)
	})

	t.Run("SweepPrimaryFailMarksDown", func(t *testing.T) {
		repo.isDown.Store(false)
		cutoff := time.Now()
		fallback.On("Sweep", ctx, cutoff).Return(1, nil).Once()
		primary.On("Sweep", ctx, cutoff).Return(0, errors.New("fail")).Once()

		removed, err := repo.Sweep(ctx, cutoff)
		assert.NoError(t, err)
		assert.Equal(t, 1, removed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
