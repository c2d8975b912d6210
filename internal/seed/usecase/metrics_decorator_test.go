package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/seedvault/internal/metrics"
	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
	"github.com/allisson/seedvault/internal/seed/usecase/mocks"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordItems(ctx context.Context, domain, outcome string, count int) {
	m.Called(ctx, domain, outcome, count)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func expectMetrics(m *mockBusinessMetrics, ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "otp", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "otp", operation, mock.AnythingOfType("time.Duration"), status).Return().Once()
}

func TestNewSeedUseCaseWithMetrics(t *testing.T) {
	decorator := NewSeedUseCaseWithMetrics(&mocks.MockSeedUseCase{}, &mockBusinessMetrics{})

	assert.NotNil(t, decorator)
	assert.Implements(t, (*SeedUseCase)(nil), decorator)
}

func TestMetricsDecorator_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		useCase := &mocks.MockSeedUseCase{}
		m := &mockBusinessMetrics{}

		useCase.On("GetOrCreate", ctx, "alice").Return(otpDomain.Seed{0x01}, true, nil).Once()
		expectMetrics(m, ctx, "seed_get_or_create", "success")

		seed, created, err := NewSeedUseCaseWithMetrics(useCase, m).GetOrCreate(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, otpDomain.Seed{0x01}, seed)
		useCase.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		useCase := &mocks.MockSeedUseCase{}
		m := &mockBusinessMetrics{}

		useCase.On("GetOrCreate", ctx, "alice").Return(nil, false, seedDomain.ErrSecretUnavailable).Once()
		expectMetrics(m, ctx, "seed_get_or_create", "error")

		_, _, err := NewSeedUseCaseWithMetrics(useCase, m).GetOrCreate(ctx, "alice")
		assert.ErrorIs(t, err, seedDomain.ErrSecretUnavailable)
		m.AssertExpectations(t)
	})
}

func TestMetricsDecorator_VerifyToken(t *testing.T) {
	ctx := context.Background()

	results := []seedDomain.VerifyResult{
		seedDomain.VerifyMatch,
		seedDomain.VerifyNoMatch,
		seedDomain.VerifySecretUnavailable,
		seedDomain.VerifyNoEnrollment,
	}
	for _, result := range results {
		t.Run("Success_StatusIs_"+string(result), func(t *testing.T) {
			useCase := &mocks.MockSeedUseCase{}
			m := &mockBusinessMetrics{}

			useCase.On("VerifyToken", ctx, "alice", "123456").Return(result, nil).Once()
			expectMetrics(m, ctx, "seed_verify", string(result))

			got, err := NewSeedUseCaseWithMetrics(useCase, m).VerifyToken(ctx, "alice", "123456")
			require.NoError(t, err)
			assert.Equal(t, result, got)
			m.AssertExpectations(t)
		})
	}

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		useCase := &mocks.MockSeedUseCase{}
		m := &mockBusinessMetrics{}

		useCase.On("VerifyToken", ctx, "alice", "123456").
			Return(seedDomain.VerifyResult(""), seedDomain.ErrPortTimeout).
			Once()
		expectMetrics(m, ctx, "seed_verify", "error")

		_, err := NewSeedUseCaseWithMetrics(useCase, m).VerifyToken(ctx, "alice", "123456")
		assert.ErrorIs(t, err, seedDomain.ErrPortTimeout)
		m.AssertExpectations(t)
	})
}

func TestMetricsDecorator_EnrollAndReset(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Enroll", func(t *testing.T) {
		useCase := &mocks.MockSeedUseCase{}
		m := &mockBusinessMetrics{}
		enrollment := &seedDomain.Enrollment{Principal: "alice"}

		useCase.On("Enroll", ctx, "alice", "label").Return(enrollment, nil).Once()
		expectMetrics(m, ctx, "seed_enroll", "success")

		got, err := NewSeedUseCaseWithMetrics(useCase, m).Enroll(ctx, "alice", "label")
		require.NoError(t, err)
		assert.Equal(t, enrollment, got)
		m.AssertExpectations(t)
	})

	t.Run("Error_Reset", func(t *testing.T) {
		useCase := &mocks.MockSeedUseCase{}
		m := &mockBusinessMetrics{}

		useCase.On("Reset", ctx, "alice").Return(errors.New("boom")).Once()
		expectMetrics(m, ctx, "seed_reset", "error")

		assert.Error(t, NewSeedUseCaseWithMetrics(useCase, m).Reset(ctx, "alice"))
		m.AssertExpectations(t)
	})
}

func TestMetricsDecorator_RewrapAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsOutcomes", func(t *testing.T) {
		useCase := &mocks.MockRewrapUseCase{}
		m := &mockBusinessMetrics{}
		report := &seedDomain.RewrapReport{Scanned: 6, Rewrapped: 3, Current: 1, Unreadable: 1, Raced: 1}
		useCase.On("RewrapAll", ctx, 50).Return(report, nil).Once()
		m.On("RecordOperation", ctx, "rewrap", "rewrap_all", "success").Return().Once()
		m.On("RecordDuration", ctx, "rewrap", "rewrap_all", mock.AnythingOfType("time.Duration"), "success").
			Return().Once()
		m.On("RecordItems", ctx, "rewrap", "rewrapped", 3).Return().Once()
		m.On("RecordItems", ctx, "rewrap", "current", 1).Return().Once()
		m.On("RecordItems", ctx, "rewrap", "unreadable", 1).Return().Once()
		m.On("RecordItems", ctx, "rewrap", "raced", 1).Return().Once()

		got, err := NewRewrapUseCaseWithMetrics(useCase, m).RewrapAll(ctx, 50)

		require.NoError(t, err)
		assert.Same(t, report, got)
		m.AssertExpectations(t)
	})

	t.Run("Error_RecordsPartialReport", func(t *testing.T) {
		useCase := &mocks.MockRewrapUseCase{}
		m := &mockBusinessMetrics{}
		listErr := errors.New("list failed")
		useCase.On("RewrapAll", ctx, 10).Return(&seedDomain.RewrapReport{Scanned: 2, Rewrapped: 2}, listErr).Once()
		m.On("RecordOperation", ctx, "rewrap", "rewrap_all", "error").Return().Once()
		m.On("RecordDuration", ctx, "rewrap", "rewrap_all", mock.AnythingOfType("time.Duration"), "error").
			Return().Once()
		m.On("RecordItems", ctx, "rewrap", mock.AnythingOfType("string"), mock.AnythingOfType("int")).Return()

		_, err := NewRewrapUseCaseWithMetrics(useCase, m).RewrapAll(ctx, 10)

		assert.ErrorIs(t, err, listErr)
		m.AssertCalled(t, "RecordItems", ctx, "rewrap", "rewrapped", 2)
	})

	t.Run("Error_NilReport", func(t *testing.T) {
		useCase := &mocks.MockRewrapUseCase{}
		m := &mockBusinessMetrics{}
		useCase.On("RewrapAll", ctx, 10).Return(nil, errors.New("boom")).Once()
		m.On("RecordOperation", ctx, "rewrap", "rewrap_all", "error").Return().Once()
		m.On("RecordDuration", ctx, "rewrap", "rewrap_all", mock.AnythingOfType("time.Duration"), "error").
			Return().Once()

		_, err := NewRewrapUseCaseWithMetrics(useCase, m).RewrapAll(ctx, 10)

		assert.Error(t, err)
		m.AssertNotCalled(t, "RecordItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
