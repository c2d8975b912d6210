package usecase

import (
	"context"
	"time"

	"github.com/allisson/seedvault/internal/metrics"
	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

const (
	metricsDomain       = "otp"
	rewrapMetricsDomain = "rewrap"
)

// seedUseCaseWithMetrics decorates SeedUseCase with metrics instrumentation.
type seedUseCaseWithMetrics struct {
	next    SeedUseCase
	metrics metrics.BusinessMetrics
}

// NewSeedUseCaseWithMetrics wraps a SeedUseCase with metrics recording.
func NewSeedUseCaseWithMetrics(useCase SeedUseCase, m metrics.BusinessMetrics) SeedUseCase {
	return &seedUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// GetOrCreate records metrics for seed provisioning.
func (s *seedUseCaseWithMetrics) GetOrCreate(
	ctx context.Context,
	principal string,
) (otpDomain.Seed, bool, error) {
	start := time.Now()
	seed, justCreated, err := s.next.GetOrCreate(ctx, principal)

	s.record(ctx, "seed_get_or_create", start, statusOf(err))

	return seed, justCreated, err
}

// VerifyToken records metrics for code verification. Successful calls are labeled with
// the verification result instead of a plain "success".
func (s *seedUseCaseWithMetrics) VerifyToken(
	ctx context.Context,
	principal, candidate string,
) (seedDomain.VerifyResult, error) {
	start := time.Now()
	result, err := s.next.VerifyToken(ctx, principal, candidate)

	status := string(result)
	if err != nil {
		status = "error"
	}
	s.record(ctx, "seed_verify", start, status)

	return result, err
}

// Enroll records metrics for enrollments.
func (s *seedUseCaseWithMetrics) Enroll(
	ctx context.Context,
	principal, accountLabel string,
) (*seedDomain.Enrollment, error) {
	start := time.Now()
	enrollment, err := s.next.Enroll(ctx, principal, accountLabel)

	s.record(ctx, "seed_enroll", start, statusOf(err))

	return enrollment, err
}

// Reset records metrics for seed resets.
func (s *seedUseCaseWithMetrics) Reset(ctx context.Context, principal string) error {
	start := time.Now()
	err := s.next.Reset(ctx, principal)

	s.record(ctx, "seed_reset", start, statusOf(err))

	return err
}

func (s *seedUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	s.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	s.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// rewrapUseCaseWithMetrics decorates RewrapUseCase with metrics instrumentation.
type rewrapUseCaseWithMetrics struct {
	next    RewrapUseCase
	metrics metrics.BusinessMetrics
}

// NewRewrapUseCaseWithMetrics wraps a RewrapUseCase with metrics recording.
func NewRewrapUseCaseWithMetrics(useCase RewrapUseCase, m metrics.BusinessMetrics) RewrapUseCase {
	return &rewrapUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// RewrapAll records the pass and its per-outcome seed counts, including the partial
// report of a failed pass.
func (r *rewrapUseCaseWithMetrics) RewrapAll(
	ctx context.Context,
	batchSize int,
) (*seedDomain.RewrapReport, error) {
	start := time.Now()
	report, err := r.next.RewrapAll(ctx, batchSize)

	status := statusOf(err)
	r.metrics.RecordOperation(ctx, rewrapMetricsDomain, "rewrap_all", status)
	r.metrics.RecordDuration(ctx, rewrapMetricsDomain, "rewrap_all", time.Since(start), status)

	if report != nil {
		r.metrics.RecordItems(ctx, rewrapMetricsDomain, "rewrapped", report.Rewrapped)
		r.metrics.RecordItems(ctx, rewrapMetricsDomain, "current", report.Current)
		r.metrics.RecordItems(ctx, rewrapMetricsDomain, "unreadable", report.Unreadable)
		r.metrics.RecordItems(ctx, rewrapMetricsDomain, "raced", report.Raced)
	}

	return report, err
}
