package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kursadbilgin/gcmpush/internal/domain"
	"github.com/kursadbilgin/gcmpush/internal/observability"
	"github.com/kursadbilgin/gcmpush/internal/provider"
	"go.uber.org/zap"
)

// PushService sends multicast requests through a provider and records logs and
// metrics for each call. It keeps no state between calls.
type PushService struct {
	provider provider.Provider
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewPushService(p provider.Provider, logger *zap.Logger) (*PushService, error) {
	if p == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PushService{
		provider: p,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (s *PushService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// SendMulticast performs exactly one gateway call for req. Errors from the
// provider are returned unchanged.
func (s *PushService) SendMulticast(ctx context.Context, req domain.MulticastRequest) (*provider.MulticastResult, error) {
	if s == nil || s.provider == nil {
		return nil, fmt.Errorf("push service is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := observability.WithContextLogger(s.logger, ctx).With(
		zap.Int("recipients", len(req.RegistrationIDs)),
		zap.Bool("dryRun", req.DryRun),
	)

	s.metrics.IncPushInFlight()
	defer s.metrics.DecPushInFlight()

	start := s.now()
	result, err := s.provider.SendMulticast(ctx, req)
	elapsed := s.now().Sub(start)

	if err != nil {
		outcome := observability.OutcomeOperationError
		if provider.IsValidation(err) {
			outcome = observability.OutcomeValidationError
			logger.Info("multicast rejected", zap.Error(err))
		} else {
			s.metrics.ObservePushSendDuration(outcome, elapsed)
			logger.Warn("multicast failed",
				zap.Int("upstreamStatus", upstreamStatus(err)),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
		}
		s.metrics.IncPushRequest(outcome)
		return nil, err
	}

	s.metrics.ObservePushSendDuration(observability.OutcomeOK, elapsed)
	s.metrics.IncPushRequest(observability.OutcomeOK)
	s.metrics.AddRecipients(result.Success, result.Failure)

	logger.Info("multicast sent",
		zap.Int("success", result.Success),
		zap.Int("failure", result.Failure),
		zap.Int("canonicalIds", result.CanonicalIDs),
		zap.Int64("multicastId", result.MulticastID),
		zap.Duration("elapsed", elapsed),
	)

	return result, nil
}

func upstreamStatus(err error) int {
	var pushErr *provider.PushError
	if errors.As(err, &pushErr) {
		return pushErr.UpstreamStatus
	}
	return 0
}
