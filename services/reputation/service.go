package reputation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/dto"
	"github.com/primestrides/sendstack/interfaces"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/models"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/internal/tracing"
	"github.com/primestrides/sendstack/internal/utils"
)

const (
	maxScore = 100.0

	// Rates below these tolerances carry no penalty.
	bounceTolerance  = 0.05
	failureTolerance = 0.05

	// Bounce is the strongest deliverability signal, so it is weighted
	// far above transport failures.
	bouncePenaltyWeight  = 1000.0
	failurePenaltyWeight = 300.0
	replyBonusWeight     = 1000.0
	perBlockPenalty      = 10.0
)

// Service computes and persists 0-100 health scores per identity from
// the message ledger's trailing window.
type Service struct {
	cfg    *config.SchedulerConfig
	log    logger.Logger
	repos  *repository.Repositories
	events interfaces.EventsPublisher
	now    func() time.Time
}

func NewService(cfg *config.SchedulerConfig, log logger.Logger, repos *repository.Repositories, events interfaces.EventsPublisher) *Service {
	return &Service{
		cfg:    cfg,
		log:    log,
		repos:  repos,
		events: events,
		now:    utils.Now,
	}
}

// ComputeScore is a pure read: it aggregates ledger outcomes over the
// trailing window and derives the score without persisting anything.
func (s *Service) ComputeScore(ctx context.Context, identityEmail string, windowDays int) (*models.IdentityReputation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReputationService.ComputeScore")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagIdentity(span, identityEmail)

	if windowDays <= 0 {
		windowDays = s.cfg.ReputationWindowDays
	}
	since := s.now().AddDate(0, 0, -windowDays)

	outcomes, err := s.repos.MessageLedgerRepository.AggregateOutcomes(ctx, identityEmail, since)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "aggregate ledger outcomes")
	}

	blockCount := 0
	block, err := s.repos.BlockRepository.Get(ctx, identityEmail)
	if err != nil && !errors.Is(err, repository.ErrBlockNotFound) {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "get block record")
	}
	if block != nil {
		blockCount = block.BlockCount
	}

	record := &models.IdentityReputation{
		IdentityEmail: identityEmail,
		ComputedAt:    s.now(),
	}

	attempts := outcomes.Attempts()
	if attempts == 0 {
		// Silence carries no penalty
		record.Score = maxScore
		record.Reason = "no recent activity"
		return record, nil
	}

	record.SampleSize = int(attempts)
	record.BounceRate = float64(outcomes.Bounced) / float64(attempts)
	record.FailRate = float64(outcomes.Failed) / float64(attempts)

	sent := outcomes.Sent
	if sent == 0 {
		sent = 1
	}
	record.ReplyRate = float64(outcomes.Replied) / float64(sent)

	score := maxScore
	var reasons []string

	if record.BounceRate > bounceTolerance {
		score -= (record.BounceRate - bounceTolerance) * bouncePenaltyWeight
		reasons = append(reasons, fmt.Sprintf("bounce rate %.1f%%", record.BounceRate*100))
	}
	if record.FailRate > failureTolerance {
		score -= (record.FailRate - failureTolerance) * failurePenaltyWeight
		reasons = append(reasons, fmt.Sprintf("failure rate %.1f%%", record.FailRate*100))
	}
	if record.ReplyRate > 0 {
		score += record.ReplyRate * replyBonusWeight
		if score > maxScore {
			score = maxScore
		}
		reasons = append(reasons, fmt.Sprintf("reply rate %.1f%%", record.ReplyRate*100))
	}
	if blockCount > 0 {
		score -= float64(blockCount) * perBlockPenalty
		reasons = append(reasons, fmt.Sprintf("%d historical blocks", blockCount))
	}

	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}

	record.Score = score
	if len(reasons) == 0 {
		record.Reason = "healthy"
	} else {
		record.Reason = strings.Join(reasons, "; ")
	}

	return record, nil
}

func (s *Service) SaveScore(ctx context.Context, record *models.IdentityReputation) error {
	if record == nil {
		return repository.ErrInvalidInput
	}
	return errors.Wrap(s.repos.ReputationRepository.Save(ctx, record), "save reputation")
}

// RefreshAll recomputes and persists every configured identity's
// score, logging warnings as thresholds are crossed. Identities at or
// below the pause threshold are excluded from eligibility by the pool;
// this method only records and alerts.
func (s *Service) RefreshAll(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReputationService.RefreshAll")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	for _, identityEmail := range s.cfg.Identities {
		record, err := s.ComputeScore(ctx, identityEmail, s.cfg.ReputationWindowDays)
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("Failed to compute reputation for %s: %v", identityEmail, err)
			continue
		}

		if err := s.SaveScore(ctx, record); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("Failed to save reputation for %s: %v", identityEmail, err)
			continue
		}

		switch {
		case record.Score <= float64(s.cfg.ReputationPauseThreshold):
			s.log.Warnf("Identity %s paused: reputation %.0f at or below pause threshold %d (%s)",
				identityEmail, record.Score, s.cfg.ReputationPauseThreshold, record.Reason)
			s.publishAlert(ctx, record, s.cfg.ReputationPauseThreshold, "pause")
		case record.Score <= float64(s.cfg.ReputationWarningThreshold):
			s.log.Warnf("Identity %s reputation %.0f below warning threshold %d (%s)",
				identityEmail, record.Score, s.cfg.ReputationWarningThreshold, record.Reason)
			s.publishAlert(ctx, record, s.cfg.ReputationWarningThreshold, "warning")
		}
	}

	return nil
}

func (s *Service) publishAlert(ctx context.Context, record *models.IdentityReputation, threshold int, level string) {
	if s.events == nil {
		return
	}
	err := s.events.PublishReputationAlert(ctx, dto.ReputationAlert{
		IdentityEmail: record.IdentityEmail,
		Score:         record.Score,
		BounceRate:    record.BounceRate,
		Threshold:     threshold,
		Level:         level,
		Reason:        record.Reason,
	})
	if err != nil {
		s.log.Errorf("Failed to publish reputation alert for %s: %v", record.IdentityEmail, err)
	}
}
