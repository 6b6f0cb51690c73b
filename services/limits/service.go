package limits

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/internal/utils"
)

// Service combines warm-down, age-based warm-up and global-target
// distribution into one effective per-identity daily cap. Every method
// is a cheap read; the pool calls EffectiveDailyLimit on each
// eligibility check.
type Service struct {
	cfg   *config.SchedulerConfig
	repos *repository.Repositories
	now   func() time.Time
}

func NewService(cfg *config.SchedulerConfig, repos *repository.Repositories) *Service {
	return &Service{
		cfg:   cfg,
		repos: repos,
		now:   utils.Now,
	}
}

// WarmdownLimit returns the post-block ramp cap for an identity. The
// bool reports whether a ramp applies: identities with no block
// history, or past the ramp schedule, resume normal limits. A still
// active block returns limit 0.
func (s *Service) WarmdownLimit(ctx context.Context, identityEmail string) (int, bool, error) {
	block, err := s.repos.BlockRepository.Get(ctx, identityEmail)
	if errors.Is(err, repository.ErrBlockNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "get block record")
	}

	now := s.now()
	if block.IsActive(now) {
		return 0, true, nil
	}

	daysSinceRecovery := int(now.Sub(block.BlockedUntil).Hours() / 24)
	if daysSinceRecovery < 0 {
		daysSinceRecovery = 0
	}
	if daysSinceRecovery >= len(s.cfg.WarmdownRamp) {
		return 0, false, nil
	}

	return s.cfg.WarmdownRamp[daysSinceRecovery], true, nil
}

// ActiveIdentityCount is the number of roster identities without an
// active block, read fresh on every call so the global-target share is
// never computed from stale data.
func (s *Service) ActiveIdentityCount(ctx context.Context) (int, error) {
	blockedEmails, err := s.repos.BlockRepository.ActiveBlockEmails(ctx, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "list active blocks")
	}

	blocked := make(map[string]struct{}, len(blockedEmails))
	for _, email := range blockedEmails {
		blocked[email] = struct{}{}
	}

	count := 0
	for _, identity := range s.cfg.Identities {
		if _, ok := blocked[identity]; !ok {
			count++
		}
	}
	if count < 1 {
		count = 1
	}
	return count, nil
}

// EffectiveDailyLimit resolves the cap for one identity. Priority:
// warm-down overrides everything; then the lower of the warm-up tier
// and the flat per-identity value; then the global-target share (still
// capped by warm-up); then the flat value alone. The provider ceiling
// always applies last.
func (s *Service) EffectiveDailyLimit(ctx context.Context, identityEmail string) (int, error) {
	warmdown, active, err := s.WarmdownLimit(ctx, identityEmail)
	if err != nil {
		return 0, err
	}
	if active {
		return capAt(warmdown, s.cfg.ProviderDailyCap), nil
	}

	limit := s.cfg.EmailsPerDayPerIdentity

	warmupCap := 0
	hasWarmup := false
	if s.cfg.WarmupEnabled {
		identity, err := s.repos.IdentityRepository.GetByEmail(ctx, identityEmail)
		if err != nil && !errors.Is(err, repository.ErrIdentityNotFound) {
			return 0, errors.Wrap(err, "get identity")
		}
		if identity != nil {
			week := identity.AgeDays(s.now())/7 + 1
			tiers := s.cfg.WarmupWeeklyLimits
			idx := week - 1
			if idx >= len(tiers) {
				idx = len(tiers) - 1
			}
			warmupCap = tiers[idx]
			hasWarmup = true
			// The tier caps the flat value; it never raises it
			if warmupCap < limit {
				limit = warmupCap
			}
		}
	}

	if s.cfg.GlobalDailyTarget > 0 {
		active, err := s.ActiveIdentityCount(ctx)
		if err != nil {
			return 0, err
		}
		share := (s.cfg.GlobalDailyTarget + active - 1) / active
		limit = share
		if hasWarmup && warmupCap < limit {
			limit = warmupCap
		}
	}

	return capAt(limit, s.cfg.ProviderDailyCap), nil
}

func capAt(limit, ceiling int) int {
	if limit > ceiling {
		return ceiling
	}
	return limit
}
