package pool

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/dto"
	"github.com/primestrides/sendstack/interfaces"
	"github.com/primestrides/sendstack/internal/enum"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/internal/tracing"
	"github.com/primestrides/sendstack/internal/utils"
	"github.com/primestrides/sendstack/services/behavior"
	"github.com/primestrides/sendstack/services/limits"
)

// ErrPoolExhausted means no identity can send today: everyone is
// blocked, paused or at their daily limit. Cooldowns do not exhaust
// the pool; GetWaitTime reports how long until the next one opens.
var ErrPoolExhausted = errors.New("no identity has remaining capacity today")

// IdentityStatus is the point-in-time view of one identity, served by
// the status endpoints.
type IdentityStatus struct {
	Identity     string             `json:"identity"`
	SentToday    int                `json:"sentToday"`
	DailyLimit   int                `json:"dailyLimit"`
	Remaining    int                `json:"remaining"`
	Blocked      bool               `json:"blocked"`
	BlockedUntil *time.Time         `json:"blockedUntil,omitempty"`
	Score        *float64           `json:"score,omitempty"`
	InCooldown   bool               `json:"inCooldown"`
	AvailableAt  *time.Time         `json:"availableAt,omitempty"`
	Locked       bool               `json:"locked"`
	State        enum.IdentityState `json:"state"`
}

// Service hands out sending identities under exclusive, non-blocking
// acquisition. All durable state lives in the repositories; the only
// in-process state is the per-identity lock table, so two goroutines in
// the same process can never hold the same identity at once.
type Service struct {
	cfg      *config.SchedulerConfig
	log      logger.Logger
	repos    *repository.Repositories
	limits   *limits.Service
	behavior *behavior.Service
	events   interfaces.EventsPublisher
	loc      *time.Location
	now      func() time.Time

	roster map[string]struct{}

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(
	cfg *config.SchedulerConfig,
	log logger.Logger,
	repos *repository.Repositories,
	limitsService *limits.Service,
	behaviorService *behavior.Service,
	events interfaces.EventsPublisher,
	loc *time.Location,
) *Service {
	locks := make(map[string]*sync.Mutex, len(cfg.Identities))
	roster := make(map[string]struct{}, len(cfg.Identities))
	for _, identity := range cfg.Identities {
		locks[identity] = &sync.Mutex{}
		roster[identity] = struct{}{}
	}

	return &Service{
		cfg:      cfg,
		log:      log,
		repos:    repos,
		limits:   limitsService,
		behavior: behaviorService,
		events:   events,
		loc:      loc,
		now:      utils.Now,
		roster:   roster,
		locks:    locks,
	}
}

func (s *Service) lockFor(identityEmail string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[identityEmail]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[identityEmail] = lock
	}
	return lock
}

// withinSendingWindow gates every acquisition on the target timezone's
// business calendar.
func (s *Service) withinSendingWindow(at time.Time) bool {
	local := at.In(s.loc)

	if !s.cfg.SendOnWeekends {
		switch local.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	if holiday, name := behavior.IsHoliday(local); holiday {
		s.log.Debugf("Sending window closed for %s", name)
		return false
	}

	hour := local.Hour()
	return hour >= s.cfg.SendingHourStart && hour < s.cfg.SendingHourEnd
}

// isEligible runs the full eligibility chain for one identity. Repo
// errors are logged and treated as ineligible so one bad row never
// wedges acquisition.
func (s *Service) isEligible(ctx context.Context, identityEmail string) bool {
	now := s.now()

	block, err := s.repos.BlockRepository.Get(ctx, identityEmail)
	if err != nil && !errors.Is(err, repository.ErrBlockNotFound) {
		s.log.Errorf("Eligibility check failed reading block for %s: %v", identityEmail, err)
		return false
	}
	if block != nil && block.IsActive(now) {
		return false
	}

	limit, err := s.limits.EffectiveDailyLimit(ctx, identityEmail)
	if err != nil {
		s.log.Errorf("Eligibility check failed resolving limit for %s: %v", identityEmail, err)
		return false
	}
	sent, err := s.repos.SendCounterRepository.GetCount(ctx, identityEmail, utils.DateKey(now.In(s.loc)))
	if err != nil {
		s.log.Errorf("Eligibility check failed reading counter for %s: %v", identityEmail, err)
		return false
	}
	if sent >= limit {
		return false
	}

	cooldown, err := s.repos.CooldownRepository.Get(ctx, identityEmail)
	if err != nil && !errors.Is(err, repository.ErrCooldownNotFound) {
		s.log.Errorf("Eligibility check failed reading cooldown for %s: %v", identityEmail, err)
		return false
	}
	if cooldown != nil && cooldown.AvailableAt.After(now) {
		return false
	}

	reputation, err := s.repos.ReputationRepository.Get(ctx, identityEmail)
	if err != nil && !errors.Is(err, repository.ErrReputationNotFound) {
		s.log.Errorf("Eligibility check failed reading reputation for %s: %v", identityEmail, err)
		return false
	}
	if reputation != nil && reputation.Score <= float64(s.cfg.ReputationPauseThreshold) {
		return false
	}

	return true
}

// Acquire tries to hand out an eligible identity for one send, locking
// it exclusively. It never blocks: identities already held by another
// goroutine are passed over. The second return is false when nothing
// was acquired, whether because the window is closed, the recipient's
// domain is throttled, or no identity is eligible and free. A preferred
// identity outside the configured roster is ignored.
//
// The caller must Release exactly once per successful Acquire.
func (s *Service) Acquire(ctx context.Context, preferred, recipientEmail string) (string, bool) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PoolService.Acquire")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if !s.withinSendingWindow(s.now()) {
		span.LogKV("outcome", "window closed")
		return "", false
	}

	if recipientEmail != "" && !s.behavior.CanSendTo(recipientEmail) {
		span.LogKV("outcome", "recipient domain throttled")
		return "", false
	}

	candidates := make([]string, 0, len(s.cfg.Identities))
	if preferred != "" {
		// Only roster identities exist; an unknown name must not
		// fabricate a persona with no credential or warm-up history.
		if _, ok := s.roster[preferred]; ok {
			candidates = append(candidates, preferred)
		} else {
			s.log.Warnf("Preferred identity %s is not in the roster, falling back to the pool", preferred)
		}
	}
	for _, identity := range s.shuffledRoster() {
		if identity != preferred {
			candidates = append(candidates, identity)
		}
	}

	for _, identity := range candidates {
		if !s.isEligible(ctx, identity) {
			continue
		}
		if !s.lockFor(identity).TryLock() {
			continue
		}
		// Re-check under the lock so a send recorded between the
		// eligibility read and the lock cannot push past the limit.
		if !s.isEligible(ctx, identity) {
			s.lockFor(identity).Unlock()
			continue
		}
		tracing.TagIdentity(span, identity)
		return identity, true
	}

	span.LogKV("outcome", "no eligible identity free")
	return "", false
}

// Release returns an acquired identity to the pool.
func (s *Service) Release(identityEmail string) {
	s.lockFor(identityEmail).Unlock()
}

func (s *Service) shuffledRoster() []string {
	roster := make([]string, len(s.cfg.Identities))
	copy(roster, s.cfg.Identities)
	s.behavior.Shuffle(len(roster), func(i, j int) {
		roster[i], roster[j] = roster[j], roster[i]
	})
	return roster
}

// RecordSend books one completed send against an identity: bumps the
// daily counter, arms the next cooldown and counts the recipient's
// domain. It also fires the daily-target event the moment the global
// total reaches the target.
func (s *Service) RecordSend(ctx context.Context, identityEmail, recipientEmail string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PoolService.RecordSend")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagIdentity(span, identityEmail)

	now := s.now()
	dateKey := utils.DateKey(now.In(s.loc))

	if err := s.repos.SendCounterRepository.IncrementSend(ctx, identityEmail, dateKey); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "increment send counter")
	}

	cooldownMinutes := s.nextCooldownMinutes(ctx, identityEmail, now)
	if err := s.repos.CooldownRepository.RecordSend(ctx, identityEmail, now, cooldownMinutes); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "record cooldown")
	}
	span.LogKV("cooldownMinutes", cooldownMinutes)

	if recipientEmail != "" {
		s.behavior.RecordDomainSend(recipientEmail)
	}

	if s.cfg.GlobalDailyTarget > 0 {
		total, err := s.repos.SendCounterRepository.GetTotalForDate(ctx, dateKey)
		if err != nil {
			s.log.Errorf("Failed to read daily total after send: %v", err)
		} else if total == s.cfg.GlobalDailyTarget {
			s.log.Infof("Daily target of %d sends reached", total)
			s.publishTargetReached(ctx, dateKey)
		}
	}

	return nil
}

// nextCooldownMinutes picks the wait before this identity may send
// again. With a global target the controller computes the ideal pace to
// finish the remaining volume by end of window and takes the shorter of
// that and the human draw; deliverability then stretches the result by
// the bounce slowdown.
func (s *Service) nextCooldownMinutes(ctx context.Context, identityEmail string, now time.Time) int {
	human := s.behavior.HumanCooldownMinutes(now)
	chosen := human

	if s.cfg.GlobalDailyTarget > 0 {
		local := now.In(s.loc)
		hoursLeft := float64(s.cfg.SendingHourEnd) - (float64(local.Hour()) + float64(local.Minute())/60)
		if hoursLeft < 0.25 {
			hoursLeft = 0.25
		}

		total, err := s.repos.SendCounterRepository.GetTotalForDate(ctx, utils.DateKey(local))
		if err != nil {
			s.log.Errorf("Pacing fell back to human cooldown, failed reading daily total: %v", err)
			total = s.cfg.GlobalDailyTarget
		}

		remaining := s.cfg.GlobalDailyTarget - total
		if remaining > 0 {
			active, err := s.limits.ActiveIdentityCount(ctx)
			if err != nil || active < 1 {
				active = 1
			}

			perHour := float64(remaining) / (hoursLeft * float64(active))
			ideal := 60.0 / perHour
			if ideal < float64(s.cfg.PacingFloorMinutes) {
				ideal = float64(s.cfg.PacingFloorMinutes)
			}
			if ideal > float64(s.cfg.PacingCeilingMinutes) {
				ideal = float64(s.cfg.PacingCeilingMinutes)
			}

			if int(math.Round(ideal)) < chosen {
				chosen = int(math.Round(ideal))
			}
		}
	}

	multiplier := 1.0
	reputation, err := s.repos.ReputationRepository.Get(ctx, identityEmail)
	if err == nil && reputation != nil {
		multiplier = behavior.BounceSlowdownMultiplier(reputation.BounceRate)
	}

	return int(math.Round(float64(chosen) * multiplier))
}

// MarkBlocked records a provider block against an identity and emits
// the corresponding event. Blocking is idempotent per call site; each
// call extends the window and bumps the historical count.
func (s *Service) MarkBlocked(ctx context.Context, identityEmail, reason string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PoolService.MarkBlocked")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagIdentity(span, identityEmail)

	now := s.now()
	if err := s.repos.BlockRepository.MarkBlocked(ctx, identityEmail, now, s.cfg.BlockCooldownHours, reason); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "mark blocked")
	}

	s.log.Warnf("Identity %s blocked for %dh: %s", identityEmail, s.cfg.BlockCooldownHours, reason)

	if s.events != nil {
		block, err := s.repos.BlockRepository.Get(ctx, identityEmail)
		blockCount := 0
		blockedUntil := now.Add(time.Duration(s.cfg.BlockCooldownHours) * time.Hour)
		if err == nil && block != nil {
			blockCount = block.BlockCount
			blockedUntil = block.BlockedUntil
		}
		publishErr := s.events.PublishIdentityBlocked(ctx, dto.IdentityBlocked{
			IdentityEmail: identityEmail,
			Reason:        reason,
			BlockedUntil:  blockedUntil,
			BlockCount:    blockCount,
		})
		if publishErr != nil {
			s.log.Errorf("Failed to publish block event for %s: %v", identityEmail, publishErr)
		}
	}

	return nil
}

// ResetCooldown is the operator override that clears an identity's
// cooldown immediately.
func (s *Service) ResetCooldown(ctx context.Context, identityEmail string) error {
	return errors.Wrap(s.repos.CooldownRepository.Reset(ctx, identityEmail), "reset cooldown")
}

// GetWaitTime reports how long until some identity can send. Zero means
// one is ready now. ErrPoolExhausted means waiting will not help today:
// every identity is blocked, paused or at its daily limit.
func (s *Service) GetWaitTime(ctx context.Context) (time.Duration, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PoolService.GetWaitTime")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	now := s.now()
	dateKey := utils.DateKey(now.In(s.loc))

	var minWait time.Duration
	haveCandidate := false

	for _, identity := range s.cfg.Identities {
		block, err := s.repos.BlockRepository.Get(ctx, identity)
		if err != nil && !errors.Is(err, repository.ErrBlockNotFound) {
			tracing.TraceErr(span, err)
			return 0, errors.Wrap(err, "get block record")
		}
		if block != nil && block.IsActive(now) {
			continue
		}

		reputation, err := s.repos.ReputationRepository.Get(ctx, identity)
		if err != nil && !errors.Is(err, repository.ErrReputationNotFound) {
			tracing.TraceErr(span, err)
			return 0, errors.Wrap(err, "get reputation record")
		}
		if reputation != nil && reputation.Score <= float64(s.cfg.ReputationPauseThreshold) {
			continue
		}

		limit, err := s.limits.EffectiveDailyLimit(ctx, identity)
		if err != nil {
			tracing.TraceErr(span, err)
			return 0, err
		}
		sent, err := s.repos.SendCounterRepository.GetCount(ctx, identity, dateKey)
		if err != nil {
			tracing.TraceErr(span, err)
			return 0, errors.Wrap(err, "get send count")
		}
		if sent >= limit {
			continue
		}

		cooldown, err := s.repos.CooldownRepository.Get(ctx, identity)
		if err != nil && !errors.Is(err, repository.ErrCooldownNotFound) {
			tracing.TraceErr(span, err)
			return 0, errors.Wrap(err, "get cooldown record")
		}
		if cooldown == nil || !cooldown.AvailableAt.After(now) {
			return 0, nil
		}

		wait := cooldown.AvailableAt.Sub(now)
		if !haveCandidate || wait < minWait {
			minWait = wait
			haveCandidate = true
		}
	}

	if !haveCandidate {
		return 0, ErrPoolExhausted
	}
	return minWait, nil
}

// GetAccountStatus builds the full status view for one identity.
func (s *Service) GetAccountStatus(ctx context.Context, identityEmail string) (*IdentityStatus, error) {
	now := s.now()
	dateKey := utils.DateKey(now.In(s.loc))

	status := &IdentityStatus{
		Identity: identityEmail,
		State:    enum.IdentityStateEligible,
	}

	limit, err := s.limits.EffectiveDailyLimit(ctx, identityEmail)
	if err != nil {
		return nil, err
	}
	status.DailyLimit = limit

	sent, err := s.repos.SendCounterRepository.GetCount(ctx, identityEmail, dateKey)
	if err != nil {
		return nil, errors.Wrap(err, "get send count")
	}
	status.SentToday = sent
	status.Remaining = limit - sent
	if status.Remaining < 0 {
		status.Remaining = 0
	}

	block, err := s.repos.BlockRepository.Get(ctx, identityEmail)
	if err != nil && !errors.Is(err, repository.ErrBlockNotFound) {
		return nil, errors.Wrap(err, "get block record")
	}
	if block != nil && block.IsActive(now) {
		status.Blocked = true
		blockedUntil := block.BlockedUntil
		status.BlockedUntil = &blockedUntil
	}

	reputation, err := s.repos.ReputationRepository.Get(ctx, identityEmail)
	if err != nil && !errors.Is(err, repository.ErrReputationNotFound) {
		return nil, errors.Wrap(err, "get reputation record")
	}
	if reputation != nil {
		score := reputation.Score
		status.Score = &score
	}

	cooldown, err := s.repos.CooldownRepository.Get(ctx, identityEmail)
	if err != nil && !errors.Is(err, repository.ErrCooldownNotFound) {
		return nil, errors.Wrap(err, "get cooldown record")
	}
	if cooldown != nil && cooldown.AvailableAt.After(now) {
		status.InCooldown = true
		availableAt := cooldown.AvailableAt
		status.AvailableAt = &availableAt
	}

	if s.lockFor(identityEmail).TryLock() {
		s.lockFor(identityEmail).Unlock()
	} else {
		status.Locked = true
	}

	switch {
	case status.Blocked:
		status.State = enum.IdentityStateBlocked
	case status.Score != nil && *status.Score <= float64(s.cfg.ReputationPauseThreshold):
		status.State = enum.IdentityStateReputationPaused
	case status.Remaining == 0:
		status.State = enum.IdentityStateAtDailyLimit
	case status.InCooldown:
		status.State = enum.IdentityStateInCooldown
	case status.Locked:
		status.State = enum.IdentityStateLocked
	}

	return status, nil
}

// GetAllStatus returns every roster identity's status sorted by email.
func (s *Service) GetAllStatus(ctx context.Context) ([]IdentityStatus, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PoolService.GetAllStatus")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	statuses := make([]IdentityStatus, 0, len(s.cfg.Identities))
	for _, identity := range s.cfg.Identities {
		status, err := s.GetAccountStatus(ctx, identity)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		statuses = append(statuses, *status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Identity < statuses[j].Identity
	})
	return statuses, nil
}

func (s *Service) publishTargetReached(ctx context.Context, dateKey string) {
	if s.events == nil {
		return
	}
	err := s.events.PublishDailyTargetReached(ctx, dto.DailyTargetReached{
		Date:   dateKey,
		Target: s.cfg.GlobalDailyTarget,
	})
	if err != nil {
		s.log.Errorf("Failed to publish daily target event: %v", err)
	}
}
