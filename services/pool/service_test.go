package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/dto"
	"github.com/primestrides/sendstack/internal/enum"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/models"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/services/behavior"
	"github.com/primestrides/sendstack/services/limits"
)

type fakeBlockRepo struct {
	blocks map[string]*models.IdentityBlock
}

func (f *fakeBlockRepo) MarkBlocked(ctx context.Context, identityEmail string, blockedAt time.Time, cooldownHours int, reason string) error {
	if f.blocks == nil {
		f.blocks = make(map[string]*models.IdentityBlock)
	}
	block, ok := f.blocks[identityEmail]
	if !ok {
		block = &models.IdentityBlock{IdentityEmail: identityEmail}
		f.blocks[identityEmail] = block
	}
	block.BlockedAt = blockedAt
	block.BlockedUntil = blockedAt.Add(time.Duration(cooldownHours) * time.Hour)
	block.CooldownHours = cooldownHours
	block.BlockCount++
	block.Reason = reason
	return nil
}

func (f *fakeBlockRepo) Get(ctx context.Context, identityEmail string) (*models.IdentityBlock, error) {
	block, ok := f.blocks[identityEmail]
	if !ok {
		return nil, repository.ErrBlockNotFound
	}
	return block, nil
}

func (f *fakeBlockRepo) ActiveBlockEmails(ctx context.Context, at time.Time) ([]string, error) {
	var emails []string
	for email, block := range f.blocks {
		if block.IsActive(at) {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

type fakeCounterRepo struct {
	counts map[string]int
}

func (f *fakeCounterRepo) key(identityEmail, date string) string {
	return identityEmail + "|" + date
}

func (f *fakeCounterRepo) IncrementSend(ctx context.Context, identityEmail, date string) error {
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[f.key(identityEmail, date)]++
	return nil
}

func (f *fakeCounterRepo) GetCount(ctx context.Context, identityEmail, date string) (int, error) {
	return f.counts[f.key(identityEmail, date)], nil
}

func (f *fakeCounterRepo) GetTotalForDate(ctx context.Context, date string) (int, error) {
	total := 0
	for key, count := range f.counts {
		if len(key) > len(date) && key[len(key)-len(date):] == date {
			total += count
		}
	}
	return total, nil
}

func (f *fakeCounterRepo) DeleteOlderThan(ctx context.Context, date string) (int64, error) {
	return 0, nil
}

type fakeCooldownRepo struct {
	cooldowns map[string]*models.SendCooldown
}

func (f *fakeCooldownRepo) RecordSend(ctx context.Context, identityEmail string, sentAt time.Time, cooldownMinutes int) error {
	if f.cooldowns == nil {
		f.cooldowns = make(map[string]*models.SendCooldown)
	}
	availableAt := sentAt.Add(time.Duration(cooldownMinutes) * time.Minute)
	cooldown, ok := f.cooldowns[identityEmail]
	if !ok {
		f.cooldowns[identityEmail] = &models.SendCooldown{
			IdentityEmail:   identityEmail,
			LastSendAt:      sentAt,
			AvailableAt:     availableAt,
			CooldownMinutes: cooldownMinutes,
			TotalSends:      1,
		}
		return nil
	}
	cooldown.LastSendAt = sentAt
	if availableAt.After(cooldown.AvailableAt) {
		cooldown.AvailableAt = availableAt
	}
	cooldown.CooldownMinutes = cooldownMinutes
	cooldown.TotalSends++
	return nil
}

func (f *fakeCooldownRepo) Get(ctx context.Context, identityEmail string) (*models.SendCooldown, error) {
	cooldown, ok := f.cooldowns[identityEmail]
	if !ok {
		return nil, repository.ErrCooldownNotFound
	}
	return cooldown, nil
}

func (f *fakeCooldownRepo) Reset(ctx context.Context, identityEmail string) error {
	delete(f.cooldowns, identityEmail)
	return nil
}

type fakeReputationRepo struct {
	reputations map[string]*models.IdentityReputation
}

func (f *fakeReputationRepo) Save(ctx context.Context, reputation *models.IdentityReputation) error {
	if f.reputations == nil {
		f.reputations = make(map[string]*models.IdentityReputation)
	}
	f.reputations[reputation.IdentityEmail] = reputation
	return nil
}

func (f *fakeReputationRepo) Get(ctx context.Context, identityEmail string) (*models.IdentityReputation, error) {
	reputation, ok := f.reputations[identityEmail]
	if !ok {
		return nil, repository.ErrReputationNotFound
	}
	return reputation, nil
}

type fakeEventsPublisher struct {
	blocked       []dto.IdentityBlocked
	alerts        []dto.ReputationAlert
	targetReached []dto.DailyTargetReached
}

func (f *fakeEventsPublisher) PublishIdentityBlocked(ctx context.Context, event dto.IdentityBlocked) error {
	f.blocked = append(f.blocked, event)
	return nil
}

func (f *fakeEventsPublisher) PublishReputationAlert(ctx context.Context, event dto.ReputationAlert) error {
	f.alerts = append(f.alerts, event)
	return nil
}

func (f *fakeEventsPublisher) PublishDailyTargetReached(ctx context.Context, event dto.DailyTargetReached) error {
	f.targetReached = append(f.targetReached, event)
	return nil
}

func (f *fakeEventsPublisher) Close() error { return nil }

type poolFixture struct {
	service     *Service
	blocks      *fakeBlockRepo
	counters    *fakeCounterRepo
	cooldowns   *fakeCooldownRepo
	reputations *fakeReputationRepo
	events      *fakeEventsPublisher
	loc         *time.Location
	now         time.Time
}

func testConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		Identities:                  []string{"alice@sender.io", "bob@sender.io"},
		TargetTimezone:              "America/New_York",
		SendingHourStart:            9,
		SendingHourEnd:              17,
		EmailsPerDayPerIdentity:     50,
		ProviderDailyCap:            500,
		WarmupEnabled:               false,
		WarmupWeeklyLimits:          []int{5, 12, 25, 45},
		WarmdownRamp:                []int{3, 5, 10},
		BlockCooldownHours:          24,
		MinMinutesBetweenEmails:     8,
		MaxMinutesBetweenEmails:     14,
		CooldownJitterPct:           0.3,
		PacingFloorMinutes:          3,
		PacingCeilingMinutes:        20,
		MaxEmailsPerRecipientDomain: 5,
		WebmailDomainMultiplier:     10,
		ReputationPauseThreshold:    20,
		ReputationWarningThreshold:  40,
		ReputationWindowDays:        3,
	}
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

// newFixture freezes the pool clock on a Tuesday mid-window in New
// York. Block windows in tests use far past or far future bounds so
// activity does not depend on any other clock.
func newFixture(cfg *config.SchedulerConfig) *poolFixture {
	loc, _ := time.LoadLocation("America/New_York")
	now := time.Date(2025, time.March, 11, 10, 30, 0, 0, loc)

	f := &poolFixture{
		blocks:      &fakeBlockRepo{},
		counters:    &fakeCounterRepo{},
		cooldowns:   &fakeCooldownRepo{},
		reputations: &fakeReputationRepo{},
		events:      &fakeEventsPublisher{},
		loc:         loc,
		now:         now,
	}

	repos := &repository.Repositories{
		BlockRepository:       f.blocks,
		SendCounterRepository: f.counters,
		CooldownRepository:    f.cooldowns,
		ReputationRepository:  f.reputations,
	}

	limitsService := limits.NewService(cfg, repos)
	behaviorService := behavior.NewService(cfg, testLogger(), loc)

	f.service = NewService(cfg, testLogger(), repos, limitsService, behaviorService, f.events, loc)
	f.service.now = func() time.Time { return f.now }
	return f
}

var farFuture = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestAcquire_ReturnsEligibleIdentity(t *testing.T) {
	f := newFixture(testConfig())

	identity, ok := f.service.Acquire(context.Background(), "", "lead@acme.io")
	assert.True(t, ok)
	assert.Contains(t, []string{"alice@sender.io", "bob@sender.io"}, identity)
	f.service.Release(identity)
}

func TestAcquire_PrefersRequestedIdentity(t *testing.T) {
	f := newFixture(testConfig())

	identity, ok := f.service.Acquire(context.Background(), "bob@sender.io", "")
	assert.True(t, ok)
	assert.Equal(t, "bob@sender.io", identity)
	f.service.Release(identity)
}

func TestAcquire_UnknownPreferredFallsBackToRoster(t *testing.T) {
	f := newFixture(testConfig())

	identity, ok := f.service.Acquire(context.Background(), "ghost@nowhere.io", "")
	assert.True(t, ok)
	assert.NotEqual(t, "ghost@nowhere.io", identity, "identities outside the roster must never be handed out")
	assert.Contains(t, []string{"alice@sender.io", "bob@sender.io"}, identity)
	f.service.Release(identity)
}

func TestAcquire_IsExclusive(t *testing.T) {
	cfg := testConfig()
	cfg.Identities = []string{"alice@sender.io"}
	f := newFixture(cfg)

	identity, ok := f.service.Acquire(context.Background(), "", "")
	assert.True(t, ok)

	_, ok = f.service.Acquire(context.Background(), "", "")
	assert.False(t, ok, "a held identity must not be handed out twice")

	f.service.Release(identity)
	identity, ok = f.service.Acquire(context.Background(), "", "")
	assert.True(t, ok, "released identities return to the pool")
	f.service.Release(identity)
}

func TestAcquire_SkipsBlockedIdentity(t *testing.T) {
	cfg := testConfig()
	f := newFixture(cfg)
	f.blocks.blocks = map[string]*models.IdentityBlock{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", BlockedUntil: farFuture},
	}

	for i := 0; i < 10; i++ {
		identity, ok := f.service.Acquire(context.Background(), "alice@sender.io", "")
		assert.True(t, ok)
		assert.Equal(t, "bob@sender.io", identity, "blocked identities are never acquired")
		f.service.Release(identity)
	}
}

func TestAcquire_SkipsIdentityAtDailyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.EmailsPerDayPerIdentity = 2
	f := newFixture(cfg)

	dateKey := f.now.Format("2006-01-02")
	f.counters.IncrementSend(context.Background(), "alice@sender.io", dateKey)
	f.counters.IncrementSend(context.Background(), "alice@sender.io", dateKey)

	identity, ok := f.service.Acquire(context.Background(), "alice@sender.io", "")
	assert.True(t, ok)
	assert.Equal(t, "bob@sender.io", identity)
	f.service.Release(identity)
}

func TestAcquire_SkipsIdentityInCooldown(t *testing.T) {
	f := newFixture(testConfig())
	f.cooldowns.cooldowns = map[string]*models.SendCooldown{
		"alice@sender.io": {
			IdentityEmail: "alice@sender.io",
			AvailableAt:   f.now.Add(10 * time.Minute),
		},
	}

	identity, ok := f.service.Acquire(context.Background(), "alice@sender.io", "")
	assert.True(t, ok)
	assert.Equal(t, "bob@sender.io", identity)
	f.service.Release(identity)
}

func TestAcquire_ElapsedCooldownIsEligible(t *testing.T) {
	f := newFixture(testConfig())
	f.cooldowns.cooldowns = map[string]*models.SendCooldown{
		"alice@sender.io": {
			IdentityEmail: "alice@sender.io",
			AvailableAt:   f.now.Add(-time.Minute),
		},
	}

	identity, ok := f.service.Acquire(context.Background(), "alice@sender.io", "")
	assert.True(t, ok)
	assert.Equal(t, "alice@sender.io", identity)
	f.service.Release(identity)
}

func TestAcquire_SkipsReputationPausedIdentity(t *testing.T) {
	f := newFixture(testConfig())
	f.reputations.reputations = map[string]*models.IdentityReputation{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", Score: 15},
	}

	identity, ok := f.service.Acquire(context.Background(), "alice@sender.io", "")
	assert.True(t, ok)
	assert.Equal(t, "bob@sender.io", identity)
	f.service.Release(identity)
}

func TestAcquire_ClosedOutsideBusinessHours(t *testing.T) {
	f := newFixture(testConfig())

	f.now = time.Date(2025, time.March, 11, 7, 0, 0, 0, f.loc)
	_, ok := f.service.Acquire(context.Background(), "", "")
	assert.False(t, ok, "before window open")

	f.now = time.Date(2025, time.March, 11, 17, 0, 0, 0, f.loc)
	_, ok = f.service.Acquire(context.Background(), "", "")
	assert.False(t, ok, "window end hour is exclusive")
}

func TestAcquire_ClosedOnWeekends(t *testing.T) {
	f := newFixture(testConfig())

	f.now = time.Date(2025, time.March, 15, 11, 0, 0, 0, f.loc) // Saturday
	_, ok := f.service.Acquire(context.Background(), "", "")
	assert.False(t, ok)
}

func TestAcquire_OpenOnWeekendsWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.SendOnWeekends = true
	f := newFixture(cfg)

	f.now = time.Date(2025, time.March, 15, 11, 0, 0, 0, f.loc) // Saturday
	identity, ok := f.service.Acquire(context.Background(), "", "")
	assert.True(t, ok)
	f.service.Release(identity)
}

func TestAcquire_ClosedOnHolidays(t *testing.T) {
	f := newFixture(testConfig())

	f.now = time.Date(2025, time.December, 25, 11, 0, 0, 0, f.loc) // Thursday
	_, ok := f.service.Acquire(context.Background(), "", "")
	assert.False(t, ok)
}

func TestAcquire_RecipientDomainThrottled(t *testing.T) {
	f := newFixture(testConfig())

	for i := 0; i < 5; i++ {
		identity, ok := f.service.Acquire(context.Background(), "", "lead@acme.io")
		assert.True(t, ok)
		f.service.behavior.RecordDomainSend("lead@acme.io")
		f.service.Release(identity)
	}

	_, ok := f.service.Acquire(context.Background(), "", "other@acme.io")
	assert.False(t, ok, "saturated recipient domain refuses admission")

	identity, ok := f.service.Acquire(context.Background(), "", "lead@globex.com")
	assert.True(t, ok, "other domains still admitted")
	f.service.Release(identity)
}

func TestRecordSend_BumpsCounterAndCooldown(t *testing.T) {
	f := newFixture(testConfig())

	err := f.service.RecordSend(context.Background(), "alice@sender.io", "lead@acme.io")
	assert.NoError(t, err)

	dateKey := f.now.Format("2006-01-02")
	count, _ := f.counters.GetCount(context.Background(), "alice@sender.io", dateKey)
	assert.Equal(t, 1, count)

	cooldown, err := f.cooldowns.Get(context.Background(), "alice@sender.io")
	assert.NoError(t, err)
	assert.True(t, cooldown.AvailableAt.After(f.now))

	assert.Equal(t, 1, f.service.behavior.DomainCount("acme.io"))
}

func TestRecordSend_PacingUnderGlobalTarget(t *testing.T) {
	// A huge remaining volume drives the ideal pace to the floor, which
	// beats any human draw
	cfg := testConfig()
	cfg.GlobalDailyTarget = 10000
	f := newFixture(cfg)

	err := f.service.RecordSend(context.Background(), "alice@sender.io", "")
	assert.NoError(t, err)

	cooldown, err := f.cooldowns.Get(context.Background(), "alice@sender.io")
	assert.NoError(t, err)
	assert.Equal(t, cfg.PacingFloorMinutes, cooldown.CooldownMinutes)
}

func TestRecordSend_BounceSlowdownStretchesCooldown(t *testing.T) {
	cfg := testConfig()
	cfg.GlobalDailyTarget = 10000
	f := newFixture(cfg)
	f.reputations.reputations = map[string]*models.IdentityReputation{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", Score: 60, BounceRate: 0.12},
	}

	err := f.service.RecordSend(context.Background(), "alice@sender.io", "")
	assert.NoError(t, err)

	cooldown, err := f.cooldowns.Get(context.Background(), "alice@sender.io")
	assert.NoError(t, err)
	assert.Equal(t, cfg.PacingFloorMinutes*3, cooldown.CooldownMinutes)
}

func TestRecordSend_PublishesDailyTargetReached(t *testing.T) {
	cfg := testConfig()
	cfg.GlobalDailyTarget = 2
	f := newFixture(cfg)

	assert.NoError(t, f.service.RecordSend(context.Background(), "alice@sender.io", ""))
	assert.Empty(t, f.events.targetReached)

	assert.NoError(t, f.service.RecordSend(context.Background(), "bob@sender.io", ""))
	assert.Len(t, f.events.targetReached, 1)
	assert.Equal(t, 2, f.events.targetReached[0].Target)
}

func TestMarkBlocked_RecordsBlockAndPublishes(t *testing.T) {
	f := newFixture(testConfig())

	err := f.service.MarkBlocked(context.Background(), "alice@sender.io", "550 blocked by provider")
	assert.NoError(t, err)

	block, err := f.blocks.Get(context.Background(), "alice@sender.io")
	assert.NoError(t, err)
	assert.Equal(t, 1, block.BlockCount)
	assert.Equal(t, f.now.Add(24*time.Hour), block.BlockedUntil)

	assert.Len(t, f.events.blocked, 1)
	assert.Equal(t, "alice@sender.io", f.events.blocked[0].IdentityEmail)
}

func TestGetWaitTime_ReadyNow(t *testing.T) {
	f := newFixture(testConfig())

	wait, err := f.service.GetWaitTime(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, wait)
}

func TestGetWaitTime_MinimumAcrossCooldowns(t *testing.T) {
	f := newFixture(testConfig())
	f.cooldowns.cooldowns = map[string]*models.SendCooldown{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", AvailableAt: f.now.Add(20 * time.Minute)},
		"bob@sender.io":   {IdentityEmail: "bob@sender.io", AvailableAt: f.now.Add(8 * time.Minute)},
	}

	wait, err := f.service.GetWaitTime(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 8*time.Minute, wait)
}

func TestGetWaitTime_PoolExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.EmailsPerDayPerIdentity = 1
	f := newFixture(cfg)

	dateKey := f.now.Format("2006-01-02")
	f.counters.IncrementSend(context.Background(), "alice@sender.io", dateKey)
	f.blocks.blocks = map[string]*models.IdentityBlock{
		"bob@sender.io": {IdentityEmail: "bob@sender.io", BlockedUntil: farFuture},
	}

	_, err := f.service.GetWaitTime(context.Background())
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestGetWaitTime_CooldownDoesNotExhaust(t *testing.T) {
	cfg := testConfig()
	cfg.Identities = []string{"alice@sender.io"}
	f := newFixture(cfg)
	f.cooldowns.cooldowns = map[string]*models.SendCooldown{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", AvailableAt: f.now.Add(5 * time.Minute)},
	}

	wait, err := f.service.GetWaitTime(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 5*time.Minute, wait)
}

func TestGetAccountStatus_States(t *testing.T) {
	f := newFixture(testConfig())

	status, err := f.service.GetAccountStatus(context.Background(), "alice@sender.io")
	assert.NoError(t, err)
	assert.Equal(t, enum.IdentityStateEligible, status.State)
	assert.Equal(t, 50, status.DailyLimit)
	assert.Equal(t, 50, status.Remaining)

	f.blocks.blocks = map[string]*models.IdentityBlock{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", BlockedUntil: farFuture},
	}
	status, err = f.service.GetAccountStatus(context.Background(), "alice@sender.io")
	assert.NoError(t, err)
	assert.Equal(t, enum.IdentityStateBlocked, status.State)
	assert.True(t, status.Blocked)
}

func TestGetAccountStatus_CooldownState(t *testing.T) {
	f := newFixture(testConfig())
	f.cooldowns.cooldowns = map[string]*models.SendCooldown{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", AvailableAt: f.now.Add(10 * time.Minute)},
	}

	status, err := f.service.GetAccountStatus(context.Background(), "alice@sender.io")
	assert.NoError(t, err)
	assert.Equal(t, enum.IdentityStateInCooldown, status.State)
	assert.True(t, status.InCooldown)
	assert.NotNil(t, status.AvailableAt)
}

func TestGetAllStatus_SortedRoster(t *testing.T) {
	f := newFixture(testConfig())

	statuses, err := f.service.GetAllStatus(context.Background())
	assert.NoError(t, err)
	assert.Len(t, statuses, 2)
	assert.Equal(t, "alice@sender.io", statuses[0].Identity)
	assert.Equal(t, "bob@sender.io", statuses[1].Identity)
}

func TestResetCooldown(t *testing.T) {
	f := newFixture(testConfig())
	f.cooldowns.cooldowns = map[string]*models.SendCooldown{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", AvailableAt: f.now.Add(time.Hour)},
	}

	assert.NoError(t, f.service.ResetCooldown(context.Background(), "alice@sender.io"))

	identity, ok := f.service.Acquire(context.Background(), "alice@sender.io", "")
	assert.True(t, ok)
	assert.Equal(t, "alice@sender.io", identity)
	f.service.Release(identity)
}

func TestSendsNeverExceedDailyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Identities = []string{"alice@sender.io"}
	cfg.EmailsPerDayPerIdentity = 3
	f := newFixture(cfg)

	sends := 0
	for i := 0; i < 10; i++ {
		identity, ok := f.service.Acquire(context.Background(), "", "")
		if !ok {
			break
		}
		assert.NoError(t, f.service.RecordSend(context.Background(), identity, ""))
		f.service.ResetCooldown(context.Background(), identity)
		f.service.Release(identity)
		sends++
	}

	assert.Equal(t, 3, sends)
}
