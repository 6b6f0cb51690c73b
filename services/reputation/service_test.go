package reputation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/enum"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/models"
	"github.com/primestrides/sendstack/internal/repository"
)

type fakeLedgerRepo struct {
	outcomes map[string]*repository.LedgerOutcomes
}

func (f *fakeLedgerRepo) AggregateOutcomes(ctx context.Context, identityEmail string, since time.Time) (*repository.LedgerOutcomes, error) {
	if outcomes, ok := f.outcomes[identityEmail]; ok {
		return outcomes, nil
	}
	return &repository.LedgerOutcomes{}, nil
}

func (f *fakeLedgerRepo) CountByStatusSince(ctx context.Context, status enum.SendStatus, since time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeLedgerRepo) CountByStatus(ctx context.Context, status enum.SendStatus) (int64, error) {
	return 0, nil
}

type fakeBlockRepo struct {
	blocks map[string]*models.IdentityBlock
}

func (f *fakeBlockRepo) MarkBlocked(ctx context.Context, identityEmail string, blockedAt time.Time, cooldownHours int, reason string) error {
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
	return nil, nil
}

type fakeReputationRepo struct {
	saved map[string]*models.IdentityReputation
}

func (f *fakeReputationRepo) Save(ctx context.Context, reputation *models.IdentityReputation) error {
	if f.saved == nil {
		f.saved = make(map[string]*models.IdentityReputation)
	}
	f.saved[reputation.IdentityEmail] = reputation
	return nil
}

func (f *fakeReputationRepo) Get(ctx context.Context, identityEmail string) (*models.IdentityReputation, error) {
	reputation, ok := f.saved[identityEmail]
	if !ok {
		return nil, repository.ErrReputationNotFound
	}
	return reputation, nil
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestService(ledger *fakeLedgerRepo, blocks *fakeBlockRepo, reputations *fakeReputationRepo) *Service {
	cfg := &config.SchedulerConfig{
		Identities:                 []string{"alice@sender.io"},
		ReputationPauseThreshold:   20,
		ReputationWarningThreshold: 40,
		ReputationWindowDays:       3,
	}
	s := NewService(cfg, testLogger(), &repository.Repositories{
		MessageLedgerRepository: ledger,
		BlockRepository:         blocks,
		ReputationRepository:    reputations,
	}, nil)
	s.now = func() time.Time {
		return time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)
	}
	return s
}

func TestComputeScore_NoRecentActivity(t *testing.T) {
	s := newTestService(&fakeLedgerRepo{}, &fakeBlockRepo{}, &fakeReputationRepo{})

	record, err := s.ComputeScore(context.Background(), "alice@sender.io", 0)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, record.Score)
	assert.Equal(t, "no recent activity", record.Reason)
	assert.Zero(t, record.SampleSize)
}

func TestComputeScore_HealthyIdentity(t *testing.T) {
	ledger := &fakeLedgerRepo{outcomes: map[string]*repository.LedgerOutcomes{
		"alice@sender.io": {Sent: 100},
	}}
	s := newTestService(ledger, &fakeBlockRepo{}, &fakeReputationRepo{})

	record, err := s.ComputeScore(context.Background(), "alice@sender.io", 0)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, record.Score)
	assert.Equal(t, "healthy", record.Reason)
	assert.Equal(t, 100, record.SampleSize)
}

func TestComputeScore_BouncePenalty(t *testing.T) {
	// 6 bounces out of 100 attempts: 1% over tolerance costs 10 points
	ledger := &fakeLedgerRepo{outcomes: map[string]*repository.LedgerOutcomes{
		"alice@sender.io": {Sent: 94, Bounced: 6},
	}}
	s := newTestService(ledger, &fakeBlockRepo{}, &fakeReputationRepo{})

	record, err := s.ComputeScore(context.Background(), "alice@sender.io", 0)
	assert.NoError(t, err)
	assert.InDelta(t, 90.0, record.Score, 0.01)
	assert.Contains(t, record.Reason, "bounce rate")
}

func TestComputeScore_FailurePenaltyIsMilder(t *testing.T) {
	ledger := &fakeLedgerRepo{outcomes: map[string]*repository.LedgerOutcomes{
		"alice@sender.io": {Sent: 94, Failed: 6},
	}}
	s := newTestService(ledger, &fakeBlockRepo{}, &fakeReputationRepo{})

	record, err := s.ComputeScore(context.Background(), "alice@sender.io", 0)
	assert.NoError(t, err)
	assert.InDelta(t, 97.0, record.Score, 0.01)
}

func TestComputeScore_ReplyBonusIsCapped(t *testing.T) {
	// Heavy bounces with a strong reply rate: the bonus recovers points
	// but never pushes past 100
	ledger := &fakeLedgerRepo{outcomes: map[string]*repository.LedgerOutcomes{
		"alice@sender.io": {Sent: 80, Bounced: 20, Replied: 40},
	}}
	s := newTestService(ledger, &fakeBlockRepo{}, &fakeReputationRepo{})

	record, err := s.ComputeScore(context.Background(), "alice@sender.io", 0)
	assert.NoError(t, err)
	assert.LessOrEqual(t, record.Score, 100.0)
	assert.Contains(t, record.Reason, "reply rate")
}

func TestComputeScore_BlockPenalty(t *testing.T) {
	ledger := &fakeLedgerRepo{outcomes: map[string]*repository.LedgerOutcomes{
		"alice@sender.io": {Sent: 100},
	}}
	blocks := &fakeBlockRepo{blocks: map[string]*models.IdentityBlock{
		"alice@sender.io": {IdentityEmail: "alice@sender.io", BlockCount: 3},
	}}
	s := newTestService(ledger, blocks, &fakeReputationRepo{})

	record, err := s.ComputeScore(context.Background(), "alice@sender.io", 0)
	assert.NoError(t, err)
	assert.InDelta(t, 70.0, record.Score, 0.01)
	assert.Contains(t, record.Reason, "3 historical blocks")
}

func TestComputeScore_ClampedAtZero(t *testing.T) {
	ledger := &fakeLedgerRepo{outcomes: map[string]*repository.LedgerOutcomes{
		"alice@sender.io": {Sent: 50, Bounced: 50},
	}}
	s := newTestService(ledger, &fakeBlockRepo{}, &fakeReputationRepo{})

	record, err := s.ComputeScore(context.Background(), "alice@sender.io", 0)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, record.Score)
}

func TestRefreshAll_PersistsScores(t *testing.T) {
	ledger := &fakeLedgerRepo{outcomes: map[string]*repository.LedgerOutcomes{
		"alice@sender.io": {Sent: 100},
	}}
	reputations := &fakeReputationRepo{}
	s := newTestService(ledger, &fakeBlockRepo{}, reputations)

	err := s.RefreshAll(context.Background())
	assert.NoError(t, err)
	assert.Contains(t, reputations.saved, "alice@sender.io")
	assert.Equal(t, 100.0, reputations.saved["alice@sender.io"].Score)
}
