package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/enum"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/repository"
)

type fakeLedgerRepo struct {
	sentToday   int64
	draftsReady int64
}

func (f *fakeLedgerRepo) AggregateOutcomes(ctx context.Context, identityEmail string, since time.Time) (*repository.LedgerOutcomes, error) {
	return &repository.LedgerOutcomes{}, nil
}

func (f *fakeLedgerRepo) CountByStatusSince(ctx context.Context, status enum.SendStatus, since time.Time) (int64, error) {
	return f.sentToday, nil
}

func (f *fakeLedgerRepo) CountByStatus(ctx context.Context, status enum.SendStatus) (int64, error) {
	return f.draftsReady, nil
}

func newTestSizer(cfg *config.SchedulerConfig, ledger *fakeLedgerRepo) *FetchSizer {
	loc, _ := time.LoadLocation("America/New_York")
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()

	f := NewFetchSizer(cfg, appLogger, &repository.Repositories{
		MessageLedgerRepository: ledger,
	}, loc)
	f.now = func() time.Time {
		return time.Date(2025, time.March, 11, 10, 0, 0, 0, loc)
	}
	return f
}

func testConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		Identities:              []string{"alice@sender.io", "bob@sender.io"},
		EmailsPerDayPerIdentity: 50,
		FetchSkipCompensation:   1.35,
		FetchSafetyBuffer:       1.1,
		FetchMinBatch:           50,
		FetchMaxBatch:           500,
	}
}

func TestLeadsToFetch_TargetAlreadyCovered(t *testing.T) {
	sizer := newTestSizer(testConfig(), &fakeLedgerRepo{sentToday: 60, draftsReady: 40})

	got, err := sizer.LeadsToFetch(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, got)
}

func TestLeadsToFetch_AppliesCompensationAndBuffer(t *testing.T) {
	// 100 target, 0 in pipeline: 100 * 1.35 = 135, * 1.1 = 148
	sizer := newTestSizer(testConfig(), &fakeLedgerRepo{})

	got, err := sizer.LeadsToFetch(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 148, got)
}

func TestLeadsToFetch_ClampedToMinBatch(t *testing.T) {
	sizer := newTestSizer(testConfig(), &fakeLedgerRepo{sentToday: 90, draftsReady: 5})

	got, err := sizer.LeadsToFetch(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 50, got, "small remainders still fetch the minimum batch")
}

func TestLeadsToFetch_ClampedToMaxBatch(t *testing.T) {
	cfg := testConfig()
	cfg.GlobalDailyTarget = 1000
	sizer := newTestSizer(cfg, &fakeLedgerRepo{})

	got, err := sizer.LeadsToFetch(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 500, got)
}

func TestLeadsToFetch_GlobalTargetWins(t *testing.T) {
	cfg := testConfig()
	cfg.GlobalDailyTarget = 200
	sizer := newTestSizer(cfg, &fakeLedgerRepo{sentToday: 100})

	got, err := sizer.LeadsToFetch(context.Background())
	assert.NoError(t, err)
	// 100 remaining * 1.35 * 1.1 = 148
	assert.Equal(t, 148, got)
}
