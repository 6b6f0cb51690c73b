package behavior

import (
	"math/rand"
	"time"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/logger"
)

func testConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		Identities:                  []string{"alice@sender.io", "bob@sender.io"},
		TargetTimezone:              "America/New_York",
		SendingHourStart:            9,
		SendingHourEnd:              17,
		EmailsPerDayPerIdentity:     50,
		ProviderDailyCap:            500,
		WarmupEnabled:               true,
		WarmupWeeklyLimits:          []int{5, 12, 25, 45},
		WarmdownRamp:                []int{3, 5, 10},
		BlockCooldownHours:          24,
		MinMinutesBetweenEmails:     8,
		MaxMinutesBetweenEmails:     14,
		CooldownJitterPct:           0.3,
		SkipSendProbability:         0.05,
		PacingFloorMinutes:          3,
		PacingCeilingMinutes:        20,
		SessionsPerDay:              3,
		SessionEmailsMin:            3,
		SessionEmailsMax:            7,
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

// newTestService builds a Service with a deterministic random source
// and a frozen clock, a Tuesday mid-window in New York.
func newTestService(seed int64) (*Service, *time.Location) {
	loc, _ := time.LoadLocation("America/New_York")
	s := NewService(testConfig(), testLogger(), loc)
	s.rng = rand.New(rand.NewSource(seed))
	s.now = func() time.Time {
		return time.Date(2025, time.March, 11, 10, 30, 0, 0, loc)
	}
	s.throttle.now = s.now
	return s, loc
}
