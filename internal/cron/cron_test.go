package cron

import (
	"os"
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"

	"github.com/primestrides/sendstack/config"
	cron_config "github.com/primestrides/sendstack/internal/cron/config"
	"github.com/primestrides/sendstack/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	log := getLogger()

	// Act
	cm := NewCronManager(cfg, log, nil, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_StartCron(t *testing.T) {
	// Set environment variable for testing
	os.Setenv("CRON_SCHEDULE_REPUTATION_REFRESH", "0 0 * * * *")
	os.Setenv("CRON_SCHEDULE_SESSION_PLAN", "CRON_TZ=America/New_York 0 0 9 * * *")
	os.Setenv("CRON_SCHEDULE_COUNTER_CLEANUP", "0 30 3 * * *")
	defer os.Unsetenv("CRON_SCHEDULE_REPUTATION_REFRESH")
	defer os.Unsetenv("CRON_SCHEDULE_SESSION_PLAN")
	defer os.Unsetenv("CRON_SCHEDULE_COUNTER_CLEANUP")

	// Arrange
	cfg := &config.Config{
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	log := getLogger()
	cm := NewCronManager(cfg, log, nil, nil)

	// Create a mock cron for testing
	mockCron := cronv3.New(cronv3.WithSeconds())

	// Register jobs directly
	var cronConfig cron_config.Config
	cronConfig.CronScheduleReputationRefresh = "0 0 * * * *"
	cronConfig.CronScheduleSessionPlan = "CRON_TZ=America/New_York 0 0 9 * * *"
	cronConfig.CronScheduleCounterCleanup = "0 30 3 * * *"

	// Act - register jobs manually
	id, err := mockCron.AddFunc(cronConfig.CronScheduleReputationRefresh, func() {})
	assert.NoError(t, err)
	cm.jobIDs["reputation_refresh"] = id

	planId, err := mockCron.AddFunc(cronConfig.CronScheduleSessionPlan, func() {})
	assert.NoError(t, err)
	cm.jobIDs["session_plan"] = planId

	cleanupId, err := mockCron.AddFunc(cronConfig.CronScheduleCounterCleanup, func() {})
	assert.NoError(t, err)
	cm.jobIDs["counter_cleanup"] = cleanupId

	cm.cron = mockCron

	// Assert
	assert.NotNil(t, cm.cron)
	assert.Equal(t, 3, len(cm.jobIDs))
}

func TestCronManager_Stop(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	log := getLogger()
	cm := NewCronManager(cfg, log, nil, nil)

	// Create a mock cron for testing
	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	// Act
	cm.Stop()

	// Assert
	select {
	case <-cm.stopCh:
		// Channel is closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}
