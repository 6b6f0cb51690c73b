package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/primestrides/sendstack/config"
	cron_config "github.com/primestrides/sendstack/internal/cron/config"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/internal/tracing"
	"github.com/primestrides/sendstack/internal/utils"
	"github.com/primestrides/sendstack/services"
)

const (
	// GroupScheduler is the group for scheduler related jobs
	GroupScheduler = "scheduler"

	// counterRetentionDays is how long daily counter rows are kept
	counterRetentionDays = 90
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupScheduler: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg      *config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	services *services.Services
	repos    *repository.Repositories
	stopCh   chan struct{}
	jobIDs   map[string]cronv3.EntryID
}

func NewCronManager(cfg *config.Config, log logger.Logger, svcs *services.Services, repos *repository.Repositories) *CronManager {
	return &CronManager{
		cfg:      cfg,
		log:      log,
		services: svcs,
		repos:    repos,
		stopCh:   make(chan struct{}),
		jobIDs:   make(map[string]cronv3.EntryID),
	}
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Identity reputation refresh job
	if cronConfig.CronScheduleReputationRefresh != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleReputationRefresh, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupScheduler].Lock()
			defer jobLocks.locks[GroupScheduler].Unlock()
			cm.refreshReputations()
		})
		if err != nil {
			cm.log.Fatalf("Could not add reputation refresh cron job: %v", err)
		}
		cm.jobIDs["reputation_refresh"] = id
		cm.log.Infof("Registered reputation refresh job with schedule: %s", cronConfig.CronScheduleReputationRefresh)
	}

	// Daily session planning job
	if cronConfig.CronScheduleSessionPlan != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSessionPlan, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupScheduler].Lock()
			defer jobLocks.locks[GroupScheduler].Unlock()
			cm.planDailySessions()
		})
		if err != nil {
			cm.log.Fatalf("Could not add session plan cron job: %v", err)
		}
		cm.jobIDs["session_plan"] = id
		cm.log.Infof("Registered session plan job with schedule: %s", cronConfig.CronScheduleSessionPlan)
	}

	// Counter retention job
	if cronConfig.CronScheduleCounterCleanup != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleCounterCleanup, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupScheduler].Lock()
			defer jobLocks.locks[GroupScheduler].Unlock()
			cm.cleanupOldCounters()
		})
		if err != nil {
			cm.log.Fatalf("Could not add counter cleanup cron job: %v", err)
		}
		cm.jobIDs["counter_cleanup"] = id
		cm.log.Infof("Registered counter cleanup job with schedule: %s", cronConfig.CronScheduleCounterCleanup)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) refreshReputations() {
	cm.log.Info("Running identity reputation refresh")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.refreshReputations")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if err := cm.services.Reputation.RefreshAll(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to refresh reputations: %v", err)
		return
	}

	cm.log.Info("Successfully completed reputation refresh")
}

func (cm *CronManager) planDailySessions() {
	cm.log.Info("Planning today's sending sessions")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.planDailySessions")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	schedulerCfg := cm.cfg.SchedulerConfig
	for _, identity := range schedulerCfg.Identities {
		limit, err := cm.services.Limits.EffectiveDailyLimit(ctx, identity)
		if err != nil {
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to resolve daily limit for %s: %v", identity, err)
			continue
		}

		sessions := cm.services.Behavior.PlanDailySessions(utils.Now(), schedulerCfg.SessionsPerDay, limit)
		for _, session := range sessions {
			cm.log.Infof("Planned session for %s: %d emails from %s, %dm apart",
				identity, session.EmailCount, session.Start.Format(time.Kitchen), session.GapMinutes)
		}
	}
}

func (cm *CronManager) cleanupOldCounters() {
	cm.log.Info("Cleaning up old daily send counters")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.cleanupOldCounters")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	cutoff := utils.DateKey(utils.Now().AddDate(0, 0, -counterRetentionDays))
	deleted, err := cm.repos.SendCounterRepository.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to delete old counters: %v", err)
		return
	}

	cm.log.Infof("Deleted %d counter rows older than %s", deleted, cutoff)
}
