package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Identity reputation refresh, hourly
	CronScheduleReputationRefresh string `env:"CRON_SCHEDULE_REPUTATION_REFRESH" envDefault:"0 0 * * * *"`
	// Daily session planning, at window open. The CRON_TZ prefix pins
	// the firing time to the sending timezone regardless of the host
	// clock; keep it in step with TARGET_TIMEZONE.
	CronScheduleSessionPlan string `env:"CRON_SCHEDULE_SESSION_PLAN" envDefault:"CRON_TZ=America/New_York 0 0 9 * * *"`
	// Old daily counter cleanup, nightly
	CronScheduleCounterCleanup string `env:"CRON_SCHEDULE_COUNTER_CLEANUP" envDefault:"0 30 3 * * *"`
}
