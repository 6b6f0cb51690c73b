package config

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12333"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type DatabaseConfig struct {
	Host            string `env:"SENDSTACK_POSTGRES_HOST,required"`
	Port            string `env:"SENDSTACK_POSTGRES_PORT,required"`
	User            string `env:"SENDSTACK_POSTGRES_USER,required"`
	DBName          string `env:"SENDSTACK_POSTGRES_DB_NAME,required"`
	Password        string `env:"SENDSTACK_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"SENDSTACK_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"SENDSTACK_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"SENDSTACK_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"SENDSTACK_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"SENDSTACK_POSTGRES_SSL_MODE"`
}

// SchedulerConfig holds every admission policy knob. The identity
// roster is the only required value; everything else carries the
// defaults the production system ran with.
type SchedulerConfig struct {
	Identities            []string `env:"SENDING_IDENTITIES,required" envSeparator:","`
	IdentityDisplayNames  []string `env:"SENDING_IDENTITY_NAMES" envSeparator:","`
	IdentityCredentialRef string   `env:"SENDING_IDENTITY_CREDENTIAL_REF"`

	TargetTimezone   string `env:"TARGET_TIMEZONE" envDefault:"America/New_York"`
	SendingHourStart int    `env:"SENDING_HOUR_START" envDefault:"9"`
	SendingHourEnd   int    `env:"SENDING_HOUR_END" envDefault:"17"`
	SendOnWeekends   bool   `env:"SEND_ON_WEEKENDS" envDefault:"false"`

	EmailsPerDayPerIdentity int   `env:"EMAILS_PER_DAY_PER_IDENTITY" envDefault:"50"`
	GlobalDailyTarget       int   `env:"GLOBAL_DAILY_TARGET" envDefault:"0"`
	ProviderDailyCap        int   `env:"PROVIDER_DAILY_CAP" envDefault:"500"`
	WarmupEnabled           bool  `env:"WARMUP_ENABLED" envDefault:"true"`
	WarmupWeeklyLimits      []int `env:"WARMUP_WEEKLY_LIMITS" envSeparator:"," envDefault:"5,12,25,45"`
	WarmdownRamp            []int `env:"WARMDOWN_RAMP" envSeparator:"," envDefault:"3,5,10"`
	BlockCooldownHours      int   `env:"BLOCK_COOLDOWN_HOURS" envDefault:"24"`

	MinMinutesBetweenEmails int     `env:"MIN_MINUTES_BETWEEN_EMAILS" envDefault:"8"`
	MaxMinutesBetweenEmails int     `env:"MAX_MINUTES_BETWEEN_EMAILS" envDefault:"14"`
	CooldownJitterPct       float64 `env:"COOLDOWN_JITTER_PCT" envDefault:"0.3"`
	SkipSendProbability     float64 `env:"SKIP_SEND_PROBABILITY" envDefault:"0.05"`
	PacingFloorMinutes      int     `env:"PACING_FLOOR_MINUTES" envDefault:"3"`
	PacingCeilingMinutes    int     `env:"PACING_CEILING_MINUTES" envDefault:"20"`

	SessionsPerDay   int `env:"SESSIONS_PER_DAY" envDefault:"3"`
	SessionEmailsMin int `env:"SESSION_EMAILS_MIN" envDefault:"3"`
	SessionEmailsMax int `env:"SESSION_EMAILS_MAX" envDefault:"7"`

	MaxEmailsPerRecipientDomain int `env:"MAX_EMAILS_PER_RECIPIENT_DOMAIN" envDefault:"5"`
	WebmailDomainMultiplier     int `env:"WEBMAIL_DOMAIN_MULTIPLIER" envDefault:"10"`

	ReputationPauseThreshold   int `env:"REPUTATION_PAUSE_THRESHOLD" envDefault:"20"`
	ReputationWarningThreshold int `env:"REPUTATION_WARNING_THRESHOLD" envDefault:"40"`
	ReputationWindowDays       int `env:"REPUTATION_WINDOW_DAYS" envDefault:"3"`

	FetchSkipCompensation float64 `env:"FETCH_SKIP_COMPENSATION" envDefault:"1.35"`
	FetchSafetyBuffer     float64 `env:"FETCH_SAFETY_BUFFER" envDefault:"1.1"`
	FetchMinBatch         int     `env:"FETCH_MIN_BATCH" envDefault:"50"`
	FetchMaxBatch         int     `env:"FETCH_MAX_BATCH" envDefault:"500"`
}
