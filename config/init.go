package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/tracing"
	"github.com/primestrides/sendstack/internal/utils"
)

type Config struct {
	AppConfig       *AppConfig
	Logger          *logger.Config
	Tracing         *tracing.JaegerConfig
	DatabaseConfig  *DatabaseConfig
	SchedulerConfig *SchedulerConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:       &AppConfig{},
		Logger:          &logger.Config{},
		Tracing:         &tracing.JaegerConfig{},
		DatabaseConfig:  &DatabaseConfig{},
		SchedulerConfig: &SchedulerConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading sendstack config: %v", err)
	}

	if err := validateSchedulerConfig(config.SchedulerConfig); err != nil {
		return nil, err
	}

	return config, nil
}

func validateSchedulerConfig(cfg *SchedulerConfig) error {
	cfg.Identities = utils.UniqueEmails(cfg.Identities)
	if len(cfg.Identities) == 0 {
		return errors.New("no sending identities configured")
	}
	if cfg.SendingHourEnd <= cfg.SendingHourStart {
		return errors.New("sending window end hour must be after start hour")
	}
	if len(cfg.WarmupWeeklyLimits) == 0 {
		return errors.New("warm-up weekly limits cannot be empty")
	}
	return nil
}
