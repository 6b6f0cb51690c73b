package services

import (
	"time"

	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/interfaces"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/services/behavior"
	"github.com/primestrides/sendstack/services/events"
	"github.com/primestrides/sendstack/services/limits"
	"github.com/primestrides/sendstack/services/pipeline"
	"github.com/primestrides/sendstack/services/pool"
	"github.com/primestrides/sendstack/services/reputation"
)

type Services struct {
	Behavior        *behavior.Service
	Limits          *limits.Service
	Reputation      *reputation.Service
	Pool            *pool.Service
	FetchSizer      *pipeline.FetchSizer
	EventsPublisher interfaces.EventsPublisher
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	loc, err := time.LoadLocation(cfg.SchedulerConfig.TargetTimezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %s", cfg.SchedulerConfig.TargetTimezone)
	}

	// events are optional; without a broker the scheduler only logs
	var publisher interfaces.EventsPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		publisherConfig := &events.PublisherConfig{
			MessageTTL:          events.DefaultMessageTTL,
			MaxRetries:          events.DefaultMaxRetries,
			PublishTimeout:      events.DefaultPublishTimeout,
			ReconnectBackoff:    events.DefaultReconnectBackoff,
			MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
		}
		publisher, err = events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, publisherConfig)
		if err != nil {
			return nil, err
		}
	}

	behaviorService := behavior.NewService(cfg.SchedulerConfig, log, loc)
	limitsService := limits.NewService(cfg.SchedulerConfig, repos)

	services := Services{
		Behavior:        behaviorService,
		Limits:          limitsService,
		Reputation:      reputation.NewService(cfg.SchedulerConfig, log, repos, publisher),
		Pool:            pool.NewService(cfg.SchedulerConfig, log, repos, limitsService, behaviorService, publisher, loc),
		FetchSizer:      pipeline.NewFetchSizer(cfg.SchedulerConfig, log, repos, loc),
		EventsPublisher: publisher,
	}

	return &services, nil
}
