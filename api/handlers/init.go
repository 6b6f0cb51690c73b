package handlers

import (
	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/services"
)

type APIHandlers struct {
	Scheduler  *SchedulerHandler
	Identities *IdentitiesHandler
}

func InitHandlers(cfg *config.SchedulerConfig, s *services.Services, repos *repository.Repositories) *APIHandlers {
	return &APIHandlers{
		Scheduler:  NewSchedulerHandler(cfg, s),
		Identities: NewIdentitiesHandler(s, repos),
	}
}
