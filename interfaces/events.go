package interfaces

import (
	"context"

	"github.com/primestrides/sendstack/dto"
)

// EventsPublisher emits scheduler events for downstream consumers
// (alerting, the campaign orchestrator's dashboards).
type EventsPublisher interface {
	PublishIdentityBlocked(ctx context.Context, event dto.IdentityBlocked) error
	PublishReputationAlert(ctx context.Context, event dto.ReputationAlert) error
	PublishDailyTargetReached(ctx context.Context, event dto.DailyTargetReached) error
	Close() error
}
