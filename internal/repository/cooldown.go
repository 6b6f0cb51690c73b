package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/primestrides/sendstack/internal/models"
	"github.com/primestrides/sendstack/internal/utils"
)

// CooldownRepository defines the interface for send cooldown operations
type CooldownRepository interface {
	RecordSend(ctx context.Context, identityEmail string, sentAt time.Time, cooldownMinutes int) error
	Get(ctx context.Context, identityEmail string) (*models.SendCooldown, error)
	Reset(ctx context.Context, identityEmail string) error
}

// GormCooldownRepository implements CooldownRepository using GORM
type GormCooldownRepository struct {
	db *gorm.DB
}

func NewCooldownRepository(db *gorm.DB) CooldownRepository {
	return &GormCooldownRepository{db: db}
}

// RecordSend upserts the cooldown row. available_at is guarded with
// GREATEST at the datastore so it never moves backward under
// concurrent writers; Reset is the only way to shorten it.
func (r *GormCooldownRepository) RecordSend(ctx context.Context, identityEmail string, sentAt time.Time, cooldownMinutes int) error {
	if identityEmail == "" || cooldownMinutes < 0 {
		return ErrInvalidInput
	}

	availableAt := sentAt.Add(time.Duration(cooldownMinutes) * time.Minute)

	cooldown := models.SendCooldown{
		IdentityEmail:   identityEmail,
		LastSendAt:      sentAt,
		AvailableAt:     availableAt,
		CooldownMinutes: cooldownMinutes,
		TotalSends:      1,
		UpdatedAt:       utils.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "identity_email"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_send_at":     sentAt,
				"available_at":     gorm.Expr("GREATEST(send_cooldowns.available_at, ?)", availableAt),
				"cooldown_minutes": cooldownMinutes,
				"total_sends":      gorm.Expr("send_cooldowns.total_sends + 1"),
				"updated_at":       utils.Now(),
			}),
		}).
		Create(&cooldown).Error
}

func (r *GormCooldownRepository) Get(ctx context.Context, identityEmail string) (*models.SendCooldown, error) {
	if identityEmail == "" {
		return nil, ErrInvalidInput
	}

	var cooldown models.SendCooldown
	result := r.db.WithContext(ctx).Where("identity_email = ?", identityEmail).First(&cooldown)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCooldownNotFound
		}
		return nil, result.Error
	}

	return &cooldown, nil
}

// Reset is the explicit operator override that clears a cooldown.
func (r *GormCooldownRepository) Reset(ctx context.Context, identityEmail string) error {
	if identityEmail == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).
		Where("identity_email = ?", identityEmail).
		Delete(&models.SendCooldown{}).Error
}
