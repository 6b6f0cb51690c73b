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

// BlockRepository defines the interface for identity block operations
type BlockRepository interface {
	MarkBlocked(ctx context.Context, identityEmail string, blockedAt time.Time, cooldownHours int, reason string) error
	Get(ctx context.Context, identityEmail string) (*models.IdentityBlock, error)
	ActiveBlockEmails(ctx context.Context, at time.Time) ([]string, error)
}

// GormBlockRepository implements BlockRepository using GORM
type GormBlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &GormBlockRepository{db: db}
}

// MarkBlocked upserts the block row. block_count is incremented at the
// datastore so repeated blocks keep their monotonic history.
func (r *GormBlockRepository) MarkBlocked(ctx context.Context, identityEmail string, blockedAt time.Time, cooldownHours int, reason string) error {
	if identityEmail == "" || cooldownHours <= 0 {
		return ErrInvalidInput
	}

	blockedUntil := blockedAt.Add(time.Duration(cooldownHours) * time.Hour)

	block := models.IdentityBlock{
		IdentityEmail: identityEmail,
		BlockedAt:     blockedAt,
		BlockedUntil:  blockedUntil,
		CooldownHours: cooldownHours,
		BlockCount:    1,
		Reason:        reason,
		UpdatedAt:     utils.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "identity_email"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"blocked_at":     blockedAt,
				"blocked_until":  blockedUntil,
				"cooldown_hours": cooldownHours,
				"block_count":    gorm.Expr("identity_blocks.block_count + 1"),
				"reason":         reason,
				"updated_at":     utils.Now(),
			}),
		}).
		Create(&block).Error
}

func (r *GormBlockRepository) Get(ctx context.Context, identityEmail string) (*models.IdentityBlock, error) {
	if identityEmail == "" {
		return nil, ErrInvalidInput
	}

	var block models.IdentityBlock
	result := r.db.WithContext(ctx).Where("identity_email = ?", identityEmail).First(&block)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, result.Error
	}

	return &block, nil
}

// ActiveBlockEmails lists identities whose block window is still open.
// The global-target share divides by the roster minus this set, so it
// must be read fresh on every call, never cached.
func (r *GormBlockRepository) ActiveBlockEmails(ctx context.Context, at time.Time) ([]string, error) {
	var emails []string
	result := r.db.WithContext(ctx).
		Model(&models.IdentityBlock{}).
		Where("blocked_until > ?", at).
		Pluck("identity_email", &emails)
	if result.Error != nil {
		return nil, result.Error
	}

	return emails, nil
}
