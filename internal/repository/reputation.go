package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/primestrides/sendstack/internal/models"
)

// ReputationRepository defines the interface for reputation record operations
type ReputationRepository interface {
	Save(ctx context.Context, reputation *models.IdentityReputation) error
	Get(ctx context.Context, identityEmail string) (*models.IdentityReputation, error)
}

// GormReputationRepository implements ReputationRepository using GORM
type GormReputationRepository struct {
	db *gorm.DB
}

func NewReputationRepository(db *gorm.DB) ReputationRepository {
	return &GormReputationRepository{db: db}
}

func (r *GormReputationRepository) Save(ctx context.Context, reputation *models.IdentityReputation) error {
	if reputation == nil || reputation.IdentityEmail == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity_email"}},
			UpdateAll: true,
		}).
		Create(reputation).Error
}

func (r *GormReputationRepository) Get(ctx context.Context, identityEmail string) (*models.IdentityReputation, error) {
	if identityEmail == "" {
		return nil, ErrInvalidInput
	}

	var reputation models.IdentityReputation
	result := r.db.WithContext(ctx).Where("identity_email = ?", identityEmail).First(&reputation)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReputationNotFound
		}
		return nil, result.Error
	}

	return &reputation, nil
}
