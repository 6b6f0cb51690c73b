package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/primestrides/sendstack/internal/models"
)

// IdentityRepository defines the interface for sending identity data operations
type IdentityRepository interface {
	EnsureExists(ctx context.Context, identity *models.SendingIdentity) error
	GetByEmail(ctx context.Context, email string) (*models.SendingIdentity, error)
	List(ctx context.Context) ([]models.SendingIdentity, error)
}

// GormIdentityRepository implements IdentityRepository using GORM
type GormIdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &GormIdentityRepository{db: db}
}

// EnsureExists inserts the identity if it is not already known. An
// existing row is left untouched so the original creation date, which
// drives warm-up age, is preserved across restarts.
func (r *GormIdentityRepository) EnsureExists(ctx context.Context, identity *models.SendingIdentity) error {
	if identity == nil || identity.EmailAddress == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email_address"}},
			DoNothing: true,
		}).
		Create(identity).Error
}

func (r *GormIdentityRepository) GetByEmail(ctx context.Context, email string) (*models.SendingIdentity, error) {
	if email == "" {
		return nil, ErrInvalidInput
	}

	var identity models.SendingIdentity
	result := r.db.WithContext(ctx).Where("email_address = ?", email).First(&identity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, result.Error
	}

	return &identity, nil
}

func (r *GormIdentityRepository) List(ctx context.Context) ([]models.SendingIdentity, error) {
	var identities []models.SendingIdentity
	result := r.db.WithContext(ctx).Order("email_address ASC").Find(&identities)
	if result.Error != nil {
		return nil, result.Error
	}

	return identities, nil
}
