package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/primestrides/sendstack/internal/models"
	"github.com/primestrides/sendstack/internal/utils"
)

// SendCounterRepository defines the interface for daily send counter operations
type SendCounterRepository interface {
	IncrementSend(ctx context.Context, identityEmail, date string) error
	GetCount(ctx context.Context, identityEmail, date string) (int, error)
	GetTotalForDate(ctx context.Context, date string) (int, error)
	DeleteOlderThan(ctx context.Context, date string) (int64, error)
}

// GormSendCounterRepository implements SendCounterRepository using GORM
type GormSendCounterRepository struct {
	db *gorm.DB
}

func NewSendCounterRepository(db *gorm.DB) SendCounterRepository {
	return &GormSendCounterRepository{db: db}
}

// IncrementSend lazily creates the (identity, date) row and increments
// it as a single atomic upsert, so concurrent scheduler processes
// sharing the datastore never lose an increment.
func (r *GormSendCounterRepository) IncrementSend(ctx context.Context, identityEmail, date string) error {
	if identityEmail == "" || date == "" {
		return ErrInvalidInput
	}

	counter := models.DailySendCounter{
		IdentityEmail: identityEmail,
		Date:          date,
		Count:         1,
		UpdatedAt:     utils.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "identity_email"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      gorm.Expr("daily_send_counters.count + 1"),
				"updated_at": utils.Now(),
			}),
		}).
		Create(&counter).Error
}

func (r *GormSendCounterRepository) GetCount(ctx context.Context, identityEmail, date string) (int, error) {
	if identityEmail == "" || date == "" {
		return 0, ErrInvalidInput
	}

	var counter models.DailySendCounter
	result := r.db.WithContext(ctx).
		Where("identity_email = ? AND date = ?", identityEmail, date).
		First(&counter)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}

	return counter.Count, nil
}

func (r *GormSendCounterRepository) GetTotalForDate(ctx context.Context, date string) (int, error) {
	if date == "" {
		return 0, ErrInvalidInput
	}

	var total int64
	result := r.db.WithContext(ctx).
		Model(&models.DailySendCounter{}).
		Where("date = ?", date).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(total), nil
}

// DeleteOlderThan removes counter rows for dates before the given date
// key. Counters are only consulted for the current day, so old rows are
// pure housekeeping.
func (r *GormSendCounterRepository) DeleteOlderThan(ctx context.Context, date string) (int64, error) {
	if date == "" {
		return 0, ErrInvalidInput
	}

	result := r.db.WithContext(ctx).
		Where("date < ?", date).
		Delete(&models.DailySendCounter{})

	return result.RowsAffected, result.Error
}
