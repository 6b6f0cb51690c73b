package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/primestrides/sendstack/internal/enum"
	"github.com/primestrides/sendstack/internal/models"
)

// LedgerOutcomes aggregates delivery outcomes for one identity over a
// trailing window.
type LedgerOutcomes struct {
	Sent    int64 `gorm:"column:sent"`
	Bounced int64 `gorm:"column:bounced"`
	Replied int64 `gorm:"column:replied"`
	Failed  int64 `gorm:"column:failed"`
}

// Attempts is the denominator for bounce and failure rates. Replies
// are excluded, they are outcomes of already counted sends.
func (o *LedgerOutcomes) Attempts() int64 {
	return o.Sent + o.Bounced + o.Failed
}

// MessageLedgerRepository is the read-only view over the message ledger
// owned by the send pipeline.
type MessageLedgerRepository interface {
	AggregateOutcomes(ctx context.Context, identityEmail string, since time.Time) (*LedgerOutcomes, error)
	CountByStatusSince(ctx context.Context, status enum.SendStatus, since time.Time) (int64, error)
	CountByStatus(ctx context.Context, status enum.SendStatus) (int64, error)
}

// GormMessageLedgerRepository implements MessageLedgerRepository using GORM
type GormMessageLedgerRepository struct {
	db *gorm.DB
}

func NewMessageLedgerRepository(db *gorm.DB) MessageLedgerRepository {
	return &GormMessageLedgerRepository{db: db}
}

func (r *GormMessageLedgerRepository) AggregateOutcomes(ctx context.Context, identityEmail string, since time.Time) (*LedgerOutcomes, error) {
	if identityEmail == "" {
		return nil, ErrInvalidInput
	}

	var outcomes LedgerOutcomes
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select(
			"COUNT(*) FILTER (WHERE status = ?) AS sent, "+
				"COUNT(*) FILTER (WHERE status = ?) AS bounced, "+
				"COUNT(*) FILTER (WHERE status = ?) AS replied, "+
				"COUNT(*) FILTER (WHERE status = ?) AS failed",
			enum.SendStatusSent, enum.SendStatusBounced, enum.SendStatusReplied, enum.SendStatusFailed,
		).
		Where("identity_email = ? AND created_at >= ?", identityEmail, since).
		Scan(&outcomes)
	if result.Error != nil {
		return nil, result.Error
	}

	return &outcomes, nil
}

func (r *GormMessageLedgerRepository) CountByStatusSince(ctx context.Context, status enum.SendStatus, since time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("status = ? AND created_at >= ?", status, since).
		Count(&count)

	return count, result.Error
}

func (r *GormMessageLedgerRepository) CountByStatus(ctx context.Context, status enum.SendStatus) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("status = ?", status).
		Count(&count)

	return count, result.Error
}
