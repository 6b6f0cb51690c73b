package models

import (
	"time"

	"github.com/primestrides/sendstack/internal/enum"
)

// Message is the per-message delivery ledger owned by the send
// pipeline. The scheduler only reads it: reputation scoring aggregates
// outcomes over a trailing window and fetch sizing counts today's
// pipeline.
type Message struct {
	ID             string          `gorm:"column:id;type:varchar(50);primaryKey"`
	IdentityEmail  string          `gorm:"column:identity_email;type:varchar(255);index;not null"`
	RecipientEmail string          `gorm:"column:recipient_email;type:varchar(255);index"`
	Status         enum.SendStatus `gorm:"column:status;type:varchar(20);index;not null"`
	SentAt         *time.Time      `gorm:"column:sent_at;type:timestamp;index"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamp;default:current_timestamp;index"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Message) TableName() string {
	return "messages"
}
