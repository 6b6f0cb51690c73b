package models

import (
	"time"
)

// IdentityReputation is the latest computed health score for an
// identity, derived from a rolling window of message ledger outcomes.
type IdentityReputation struct {
	IdentityEmail string    `gorm:"column:identity_email;type:varchar(255);primaryKey"`
	Score         float64   `gorm:"column:score;not null"`
	BounceRate    float64   `gorm:"column:bounce_rate;not null;default:0"`
	ReplyRate     float64   `gorm:"column:reply_rate;not null;default:0"`
	FailRate      float64   `gorm:"column:fail_rate;not null;default:0"`
	SampleSize    int       `gorm:"column:sample_size;not null;default:0"`
	Reason        string    `gorm:"column:reason;type:varchar(500)"`
	ComputedAt    time.Time `gorm:"column:computed_at;type:timestamp;not null"`
}

func (IdentityReputation) TableName() string {
	return "identity_reputations"
}
