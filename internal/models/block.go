package models

import (
	"time"
)

// IdentityBlock records a permanent-rejection signal from the
// transport. BlockCount never decreases; warm-down reads the time
// elapsed since BlockedUntil.
type IdentityBlock struct {
	IdentityEmail string    `gorm:"column:identity_email;type:varchar(255);primaryKey"`
	BlockedAt     time.Time `gorm:"column:blocked_at;type:timestamp;not null"`
	BlockedUntil  time.Time `gorm:"column:blocked_until;type:timestamp;not null;index"`
	CooldownHours int       `gorm:"column:cooldown_hours;not null"`
	BlockCount    int       `gorm:"column:block_count;not null;default:0"`
	Reason        string    `gorm:"column:reason;type:varchar(500)"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (IdentityBlock) TableName() string {
	return "identity_blocks"
}

func (b *IdentityBlock) IsActive(at time.Time) bool {
	return b.BlockedUntil.After(at)
}
