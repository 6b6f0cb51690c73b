package models

import (
	"time"
)

// SendCooldown is the per-identity pacing record. AvailableAt only
// moves forward; the single exception is an explicit operator reset.
type SendCooldown struct {
	IdentityEmail   string    `gorm:"column:identity_email;type:varchar(255);primaryKey"`
	LastSendAt      time.Time `gorm:"column:last_send_at;type:timestamp;not null"`
	AvailableAt     time.Time `gorm:"column:available_at;type:timestamp;not null;index"`
	CooldownMinutes int       `gorm:"column:cooldown_minutes;not null"`
	TotalSends      int       `gorm:"column:total_sends;not null;default:0"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (SendCooldown) TableName() string {
	return "send_cooldowns"
}
