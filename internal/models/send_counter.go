package models

import (
	"time"
)

// DailySendCounter counts successful sends per identity per calendar
// date. Rows are created lazily and incremented atomically; they are
// never decremented.
type DailySendCounter struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement"`
	IdentityEmail string    `gorm:"column:identity_email;type:varchar(255);uniqueIndex:idx_counter_identity_date;not null"`
	Date          string    `gorm:"column:date;type:varchar(10);uniqueIndex:idx_counter_identity_date;not null"`
	Count         int       `gorm:"column:count;not null;default:0"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (DailySendCounter) TableName() string {
	return "daily_send_counters"
}
