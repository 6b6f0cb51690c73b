package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/primestrides/sendstack/internal/utils"
)

// SendingIdentity is a configured sending persona. The roster is loaded
// from configuration at startup and upserted here so that the creation
// date (which drives warm-up age) survives restarts.
type SendingIdentity struct {
	ID            string    `gorm:"column:id;type:varchar(50);primaryKey"`
	EmailAddress  string    `gorm:"column:email_address;type:varchar(255);uniqueIndex;not null"`
	DisplayName   string    `gorm:"column:display_name;type:varchar(255)"`
	CredentialRef string    `gorm:"column:credential_ref;type:varchar(255)"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (SendingIdentity) TableName() string {
	return "sending_identities"
}

func (i *SendingIdentity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = utils.GenerateNanoIDWithPrefix("identity", 21)
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utils.Now()
	}
	return nil
}

// AgeDays is the identity age used by the warm-up tiers.
func (i *SendingIdentity) AgeDays(at time.Time) int {
	age := int(at.Sub(i.CreatedAt).Hours() / 24)
	if age < 0 {
		return 0
	}
	return age
}
