package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/models"
)

type Repositories struct {
	IdentityRepository      IdentityRepository
	SendCounterRepository   SendCounterRepository
	CooldownRepository      CooldownRepository
	BlockRepository         BlockRepository
	ReputationRepository    ReputationRepository
	MessageLedgerRepository MessageLedgerRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		IdentityRepository:      NewIdentityRepository(db),
		SendCounterRepository:   NewSendCounterRepository(db),
		CooldownRepository:      NewCooldownRepository(db),
		BlockRepository:         NewBlockRepository(db),
		ReputationRepository:    NewReputationRepository(db),
		MessageLedgerRepository: NewMessageLedgerRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, gormDB *gorm.DB) error {
	db, err := gormDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	// The messages table is owned by the send pipeline; migrating it
	// here keeps local and test environments self-contained.
	err = gormDB.AutoMigrate(
		&models.SendingIdentity{},
		&models.DailySendCounter{},
		&models.SendCooldown{},
		&models.IdentityBlock{},
		&models.IdentityReputation{},
		&models.Message{},
	)

	db.Close()

	db, _ = gormDB.DB()
	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxConn)
	db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
