package db

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres with the given DSN.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is empty")
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// Migrate runs GORM auto-migrations for the core tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	return conn.AutoMigrate(
		&User{},
		&Room{},
		&PlayerSession{},
		&Round{},
		&Submission{},
		&Vote{},
		&Word{},
		&Event{},
	)
}
