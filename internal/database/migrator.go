package database

import (
	"bloom-portal/internal/models"
)

// Migrator handles database migrations
type Migrator struct {
	db *Connection
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *Connection) *Migrator {
	return &Migrator{db: db}
}

// Up creates or updates the activity table
func (m *Migrator) Up() error {
	return m.db.AutoMigrate(&models.Activity{})
}

// Down drops the activity table
func (m *Migrator) Down() error {
	return m.db.Migrator().DropTable(&models.Activity{})
}
