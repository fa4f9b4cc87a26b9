package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when an optimistic-concurrency update
	// finds the row already modified by someone else.
	ErrVersionConflict = errors.New("version conflict")
)

// Repositories bundles all repositories sharing one gorm connection.
type Repositories struct {
	User   *UserRepository
	Repair *RepairRepository
}

// NewRepositories creates all repositories.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepository(db),
		Repair: NewRepairRepository(db),
	}
}
