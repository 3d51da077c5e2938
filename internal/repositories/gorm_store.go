package repositories

import (
	"errors"
	"fmt"

	"unishop/internal/models"

	"gorm.io/gorm"
)

// NewGORMStore returns a store backed by db. The schema must already exist,
// see MigrateGORM.
func NewGORMStore(db *gorm.DB) *Store {
	return &Store{
		Users:      NewGORMUserRepository(db),
		Products:   NewGORMProductRepository(db),
		Categories: NewGORMCategoryRepository(db),
		Orders:     NewGORMOrderRepository(db),
		Reviews:    NewGORMReviewRepository(db),
		Donations:  NewGORMDonationRepository(db),
	}
}

// MigrateGORM creates or updates the tables of every model.
func MigrateGORM(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Category{},
		&models.Order{},
		&models.Review{},
		&models.Donation{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// gormError maps gorm errors onto the repository sentinels. The *gorm.DB
// must be opened with TranslateError for duplicate keys to be recognised.
func gormError(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
