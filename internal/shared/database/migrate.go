package database

import (
	"slotbook/internal/docstore"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := docstore.Migrate(db); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
