package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the PostgreSQL-specific guards on the documents table
func MigrateConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	// Versions start at 1 and only ever go up
	err := db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_documents_version_positive') THEN
				ALTER TABLE documents ADD CONSTRAINT chk_documents_version_positive CHECK (version >= 1);
			END IF;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	// Listing bookings of a venue filters on both columns
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_collection_parent
		ON documents (collection, parent);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
