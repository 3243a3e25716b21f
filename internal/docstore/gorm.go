package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DocumentRow is the relational shape of a stored document.
type DocumentRow struct {
	Collection string    `gorm:"primaryKey;size:64"`
	ID         string    `gorm:"primaryKey;size:128"`
	Parent     string    `gorm:"size:128;index:idx_documents_parent"`
	Version    int64     `gorm:"not null;default:1"`
	Data       string    `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (DocumentRow) TableName() string {
	return "documents"
}

type gormBackend struct {
	db *gorm.DB
}

// NewGorm returns a Store persisting documents through db. The documents
// table must already exist (see Migrate).
func NewGorm(db *gorm.DB) Store {
	return &store{b: &gormBackend{db: db}}
}

// Migrate creates or updates the documents table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&DocumentRow{})
}

func (g *gormBackend) load(ctx context.Context, k key) (record, bool, error) {
	var row DocumentRow
	err := g.db.WithContext(ctx).
		Where("collection = ? AND id = ?", k.collection, k.id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return record{}, false, nil
	}
	if err != nil {
		return record{}, false, fmt.Errorf("load %s/%s: %w", k.collection, k.id, err)
	}
	return rowToRecord(row), true, nil
}

func (g *gormBackend) list(ctx context.Context, collection, parent string) (map[string]record, error) {
	query := g.db.WithContext(ctx).Where("collection = ?", collection)
	if parent != "" {
		query = query.Where("parent = ?", parent)
	}

	var rows []DocumentRow
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.ID] = rowToRecord(row)
	}
	return out, nil
}

func (g *gormBackend) commit(ctx context.Context, reads map[key]int64, writes []write) error {
	written := make(map[key]bool, len(writes))
	for _, w := range writes {
		written[w.key] = true
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Keys that are written are validated by their conditional statement below.
		for k, seen := range reads {
			if written[k] {
				continue
			}
			current, err := currentVersion(tx, k)
			if err != nil {
				return err
			}
			if current != seen {
				return fmt.Errorf("%s/%s: %w", k.collection, k.id, ErrConflict)
			}
		}

		for _, w := range writes {
			if err := commitWrite(tx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// commitWrite applies one buffered write guarded by the version the
// transaction observed.
func commitWrite(tx *gorm.DB, w write) error {
	expected := w.expected
	if expected < 0 {
		current, err := currentVersion(tx, w.key)
		if err != nil {
			return err
		}
		expected = current
	}

	switch {
	case w.op == opDelete:
		if expected == 0 {
			return nil
		}
		res := tx.Where("collection = ? AND id = ? AND version = ?", w.key.collection, w.key.id, expected).
			Delete(&DocumentRow{})
		return checkAffected(res, w.key)

	case expected == 0:
		row := DocumentRow{
			Collection: w.key.collection,
			ID:         w.key.id,
			Parent:     w.parent,
			Version:    1,
			Data:       string(w.data),
		}
		err := tx.Create(&row).Error
		// Requires gorm.Config.TranslateError so drivers report gorm.ErrDuplicatedKey.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s/%s: %w", w.key.collection, w.key.id, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert %s/%s: %w", w.key.collection, w.key.id, err)
		}
		return nil

	default:
		res := tx.Model(&DocumentRow{}).
			Where("collection = ? AND id = ? AND version = ?", w.key.collection, w.key.id, expected).
			Updates(map[string]any{
				"parent":     w.parent,
				"data":       string(w.data),
				"version":    expected + 1,
				"updated_at": time.Now().UTC(),
			})
		return checkAffected(res, w.key)
	}
}

func currentVersion(tx *gorm.DB, k key) (int64, error) {
	var versions []int64
	err := tx.Model(&DocumentRow{}).
		Where("collection = ? AND id = ?", k.collection, k.id).
		Limit(1).
		Pluck("version", &versions).Error
	if err != nil {
		return 0, fmt.Errorf("version %s/%s: %w", k.collection, k.id, err)
	}
	if len(versions) == 0 {
		return 0, nil
	}
	return versions[0], nil
}

func checkAffected(res *gorm.DB, k key) error {
	if res.Error != nil {
		return fmt.Errorf("write %s/%s: %w", k.collection, k.id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", k.collection, k.id, ErrConflict)
	}
	return nil
}

func rowToRecord(row DocumentRow) record {
	return record{parent: row.Parent, version: row.Version, data: []byte(row.Data)}
}
