package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"slotbook/internal/docstore"
)

func TestMigrateAndHealthCheck(t *testing.T) {
	cfg := GormConfig(false)
	assert.True(t, cfg.TranslateError)

	pg, err := gorm.Open(sqlite.Open("file:migrate?mode=memory&cache=shared"), cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(pg))
	assert.True(t, pg.Migrator().HasTable(&docstore.DocumentRow{}))

	db := &DB{PostgreSQL: pg}
	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, db.Close())
}
