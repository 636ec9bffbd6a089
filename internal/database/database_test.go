package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"trading-journal/internal/config"
	"trading-journal/internal/models"
)

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(config.Database{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.Trade{}))
	assert.True(t, db.Migrator().HasTable(&models.User{}))

	// Migrating twice keeps the schema and any rows.
	require.NoError(t, db.Create(&models.User{ID: "u1", Email: "a@b.c", PasswordHash: "x"}).Error)
	require.NoError(t, AutoMigrate(db))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(config.Database{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNewDatabase_TranslatesDuplicateKey(t *testing.T) {
	db, err := NewDatabase(config.Database{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.User{ID: "u1", Email: "a@b.c", PasswordHash: "x"}).Error)
	err = db.Create(&models.User{ID: "u2", Email: "a@b.c", PasswordHash: "y"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
