// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"toolrent-content/config"
	"toolrent-content/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated sqlite database stored under t.TempDir(). Foreign
// keys are enforced so cascades behave like postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		filepath.Join(t.TempDir(), "content.db"))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedUser inserts an editor with the given display name.
func SeedUser(t testing.TB, db *gorm.DB, email, displayName string) *models.User {
	t.Helper()

	user := &models.User{
		Username:    email,
		Email:       email,
		Password:    "not-a-real-hash",
		DisplayName: displayName,
		Role:        models.RoleEditor,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func SeedCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, Slug: name}
	require.NoError(t, db.Create(category).Error)
	return category
}
