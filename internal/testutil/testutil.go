// Package testutil holds shared fixtures for package tests: an
// in-memory sqlite database migrated with the full schema, and seed
// helpers for the aggregates the asset pipeline hangs off.
package testutil

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/playgrid/playgrid-server/internal/models"
)

// DB opens a fresh in-memory database. One connection only: every
// in-memory sqlite connection is its own database, and a single
// connection also serializes concurrent transactions the way the
// production postgres row lock does.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Developer{},
		&models.Game{},
		&models.GameAsset{},
		&models.SystemSetting{},
		&models.CompatibilityReport{},
	)
	if err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func SeedDeveloper(tb testing.TB, db *gorm.DB, username string) *models.Developer {
	tb.Helper()
	dev := &models.Developer{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Password: "pw",
	}
	if err := db.Create(dev).Error; err != nil {
		tb.Fatalf("seed developer: %v", err)
	}
	return dev
}

func SeedGame(tb testing.TB, db *gorm.DB, developerID uuid.UUID, title string) *models.Game {
	tb.Helper()
	game := &models.Game{
		DeveloperID: developerID,
		Title:       title,
		Status:      models.GameStatusDraft,
	}
	if err := db.Create(game).Error; err != nil {
		tb.Fatalf("seed game: %v", err)
	}
	return game
}

func SeedSetting(tb testing.TB, db *gorm.DB, category, name, value string) {
	tb.Helper()
	setting := &models.SystemSetting{Category: category, Name: name, Value: value}
	if err := db.Create(setting).Error; err != nil {
		tb.Fatalf("seed setting: %v", err)
	}
}

// MakeZip builds an in-memory archive from path -> content pairs.
func MakeZip(tb testing.TB, files map[string]string) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			tb.Fatalf("zip entry %q: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			tb.Fatalf("zip write %q: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
