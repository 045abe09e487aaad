package repositories

import (
	"errors"

	"github.com/playgrid/playgrid-server/internal/models"
	"gorm.io/gorm"
)

// SettingsRepo reads the generic category/name/value settings table.
// Lookups are done fresh per call; ingest traffic is low enough that
// caching is not worth the invalidation question.
type SettingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the raw value for (category, name), or ok=false when the
// setting is absent.
func (r *SettingsRepo) Get(category, name string) (string, bool) {
	var setting models.SystemSetting
	err := r.db.Where("category = ? AND name = ?", category, name).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		// A broken settings read behaves like an unset value; callers
		// fall back to their defaults.
		return "", false
	}
	return setting.Value, true
}
