package models

import (
	"time"
)

// SystemSetting is a generic category/name/value setting row. The asset
// pipeline reads max_game_file_size_mb and allowed_game_file_types under
// category "game".
type SystemSetting struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Category  string    `json:"category" gorm:"uniqueIndex:idx_settings_category_name,priority:1;not null"`
	Name      string    `json:"name" gorm:"uniqueIndex:idx_settings_category_name,priority:2;not null"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}
