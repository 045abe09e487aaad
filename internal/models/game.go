package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	GameStatusDraft     = "draft"
	GameStatusPublished = "published"
)

type Game struct {
	ID          uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	DeveloperID uuid.UUID   `json:"developerId" gorm:"type:uuid;index;not null"` // foreign key
	Title       string      `json:"title" gorm:"not null"`
	Description string      `json:"description" gorm:"type:text"`
	Version     string      `json:"version"`
	Status      string      `json:"status" gorm:"default:draft"`
	CreatedAt   time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	LastUpdated time.Time   `json:"lastUpdated"`
	Assets      []GameAsset `json:"assets,omitempty" gorm:"foreignKey:GameID"` // one-to-many relation
}
