package models

import (
	"time"

	"github.com/google/uuid"
)

// CompatibilityReport is a developer-submitted result of test-playing a
// build in a particular browser/OS combination.
type CompatibilityReport struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	GameID         uint      `json:"gameId" gorm:"index;not null"`
	AssetID        uint      `json:"assetId" gorm:"index;not null"`
	DeveloperID    uuid.UUID `json:"developerId" gorm:"type:uuid;index;not null"`
	Browser        string    `json:"browser" gorm:"not null"`
	BrowserVersion string    `json:"browserVersion"`
	OS             string    `json:"os"`
	Playable       bool      `json:"playable" gorm:"default:false"`
	Notes          string    `json:"notes" gorm:"type:text"`
	CreatedAt      time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
