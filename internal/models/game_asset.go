package models

import (
	"time"
)

// Asset types accepted by the upload endpoint. main_game is the playable
// build archive; everything else is loose supporting content.
const (
	AssetTypeMainGame = "main_game"
	AssetTypeTexture  = "texture"
	AssetTypeSound    = "sound"
	AssetTypeModel    = "model"
	AssetTypeScript   = "script"
	AssetTypeOther    = "other"
)

func ValidAssetType(t string) bool {
	switch t {
	case AssetTypeMainGame, AssetTypeTexture, AssetTypeSound, AssetTypeModel, AssetTypeScript, AssetTypeOther:
		return true
	}
	return false
}

// GameAsset is one uploaded file version. Superseded versions are kept
// with is_active=false, never deleted; for a given (game_id, main_game)
// at most one row is active at a time.
type GameAsset struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	GameID        uint      `json:"gameId" gorm:"index:idx_game_assets_game_type,priority:1;not null"` // foreign key
	AssetType     string    `json:"assetType" gorm:"index:idx_game_assets_game_type,priority:2;not null"`
	FileName      string    `json:"fileName" gorm:"not null"`
	FilePath      string    `json:"filePath" gorm:"not null"` // blob-store relative path
	FileSizeBytes int64     `json:"fileSizeBytes" gorm:"not null"`
	FileExtension string    `json:"fileExtension"`
	MimeType      string    `json:"mimeType"`
	Checksum      string    `json:"checksum" gorm:"index"` // sha256 hex of stored bytes
	Version       string    `json:"version"`
	UploadedAt    time.Time `json:"uploadedAt" gorm:"autoCreateTime"`
	IsCompressed  bool      `json:"isCompressed" gorm:"default:false"`
	IsActive      bool      `json:"isActive" gorm:"default:false;index"`
}
