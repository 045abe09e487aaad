package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/models"
	"github.com/playgrid/playgrid-server/internal/repositories"
)

// AssetService ingests uploaded game assets: it enforces the per-type
// policy, streams the bytes into the blob store with a checksum computed
// on the same pass, and records the new version while deactivating the
// previous active main build inside one transaction.
type AssetService struct {
	db       *gorm.DB
	blobs    repositories.BlobStore
	settings PolicySource
	log      *logger.Logger
}

func NewAssetService(db *gorm.DB, blobs repositories.BlobStore, settings PolicySource, log *logger.Logger) *AssetService {
	return &AssetService{
		db:       db,
		blobs:    blobs,
		settings: settings,
		log:      log.With("service", "AssetService"),
	}
}

type UploadInput struct {
	DeveloperID uuid.UUID
	GameID      uint
	AssetType   string
	FileName    string
	Size        int64
	MimeType    string
	Version     string
	Body        io.Reader
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Upload validates and persists one asset version. For main_game uploads
// every previously active build of the same game is swept inactive before
// the new row is inserted; sweep and insert share a transaction so two
// concurrent uploads cannot both end up active.
func (s *AssetService) Upload(ctx context.Context, in UploadInput) (*models.GameAsset, error) {
	if _, err := s.ownedGame(in.DeveloperID, in.GameID); err != nil {
		return nil, err
	}

	if !models.ValidAssetType(in.AssetType) {
		return nil, validationErr("asset_type", "unknown asset type %q", in.AssetType)
	}
	if in.FileName == "" {
		return nil, validationErr("asset_file", "missing uploaded file")
	}

	policy := PolicyFor(in.AssetType, s.settings)
	if in.Size > policy.MaxSizeBytes {
		return nil, validationErr("file_size",
			"file is %d bytes, limit for %s is %d bytes", in.Size, in.AssetType, policy.MaxSizeBytes)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.FileName), "."))
	if !policy.AllowsExtension(ext) {
		return nil, validationErr("file_extension",
			"extension %q is not allowed (allowed: %s)", ext, strings.Join(policy.Extensions(), ","))
	}

	key := fmt.Sprintf("games/%d/assets/%s_%s",
		in.GameID, uuid.New().String(), sanitizeFileName(in.FileName))

	// One pass: stream to the blob store while hashing and counting. A
	// stream that outruns the declared size aborts the upload rather
	// than trusting the client; the partial blob is removed.
	hash := sha256.New()
	limited := io.LimitReader(in.Body, in.Size+1)
	counted := &countingReader{r: io.TeeReader(limited, hash)}
	storedPath, err := s.blobs.Store(ctx, key, counted)
	if err != nil {
		return nil, fmt.Errorf("store asset blob: %w", err)
	}
	if counted.n > in.Size {
		_ = s.blobs.Delete(ctx, storedPath)
		return nil, validationErr("file_size",
			"file stream exceeds the declared size of %d bytes", in.Size)
	}
	checksum := hex.EncodeToString(hash.Sum(nil))

	asset := models.GameAsset{
		GameID:        in.GameID,
		AssetType:     in.AssetType,
		FileName:      in.FileName,
		FilePath:      storedPath,
		FileSizeBytes: in.Size,
		FileExtension: ext,
		MimeType:      in.MimeType,
		Checksum:      checksum,
		Version:       in.Version,
		IsCompressed:  ext == "zip" || ext == "gz",
		IsActive:      true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.AssetType == models.AssetTypeMainGame {
			// Lock the owning game row; it serializes concurrent
			// main-build uploads for the same game.
			var locked models.Game
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&locked, in.GameID).Error; err != nil {
				return err
			}

			// Sweep, not a single-row swap: historic data may hold more
			// than one active row.
			if err := tx.Model(&models.GameAsset{}).
				Where("game_id = ? AND asset_type = ? AND is_active = ?",
					in.GameID, models.AssetTypeMainGame, true).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&asset).Error; err != nil {
			return err
		}

		if in.AssetType == models.AssetTypeMainGame && in.Version != "" {
			if err := tx.Model(&models.Game{}).Where("id = ?", in.GameID).
				Updates(map[string]interface{}{
					"version":      in.Version,
					"last_updated": time.Now(),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("asset uploaded",
		"game_id", in.GameID,
		"asset_id", asset.ID,
		"asset_type", in.AssetType,
		"size_bytes", in.Size,
		"checksum", checksum,
		"version", in.Version,
	)
	return &asset, nil
}

// ListAssets returns all versions for a game owned by the developer,
// newest first.
func (s *AssetService) ListAssets(ctx context.Context, developerID uuid.UUID, gameID uint) ([]models.GameAsset, error) {
	if _, err := s.ownedGame(developerID, gameID); err != nil {
		return nil, err
	}
	var assets []models.GameAsset
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("uploaded_at DESC, id DESC").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

func (s *AssetService) ownedGame(developerID uuid.UUID, gameID uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	if game.DeveloperID != developerID {
		return nil, ErrForbidden
	}
	return &game, nil
}

func sanitizeFileName(name string) string {
	base := filepath.Base(name)
	return unsafeNameChars.ReplaceAllString(base, "_")
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
