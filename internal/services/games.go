package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/models"
)

// GameService covers the thin game-aggregate operations the asset
// pipeline hangs off: create/list/get, publish, and test reports.
type GameService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGameService(db *gorm.DB, log *logger.Logger) *GameService {
	return &GameService{db: db, log: log.With("service", "GameService")}
}

type CreateGameInput struct {
	DeveloperID uuid.UUID
	Title       string
	Description string
	Version     string
}

func (s *GameService) Create(ctx context.Context, in CreateGameInput) (*models.Game, error) {
	if in.Title == "" {
		return nil, validationErr("title", "missing game title")
	}
	game := models.Game{
		DeveloperID: in.DeveloperID,
		Title:       in.Title,
		Description: in.Description,
		Version:     in.Version,
		Status:      models.GameStatusDraft,
		LastUpdated: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *GameService) List(ctx context.Context, developerID uuid.UUID) ([]models.Game, error) {
	var games []models.Game
	err := s.db.WithContext(ctx).
		Where("developer_id = ?", developerID).
		Order("created_at DESC").
		Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (s *GameService) Get(ctx context.Context, developerID uuid.UUID, gameID uint) (*models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).Preload("Assets").First(&game, gameID).Error
	if err != nil {
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

// Publish flips a game to published. A game without an active main build
// has nothing to play, so it cannot be published.
func (s *GameService) Publish(ctx context.Context, developerID uuid.UUID, gameID uint) (*models.Game, error) {
	game, err := s.Get(ctx, developerID, gameID)
	if err != nil {
		return nil, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.GameAsset{}).
		Where("game_id = ? AND asset_type = ? AND is_active = ?",
			gameID, models.AssetTypeMainGame, true).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, validationErr("main_game", "game has no active main build to publish")
	}

	updates := map[string]interface{}{
		"status":       models.GameStatusPublished,
		"last_updated": time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(game).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.log.Info("game published", "game_id", gameID)
	return game, nil
}

type CompatibilityReportInput struct {
	DeveloperID    uuid.UUID
	GameID         uint
	AssetID        uint
	Browser        string
	BrowserVersion string
	OS             string
	Playable       bool
	Notes          string
}

// SaveCompatibilityReport records the outcome of test-playing a build.
func (s *GameService) SaveCompatibilityReport(ctx context.Context, in CompatibilityReportInput) (*models.CompatibilityReport, error) {
	game, err := s.Get(ctx, in.DeveloperID, in.GameID)
	if err != nil {
		return nil, err
	}
	var asset models.GameAsset
	err = s.db.WithContext(ctx).Where("game_id = ?", game.ID).First(&asset, in.AssetID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	if in.Browser == "" {
		return nil, validationErr("browser", "missing browser name")
	}

	report := models.CompatibilityReport{
		GameID:         in.GameID,
		AssetID:        in.AssetID,
		DeveloperID:    in.DeveloperID,
		Browser:        in.Browser,
		BrowserVersion: in.BrowserVersion,
		OS:             in.OS,
		Playable:       in.Playable,
		Notes:          in.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}
