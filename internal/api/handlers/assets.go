package handlers

import (
	"net/http"

	"github.com/playgrid/playgrid-server/internal/api/middleware"
	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/services"
	"github.com/playgrid/playgrid-server/internal/utils"
)

// Multipart form memory ceiling; anything bigger spills to temp files so
// multi-gigabyte build archives are not buffered in RAM.
const uploadFormMemory = 32 << 20

type AssetHandler struct {
	assets *services.AssetService
	log    *logger.Logger
}

func NewAssetHandler(assets *services.AssetService, log *logger.Logger) *AssetHandler {
	return &AssetHandler{assets: assets, log: log.With("handler", "assets")}
}

// POST /developer/games/{gameID}/assets
// UploadAsset godoc
// @Summary Upload a game asset version
// @Description Uploads one asset file for a game. A main_game upload deactivates the previous active build.
// @Tags Assets
// @Accept multipart/form-data
// @Produce json
// @Param gameID path int true "Game ID"
// @Param asset_type formData string true "Asset type (main_game, texture, sound, model, script, other)"
// @Param asset_file formData file true "Asset file"
// @Param version formData string false "Version label"
// @Success 201 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 422 {object} utils.Payload
// @Router /api/v1/developer/games/{gameID}/assets [post]
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	developerID, ok := middleware.DeveloperID(r.Context())
	if !ok {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
		return
	}
	gameID, ok := pathID(r, "gameID")
	if !ok {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid game id",
		})
		return
	}

	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file upload form",
		})
		return
	}

	file, header, err := r.FormFile("asset_file")
	if err != nil {
		utils.JSONResponse(w, http.StatusUnprocessableEntity, utils.Payload{
			Success: false,
			Message: "No asset file provided",
		})
		return
	}
	defer file.Close()

	asset, err := h.assets.Upload(r.Context(), services.UploadInput{
		DeveloperID: developerID,
		GameID:      gameID,
		AssetType:   r.FormValue("asset_type"),
		FileName:    header.Filename,
		Size:        header.Size,
		MimeType:    header.Header.Get("Content-Type"),
		Version:     r.FormValue("version"),
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Asset uploaded successfully",
		Data:    asset,
	})
}

// GET /developer/games/{gameID}/assets
// ListAssets godoc
// @Summary List a game's asset versions
// @Tags Assets
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/v1/developer/games/{gameID}/assets [get]
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	developerID, ok := middleware.DeveloperID(r.Context())
	if !ok {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
		return
	}
	gameID, ok := pathID(r, "gameID")
	if !ok {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid game id",
		})
		return
	}

	assets, err := h.assets.ListAssets(r.Context(), developerID, gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Assets retrieved successfully",
		Data:    assets,
	})
}
