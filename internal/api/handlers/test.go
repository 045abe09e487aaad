package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/playgrid/playgrid-server/internal/api/middleware"
	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/services"
	"github.com/playgrid/playgrid-server/internal/utils"
)

// TestHandler covers the developer test flow: prepare a build for
// playing and record compatibility results.
type TestHandler struct {
	extractor *services.Extractor
	games     *services.GameService
	log       *logger.Logger
}

func NewTestHandler(extractor *services.Extractor, games *services.GameService, log *logger.Logger) *TestHandler {
	return &TestHandler{extractor: extractor, games: games, log: log.With("handler", "test")}
}

// POST /developer/games/{gameID}/assets/{assetID}/prepare-test
// (also reachable as GET .../assets/{assetID}/test for older clients)
// PrepareTest godoc
// @Summary Prepare a build for test play
// @Description Extracts the build archive if needed and returns the playable URL.
// @Tags Testing
// @Produce json
// @Param gameID path int true "Game ID"
// @Param assetID path int true "Asset ID"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/developer/games/{gameID}/assets/{assetID}/prepare-test [post]
func (h *TestHandler) PrepareTest(w http.ResponseWriter, r *http.Request) {
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
	assetID, ok := pathID(r, "assetID")
	if !ok {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid asset id",
		})
		return
	}

	testURL, err := h.extractor.PrepareTest(r.Context(), developerID, gameID, assetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Game build is ready for testing",
		Data: map[string]any{
			"testUrl": testURL,
		},
	})
}

// POST /developer/games/{gameID}/assets/{assetID}/compatibility-report
func (h *TestHandler) CompatibilityReport(w http.ResponseWriter, r *http.Request) {
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
	assetID, ok := pathID(r, "assetID")
	if !ok {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid asset id",
		})
		return
	}

	var input struct {
		Browser        string `json:"browser"`
		BrowserVersion string `json:"browserVersion"`
		OS             string `json:"os"`
		Playable       bool   `json:"playable"`
		Notes          string `json:"notes"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	report, err := h.games.SaveCompatibilityReport(r.Context(), services.CompatibilityReportInput{
		DeveloperID:    developerID,
		GameID:         gameID,
		AssetID:        assetID,
		Browser:        input.Browser,
		BrowserVersion: input.BrowserVersion,
		OS:             input.OS,
		Playable:       input.Playable,
		Notes:          input.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Compatibility report saved",
		Data:    report,
	})
}
