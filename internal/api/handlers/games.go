package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/playgrid/playgrid-server/internal/api/middleware"
	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/services"
	"github.com/playgrid/playgrid-server/internal/utils"
)

type GameHandler struct {
	games *services.GameService
	log   *logger.Logger
}

func NewGameHandler(games *services.GameService, log *logger.Logger) *GameHandler {
	return &GameHandler{games: games, log: log.With("handler", "games")}
}

// POST /developer/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	developerID, ok := middleware.DeveloperID(r.Context())
	if !ok {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
		return
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Version     string `json:"version"`
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

	game, err := h.games.Create(r.Context(), services.CreateGameInput{
		DeveloperID: developerID,
		Title:       input.Title,
		Description: input.Description,
		Version:     input.Version,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Game created successfully",
		Data:    game,
	})
}

// GET /developer/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	developerID, ok := middleware.DeveloperID(r.Context())
	if !ok {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
		return
	}

	games, err := h.games.List(r.Context(), developerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Games retrieved successfully",
		Data:    games,
	})
}

// GET /developer/games/{gameID}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	game, err := h.games.Get(r.Context(), developerID, gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Game retrieved successfully",
		Data:    game,
	})
}

// POST /developer/games/{gameID}/publish
func (h *GameHandler) Publish(w http.ResponseWriter, r *http.Request) {
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

	game, err := h.games.Publish(r.Context(), developerID, gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Game published successfully",
		Data:    game,
	})
}
