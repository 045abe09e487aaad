package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/playgrid/playgrid-server/internal/services"
	"github.com/playgrid/playgrid-server/internal/utils"
)

// writeServiceError maps service-layer failures onto the JSON envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		utils.JSONResponse(w, http.StatusUnprocessableEntity, utils.Payload{
			Success: false,
			Message: vErr.Message,
			Data:    map[string]any{"rule": vErr.Rule},
		})
	case errors.Is(err, services.ErrForbidden):
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: "You do not own this game",
		})
	case errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrAssetNotFound),
		errors.Is(err, services.ErrFileNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrAssetMissing):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Asset file is missing from storage",
		})
	case errors.Is(err, services.ErrExtractionFailed):
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: err.Error(),
		})
	default:
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Internal server error",
		})
	}
}

func pathID(r *http.Request, name string) (uint, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
