package handlers

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/services"
)

// GameFilesHandler is the static serve gateway for extracted bundles:
// GET /game-test/{gameID}/{assetID}/{path...}
type GameFilesHandler struct {
	extractor *services.Extractor
	log       *logger.Logger
}

func NewGameFilesHandler(extractor *services.Extractor, log *logger.Logger) *GameFilesHandler {
	return &GameFilesHandler{extractor: extractor, log: log.With("handler", "game_files")}
}

func (h *GameFilesHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	assetID, ok := pathID(r, "assetID")
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Empty wildcard falls back to the bundle entry point.
	rel := r.PathValue("path")

	full, err := h.extractor.ResolveFile(gameID, assetID, rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	name := filepath.Base(full)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		w.Header().Set("Content-Encoding", "gzip")
		// The payload is e.g. build.wasm.gz: type comes from the inner
		// name, the encoding header covers the compression.
		name = name[:len(name)-len(".gz")]
	}
	if ctype := mime.TypeByExtension(filepath.Ext(name)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}

	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), f)
}
