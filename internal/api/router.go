package api

import (
	"fmt"
	"net/http"

	_ "github.com/playgrid/playgrid-server/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/playgrid/playgrid-server/internal/api/handlers"
	"github.com/playgrid/playgrid-server/internal/api/middleware"
	"github.com/playgrid/playgrid-server/internal/config"
	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/services"
	"github.com/rs/cors"
)

// Deps carries the wired services the route handlers run on.
type Deps struct {
	Assets    *services.AssetService
	Games     *services.GameService
	Extractor *services.Extractor
	Log       *logger.Logger
}

func SetupRouter(deps Deps) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	assetHandler := handlers.NewAssetHandler(deps.Assets, deps.Log)
	gameHandler := handlers.NewGameHandler(deps.Games, deps.Log)
	testHandler := handlers.NewTestHandler(deps.Extractor, deps.Games, deps.Log)
	fileHandler := handlers.NewGameFilesHandler(deps.Extractor, deps.Log)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	// Extracted game bundles (test play); same gateway the dev portal
	// iframe loads, so it stays cookie-free.
	mainMux.HandleFunc("GET /game-test/{gameID}/{assetID}", fileHandler.ServeFile)
	mainMux.HandleFunc("GET /game-test/{gameID}/{assetID}/{path...}", fileHandler.ServeFile)

	authMux := http.NewServeMux()
	authMux.HandleFunc("/sign-up", handlers.RegisterDeveloper)
	authMux.HandleFunc("/login", handlers.LoginDeveloper)
	authMux.HandleFunc("/google/login", handlers.HandleGoogleLogin)
	authMux.HandleFunc("/google/callback", handlers.HandleGoogleCallback)

	mainMux.Handle("/api/v1/auth/",
		http.StripPrefix("/api/v1/auth", authMux),
	)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	protectedMux.HandleFunc("POST /developer/games", gameHandler.Create)
	protectedMux.HandleFunc("GET /developer/games", gameHandler.List)
	protectedMux.HandleFunc("GET /developer/games/{gameID}", gameHandler.Get)
	protectedMux.HandleFunc("POST /developer/games/{gameID}/publish", gameHandler.Publish)

	protectedMux.HandleFunc("POST /developer/games/{gameID}/assets", assetHandler.Upload)
	protectedMux.HandleFunc("GET /developer/games/{gameID}/assets", assetHandler.List)

	protectedMux.HandleFunc("POST /developer/games/{gameID}/assets/{assetID}/prepare-test", testHandler.PrepareTest)
	// Legacy route kept for older portal builds.
	protectedMux.HandleFunc("GET /developer/games/{gameID}/assets/{assetID}/test", testHandler.PrepareTest)
	protectedMux.HandleFunc("POST /developer/games/{gameID}/assets/{assetID}/compatibility-report", testHandler.CompatibilityReport)

	protectedMux.HandleFunc("/auth/logout", handlers.Logout)

	mainMux.Handle("/api/v1/",
		http.StripPrefix(
			"/api/v1",
			middleware.AuthMiddleware(protectedMux),
		),
	)

	deps.Log.Info("router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(deps.Log)(handler)
	return handler
}
