package config

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	PublicBaseURL   string
}

type StorageConfig struct {
	// Backend selects the blob store: "local" (default) or "r2".
	Backend string
	// ContentRoot is the local directory holding uploaded blobs and
	// extracted game bundles (games/{gameID}/assets/...).
	ContentRoot string
	R2          R2Config
}

type ExtractionConfig struct {
	// Ceilings applied while unpacking a build archive, so a hostile
	// zip cannot exhaust disk or spin forever.
	MaxEntries           int
	MaxDecompressedBytes int64
	Timeout              time.Duration
}

type Config struct {
	DB_URL        string
	Port          string
	JWTSecret     string
	Environment   string
	PublicBaseURL string
	CorsConfig    cors.Options
	Storage       StorageConfig
	Extraction    ExtractionConfig
}

var Envs = initConfig()

func initConfig() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found")
	}

	return Config{
		DB_URL:        getEnv("DB_URL", ""),
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", "not-so-secret-now-is-it?"),
		Environment:   getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		CorsConfig:    CorsConfig(),
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			ContentRoot: getEnv("STORAGE_CONTENT_ROOT", "storage"),
			R2: R2Config{
				AccountID:       getEnv("R2_ACCOUNT_ID", ""),
				AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
				BucketName:      getEnv("R2_BUCKET_NAME", ""),
				Region:          getEnv("R2_REGION", "auto"),
				PublicBaseURL:   getEnv("R2_PUBLIC_BASE_URL", ""),
			},
		},
		Extraction: ExtractionConfig{
			MaxEntries:           getEnvInt("EXTRACT_MAX_ENTRIES", 10000),
			MaxDecompressedBytes: getEnvInt64("EXTRACT_MAX_DECOMPRESSED_BYTES", 4<<30),
			Timeout:              getEnvDuration("EXTRACT_TIMEOUT", 5*time.Minute),
		},
	}
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func CorsConfig() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://playgrid-dev-portal.vercel.app"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}
