package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// SQLite database file; the parent directory is created if missing.
	DBPath string

	// Directory holding uploaded image files, served under /uploads.
	UploadDir string

	// PublicBaseURL, when set, is used to build absolute image URLs.
	// When empty the URL is derived from forwarding headers per request.
	PublicBaseURL string

	// UpstreamTimeout bounds a single outbound weather API call.
	UpstreamTimeout time.Duration

	// AllowedOrigins for CORS, comma-separated.
	AllowedOrigins string

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.DBPath = getenvDefault("DB_PATH", "data/app.db")
	cfg.UploadDir = getenvDefault("UPLOAD_DIR", "data/uploads")
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	timeoutStr := getenvDefault("UPSTREAM_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	cfg.UpstreamTimeout = timeout

	cfg.AllowedOrigins = getenvDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
