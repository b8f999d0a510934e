package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL          string
	APITimeout          time.Duration
	StorageDriver       string
	StoragePath         string
	FavoritesStorageKey string
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinIOBucket         string
	AuthJWTSecret       string
	SessionToken        string
	SessionTokenFile    string
	FeatureFlagsFile    string
	FeatureFlagsTTL     time.Duration
	LogFile             string
	LogMaxSizeMB        int
	LogstashTCPAddr     string
}

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
	StorageMinIO  = "minio"
)

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() Config {
	logMax := 50
	if v, err := strconv.Atoi(getenv("LOG_MAX_SIZE_MB", "50")); err == nil && v > 0 {
		logMax = v
	}

	driver := strings.ToLower(getenv("STORAGE_DRIVER", StorageSQLite))

	cfg := Config{
		APIBaseURL:          must("API_BASE_URL"),
		APITimeout:          duration("API_TIMEOUT", 0),
		StorageDriver:       driver,
		StoragePath:         getenv("STORAGE_PATH", "favorites.db"),
		FavoritesStorageKey: getenv("FAVORITES_STORAGE_KEY", ""),
		AuthJWTSecret:       getenv("AUTH_JWT_SECRET", ""),
		SessionToken:        getenv("SESSION_TOKEN", ""),
		SessionTokenFile:    getenv("SESSION_TOKEN_FILE", ""),
		FeatureFlagsFile:    getenv("FEATURE_FLAGS_FILE", ""),
		FeatureFlagsTTL:     duration("FEATURE_FLAGS_TTL", 5*time.Minute),
		LogFile:             getenv("LOG_FILE", ""),
		LogMaxSizeMB:        logMax,
		LogstashTCPAddr:     getenv("LOGSTASH_TCP_ADDR", ""),
	}

	if driver == StorageMinIO {
		cfg.MinIOEndpoint = must("MINIO_ENDPOINT")
		cfg.MinIOAccessKey = must("MINIO_ACCESS_KEY")
		cfg.MinIOSecretKey = must("MINIO_SECRET_KEY")
		cfg.MinIOUseSSL = getenv("MINIO_USE_SSL", "false") == "true"
		cfg.MinIOBucket = getenv("MINIO_BUCKET", "umrah-favorites")
	}
	return cfg
}

func duration(k string, d time.Duration) time.Duration {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		log.Printf("Warning: invalid %s %q, using %s", k, raw, d)
		return d
	}
	return v
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
