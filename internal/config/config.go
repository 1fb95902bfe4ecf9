package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	TablePrefix string
	CORSOrigins string
	// Auth: HS256 shared secret, or a JWKS endpoint when JWTSecret is empty
	JWTSecret string
	JWKSURL   string
	// Cache
	RedisURL       string
	UnreadCacheTTL time.Duration
	TreeCacheTTL   time.Duration
	// File storage
	StorageBackend string // local | s3
	StorageRoot    string // root directory for local storage
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3Local        bool // static credentials + path-style addressing (MinIO)
	// ImportRoot confines JSON imports naming a server-side file; empty disables them
	ImportRoot string
	// HTTP
	RequestTimeout time.Duration
	// Logging
	LogDir      string
	LogMaxFiles int
	LogLevel    string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		TablePrefix:    getTablePrefix(env),
		CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWKSURL:        getEnv("JWKS_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		UnreadCacheTTL: getDuration("UNREAD_CACHE_TTL", DefaultUnreadCacheTTL),
		TreeCacheTTL:   getDuration("TREE_CACHE_TTL", DefaultTreeCacheTTL),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		StorageRoot:    getEnv("STORAGE_ROOT", "./data/archive"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Local:        getEnv("S3_LOCAL", "false") == "true",
		ImportRoot:     getEnv("IMPORT_ROOT", ""),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", DefaultRequestTimeout),
		LogDir:         getEnv("LOG_DIR", ""),
		LogMaxFiles:    getInt("LOG_MAX_FILES", 10),
		LogLevel:       getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
	}
}

// IsProduction reports whether destructive maintenance must be refused
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// getDefaultLogLevel returns the default log level based on environment
func getDefaultLogLevel(env string) string {
	if env == "prod" {
		return "info"
	}
	return "debug"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

// getDuration accepts Go duration strings ("30s") or plain seconds ("30")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
