package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAIModel is the model used when the caller does not pick one and the fallback target on failure
	DefaultAIModel = "gpt-3.5-turbo"
	// DefaultFreeTierLimit is the number of analyses a free account may run per window
	DefaultFreeTierLimit = 3
	// DefaultMaxFileBytes bounds the size of a downloaded assignment file (25 MiB)
	DefaultMaxFileBytes int64 = 25 << 20
)

// Config holds application configuration
type Config struct {
	Environment     string
	DatabaseURL     string
	ServerPort      string
	BaseURL         string
	FrontendURL     string
	OpenAIKey       string
	AIProvider      string
	AIModel         string
	AIBaseURL       string
	AITimeout       time.Duration
	EnableHSTS      bool
	OIDCProvider    string
	RedisURL        string
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
	OTELInsecure    bool

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	UploadURLTTL   time.Duration
	FileURLTTL     time.Duration

	MaxFileBytes     int64
	AllowedFileHosts []string
	FetchTimeout     time.Duration
	PersistTimeout   time.Duration
	RequestTimeout   time.Duration
	FreeTierLimit    int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		AIProvider:      getEnv("AI_PROVIDER", "openai"),
		AIModel:         getEnv("AI_MODEL", DefaultAIModel),
		AIBaseURL:       getEnv("AI_BASE_URL", ""),
		AITimeout:       getEnvSeconds("AI_TIMEOUT_SECONDS", 120*time.Second),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		OIDCProvider:    getEnv("OIDC_PROVIDER", "cognito"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELInsecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "assignments"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		UploadURLTTL:   time.Duration(getEnvInt("UPLOAD_URL_TTL_MINUTES", 15)) * time.Minute,
		FileURLTTL:     time.Duration(getEnvInt("FILE_URL_TTL_HOURS", 24*7)) * time.Hour,

		MaxFileBytes:     getEnvInt64("MAX_FILE_BYTES", DefaultMaxFileBytes),
		AllowedFileHosts: getEnvList("ALLOWED_FILE_HOSTS"),
		FetchTimeout:     getEnvSeconds("FETCH_TIMEOUT_SECONDS", 30*time.Second),
		PersistTimeout:   getEnvSeconds("PERSIST_TIMEOUT_SECONDS", 5*time.Second),
		RequestTimeout:   getEnvSeconds("REQUEST_TIMEOUT_SECONDS", 180*time.Second),
		FreeTierLimit:    getEnvInt("FREE_TIER_LIMIT", DefaultFreeTierLimit),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.FreeTierLimit <= 0 {
		return nil, fmt.Errorf("FREE_TIER_LIMIT must be positive, got %d", cfg.FreeTierLimit)
	}

	if cfg.MinioEndpoint != "" && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "") {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	return cfg, nil
}

// BlobStorageEnabled reports whether presigned uploads can be offered
func (c *Config) BlobStorageEnabled() bool {
	return c.MinioEndpoint != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvList parses a comma-separated variable, dropping empty entries
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}
