// ABOUTME: Configuration loader for backend service
// ABOUTME: Loads settings from environment variables (and an optional .env) with defaults

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string
	CacheTTL           int      // seconds, diagnosis report cache (default 300)
	CORSAllowedOrigins []string // allowed CORS origins (empty = block all cross-origin)
	MaxUploadMB        int      // multipart upload limit (default 10)

	// Rate Limiting
	RateLimitEnabled  bool // Enable rate limiting (default: true)
	RateLimitDiagnose int  // Requests per minute for diagnose and chat (default: 20)
	RateLimitDefault  int  // Requests per minute for all other endpoints (default: 100)

	// Model server
	ModelServerURL      string
	ModelServerAllProxy string // ssh+socks5://user@host:port?private-key=/path
	ModelManifest       string // path to models.json; empty uses the bundled manifest
	ModelTimeout        time.Duration

	// Anthropic (optional; vision tier, chat and translation fall back without it)
	AnthropicAPIKey  string
	AnthropicBaseURL string
	VisionModel      string
	ChatModel        string
	LLMTimeout       time.Duration // chat and translation
	VisionTimeout    time.Duration // vision tier of crop identification

	// Crop identification
	BruteForceThreshold float64 // percent confidence the voting tier must reach
	BruteForceWorkers   int

	// Catalog
	CatalogDriver string // memory, sqlite, postgres
	CatalogDSN    string
	CatalogSeed   string // optional .json, .csv or .xlsx seed file

	// Upload archive
	UploadDriver      string // none, fs, s3
	UploadFSRoot      string
	UploadS3Bucket    string
	UploadS3Region    string
	UploadS3Endpoint  string
	UploadS3AccessKey string
	UploadS3SecretKey string
	UploadS3PathStyle bool

	// Cost estimation
	DefaultLandArea float64 // acres
}

// AnthropicConfigured returns true if an API key is set
func (c *Config) AnthropicConfigured() bool {
	return c.AnthropicAPIKey != ""
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CacheTTL:           getEnvInt("CACHE_TTL", 300),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),
		MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 10),

		RateLimitEnabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitDiagnose: getEnvInt("RATE_LIMIT_DIAGNOSE", 20),
		RateLimitDefault:  getEnvInt("RATE_LIMIT_DEFAULT", 100),

		ModelServerURL:      ensureScheme(os.Getenv("MODEL_SERVER_URL")),
		ModelServerAllProxy: os.Getenv("MODEL_SERVER_ALL_PROXY"),
		ModelManifest:       os.Getenv("MODEL_MANIFEST"),
		ModelTimeout:        time.Duration(getEnvInt("MODEL_TIMEOUT", 30)) * time.Second,

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		VisionModel:      getEnv("VISION_MODEL", "claude-sonnet-4-5"),
		ChatModel:        getEnv("CHAT_MODEL", "claude-haiku-4-5"),
		LLMTimeout:       time.Duration(getEnvInt("LLM_TIMEOUT", 20)) * time.Second,
		VisionTimeout:    time.Duration(getEnvInt("VISION_TIMEOUT", 15)) * time.Second,

		BruteForceThreshold: getEnvFloat("BRUTE_FORCE_THRESHOLD", 45),
		BruteForceWorkers:   getEnvInt("BRUTE_FORCE_WORKERS", 4),

		CatalogDriver: getEnv("CATALOG_DRIVER", "memory"),
		CatalogDSN:    os.Getenv("CATALOG_DSN"),
		CatalogSeed:   os.Getenv("CATALOG_SEED"),

		UploadDriver:      getEnv("UPLOAD_DRIVER", "none"),
		UploadFSRoot:      getEnv("UPLOAD_FS_ROOT", "./data/uploads"),
		UploadS3Bucket:    os.Getenv("UPLOAD_S3_BUCKET"),
		UploadS3Region:    getEnv("UPLOAD_S3_REGION", "us-east-1"),
		UploadS3Endpoint:  os.Getenv("UPLOAD_S3_ENDPOINT"),
		UploadS3AccessKey: os.Getenv("UPLOAD_S3_ACCESS_KEY_ID"),
		UploadS3SecretKey: os.Getenv("UPLOAD_S3_SECRET_ACCESS_KEY"),
		UploadS3PathStyle: getEnvBool("UPLOAD_S3_PATH_STYLE", false),

		DefaultLandArea: getEnvFloat("DEFAULT_LAND_AREA", 1),
	}

	// Validate required fields
	if cfg.ModelServerURL == "" {
		return nil, fmt.Errorf("MODEL_SERVER_URL is required")
	}

	switch cfg.CatalogDriver {
	case "memory":
	case "sqlite", "postgres":
		if cfg.CatalogDSN == "" {
			return nil, fmt.Errorf("CATALOG_DSN is required for catalog driver %s", cfg.CatalogDriver)
		}
	default:
		return nil, fmt.Errorf("CATALOG_DRIVER must be memory, sqlite or postgres, got %q", cfg.CatalogDriver)
	}

	switch cfg.UploadDriver {
	case "none", "fs":
	case "s3":
		if cfg.UploadS3Bucket == "" {
			return nil, fmt.Errorf("UPLOAD_S3_BUCKET is required for upload driver s3")
		}
	default:
		return nil, fmt.Errorf("UPLOAD_DRIVER must be none, fs or s3, got %q", cfg.UploadDriver)
	}

	if cfg.BruteForceThreshold < 0 || cfg.BruteForceThreshold > 100 {
		return nil, fmt.Errorf("BRUTE_FORCE_THRESHOLD must be between 0 and 100, got %v", cfg.BruteForceThreshold)
	}
	if cfg.BruteForceWorkers < 1 {
		return nil, fmt.Errorf("BRUTE_FORCE_WORKERS must be at least 1, got %d", cfg.BruteForceWorkers)
	}
	if cfg.DefaultLandArea <= 0 {
		return nil, fmt.Errorf("DEFAULT_LAND_AREA must be positive, got %v", cfg.DefaultLandArea)
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_DIAGNOSE", cfg.RateLimitDiagnose},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "http://" + url
	}
	return url
}
