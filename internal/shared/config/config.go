package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	ImportRoot      string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	DatabaseURL     string
	Env             string
	ImportWorkers   int
	LLM             LLMConfig
	Chunking        ChunkingConfig
}

// LLMConfig configures the generative completion service.
type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	MaxAttempts int
}

// ChunkingConfig holds the token thresholds that pick a chunking strategy.
type ChunkingConfig struct {
	SinglePassLimit      int
	MultiPassThreshold   int
	SectionChunkTokens   int
	MultiPassChunkTokens int
}

// DefaultChunking returns the stock thresholds.
func DefaultChunking() ChunkingConfig {
	return ChunkingConfig{
		SinglePassLimit:      150_000,
		MultiPassThreshold:   500_000,
		SectionChunkTokens:   100_000,
		MultiPassChunkTokens: 80_000,
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	chunking := DefaultChunking()
	chunking.SinglePassLimit = getEnvInt("CHUNK_SINGLE_PASS_LIMIT", chunking.SinglePassLimit)
	chunking.MultiPassThreshold = getEnvInt("CHUNK_MULTI_PASS_THRESHOLD", chunking.MultiPassThreshold)
	chunking.SectionChunkTokens = getEnvInt("CHUNK_SECTION_TOKENS", chunking.SectionChunkTokens)
	chunking.MultiPassChunkTokens = getEnvInt("CHUNK_MULTI_PASS_TOKENS", chunking.MultiPassChunkTokens)

	apiKey := getEnv("LLM_API_KEY", os.Getenv("ANTHROPIC_API_KEY"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		ImportRoot:      strings.TrimSpace(os.Getenv("IMPORT_ROOT")),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		DatabaseURL:     dbURL,
		Env:             env,
		ImportWorkers:   getEnvInt("IMPORT_WORKERS", 2),
		LLM: LLMConfig{
			APIKey:      apiKey,
			Model:       getEnv("LLM_MODEL", "claude-sonnet-4-20250514"),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.anthropic.com/v1/messages"),
			Timeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 300)) * time.Second,
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8192),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			MaxAttempts: getEnvInt("LLM_MAX_ATTEMPTS", 3),
		},
		Chunking: chunking,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config env %s invalid int %q; using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		log.Printf("config env %s invalid float %q; using %v", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
