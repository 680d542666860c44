package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultMaxUploadMB = 50

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	DatabasePath string
	DatabaseURL  string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider    string
	LLMModel       string
	LLMBaseURL     string
	LLMTimeout     time.Duration
	GeminiAPIKey   string
	OpenAIAPIKey   string
	MaxPromptChars int

	MaxUploadBytes       int64
	APIToken             string
	AnalyzeRatePerMinute int
}

// Load reads configuration from an optional YAML file, local .env files and
// environment variables. Environment variables win over file values.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Printf("config: %v", err)
	}
	get := func(key, def string) string {
		if v, ok := file[key]; ok && v != "" {
			def = v
		}
		return getEnv(key, def)
	}

	env := normalizeEnv(get("ENV", "dev"))
	provider := normalizeProvider(get("LLM_PROVIDER", "gemini"))

	cfg := Config{
		Port:            get("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(get("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		DatabasePath: get("DATABASE_PATH", "./data/legal_documents.db"),
		DatabaseURL:  get("DATABASE_URL", ""),

		ObjectStoreType: normalizeStoreType(get("OBJECT_STORE", "local")),
		LocalStoreDir:   get("LOCAL_STORE_DIR", "./data/uploads"),
		AWSRegion:       get("AWS_REGION", ""),
		S3Bucket:        get("S3_BUCKET", ""),
		S3Prefix:        get("S3_PREFIX", ""),
		SSEKMSKeyID:     get("SSE_KMS_KEY_ID", ""),

		LLMProvider:    provider,
		LLMModel:       get("LLM_MODEL", defaultModel(provider)),
		LLMBaseURL:     get("LLM_BASE_URL", ""),
		LLMTimeout:     time.Duration(atoiDefault(get("LLM_TIMEOUT_SECONDS", ""), 120)) * time.Second,
		GeminiAPIKey:   get("GEMINI_API_KEY", ""),
		OpenAIAPIKey:   get("OPENAI_API_KEY", ""),
		MaxPromptChars: atoiDefault(get("MAX_PROMPT_CHARS", ""), 8000),

		MaxUploadBytes:       int64(atoiDefault(get("MAX_UPLOAD_MB", ""), defaultMaxUploadMB)) << 20,
		APIToken:             get("API_TOKEN", ""),
		AnalyzeRatePerMinute: atoiDefault(get("ANALYZE_RATE_PER_MINUTE", ""), 10),
	}

	if env == "production" && cfg.APIToken == "" {
		log.Printf("API_TOKEN is empty; the API is open to anyone who can reach it")
	}
	return cfg
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func atoiDefault(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("config: invalid positive int %q, using %d", raw, def)
		return def
	}
	return v
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
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "none", "off":
		return "none"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "off":
		return "none"
	default:
		return "gemini"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return ""
	}
}
