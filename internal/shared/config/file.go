package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the environment keys in a YAML document:
//
//	server:
//	  port: 8080
//	llm:
//	  provider: gemini
//	  model: gemini-2.5-flash
type fileConfig struct {
	Env    string `yaml:"env"`
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_allow_origins"`
		APIToken    string   `yaml:"api_token"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
		URL  string `yaml:"url"`
	} `yaml:"database"`
	Storage struct {
		Type     string `yaml:"type"`
		LocalDir string `yaml:"local_dir"`
		Region   string `yaml:"region"`
		Bucket   string `yaml:"bucket"`
		Prefix   string `yaml:"prefix"`
		KMSKeyID string `yaml:"kms_key_id"`
	} `yaml:"storage"`
	LLM struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		MaxPromptChars int    `yaml:"max_prompt_chars"`
		RatePerMinute  int    `yaml:"rate_per_minute"`
	} `yaml:"llm"`
	Uploads struct {
		MaxMB int `yaml:"max_mb"`
	} `yaml:"uploads"`
}

// loadFile reads a YAML config file and flattens it to env-style keys.
// An empty path yields an empty map.
func loadFile(path string) (map[string]string, error) {
	out := map[string]string{}
	path = strings.TrimSpace(path)
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return out, fmt.Errorf("parse config file %s: %w", path, err)
	}

	set := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			out[key] = val
		}
	}
	setInt := func(key string, val int) {
		if val > 0 {
			out[key] = strconv.Itoa(val)
		}
	}

	set("ENV", fc.Env)
	set("PORT", fc.Server.Port)
	set("CORS_ALLOW_ORIGINS", strings.Join(fc.Server.CORSOrigins, ","))
	set("API_TOKEN", fc.Server.APIToken)
	set("DATABASE_PATH", fc.Database.Path)
	set("DATABASE_URL", fc.Database.URL)
	set("OBJECT_STORE", fc.Storage.Type)
	set("LOCAL_STORE_DIR", fc.Storage.LocalDir)
	set("AWS_REGION", fc.Storage.Region)
	set("S3_BUCKET", fc.Storage.Bucket)
	set("S3_PREFIX", fc.Storage.Prefix)
	set("SSE_KMS_KEY_ID", fc.Storage.KMSKeyID)
	set("LLM_PROVIDER", fc.LLM.Provider)
	set("LLM_MODEL", fc.LLM.Model)
	set("LLM_BASE_URL", fc.LLM.BaseURL)
	setInt("LLM_TIMEOUT_SECONDS", fc.LLM.TimeoutSeconds)
	setInt("MAX_PROMPT_CHARS", fc.LLM.MaxPromptChars)
	setInt("ANALYZE_RATE_PER_MINUTE", fc.LLM.RatePerMinute)
	setInt("MAX_UPLOAD_MB", fc.Uploads.MaxMB)
	return out, nil
}
