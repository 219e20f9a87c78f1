package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	PublicBaseURL    string
	GeoIPDBPath      string
	DefaultLocale    string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	PollinationsEndpoint  string
	PollinationsModel     string
	HuggingFaceEndpoint   string
	HuggingFaceModels     []string
	DeepAIEndpoint        string
	ReplicateEndpoint     string
	ReplicateVersion      string
	ReplicatePollInterval time.Duration
	ReplicateMaxPolls     int
	ProviderTimeout       time.Duration

	MaxPromptLength int
	MaxRetries      int
	HistoryLimit    int

	SecretsFile string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    strings.ToLower(getEnv("DEFAULT_LOCALE", "en")),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		PollinationsEndpoint:  os.Getenv("POLLINATIONS_ENDPOINT"),
		PollinationsModel:     os.Getenv("POLLINATIONS_MODEL"),
		HuggingFaceEndpoint:   os.Getenv("HUGGINGFACE_ENDPOINT"),
		HuggingFaceModels:     getEnvList("HUGGINGFACE_MODELS", nil),
		DeepAIEndpoint:        os.Getenv("DEEPAI_ENDPOINT"),
		ReplicateEndpoint:     os.Getenv("REPLICATE_ENDPOINT"),
		ReplicateVersion:      os.Getenv("REPLICATE_VERSION"),
		ReplicatePollInterval: time.Millisecond * time.Duration(getEnvInt("REPLICATE_POLL_INTERVAL_MS", 2000)),
		ReplicateMaxPolls:     getEnvInt("REPLICATE_MAX_POLLS", 90),
		ProviderTimeout:       time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 45)),

		MaxPromptLength: getEnvInt("MAX_PROMPT_LENGTH", 400),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		HistoryLimit:    getEnvInt("HISTORY_LIMIT", 10),

		SecretsFile: os.Getenv("SECRETS_FILE"),
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + port
	}
	if cfg.DefaultLocale != "en" && cfg.DefaultLocale != "id" {
		return nil, fmt.Errorf("DEFAULT_LOCALE must be en or id, got %q", cfg.DefaultLocale)
	}
	if cfg.MaxPromptLength <= 0 {
		return nil, fmt.Errorf("MAX_PROMPT_LENGTH must be positive")
	}
	if cfg.MaxRetries <= 0 {
		return nil, fmt.Errorf("MAX_RETRIES must be positive")
	}
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if cfg.ReplicatePollInterval <= 0 || cfg.ReplicateMaxPolls <= 0 {
		return nil, fmt.Errorf("replicate polling must use a positive interval and poll count")
	}

	return cfg, nil
}

// BlobBaseURL is the absolute prefix under which stored blobs are served.
func (c *Config) BlobBaseURL() string {
	return c.PublicBaseURL + "/v1/blobs"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
