// Package config resolves runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/chat"
	"github.com/fpang/aura-design/internal/router"
	"github.com/fpang/aura-design/internal/session"
	"github.com/fpang/aura-design/internal/studio"
)

// DefaultSSMAPIKeyParam is the Parameter Store path of the Gemini API key.
const DefaultSSMAPIKeyParam = "/aura-design/prod/gemini-api-key"

// Config is the resolved runtime configuration.
type Config struct {
	Gemini  GeminiConfig
	Session SessionConfig
	HTTP    HTTPConfig
	AWS     AWSConfig
}

// GeminiConfig selects the models and holds the API key when it came from
// the environment.
type GeminiConfig struct {
	APIKey       string
	Model        string
	ImageModel   string
	EditKeywords []string
}

// SessionConfig bounds session lifetime and background work.
type SessionConfig struct {
	TTL         time.Duration
	TaskTimeout time.Duration
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port               int
	RateLimit          float64 // requests per second per client; 0 disables
	RateBurst          int
	TrustedProxyHops   int // proxies appending to X-Forwarded-For; 0 trusts none
	OriginVerifySecret string
	AllowedOrigins     []string
}

// AWSConfig names the AWS resources in use. Empty values disable the
// feature that needs them.
type AWSConfig struct {
	MediaBucket    string
	SSMAPIKeyParam string
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using system environment")
	}
	return FromEnv()
}

// FromEnv reads the environment without touching .env.
func FromEnv() *Config {
	return &Config{
		Gemini: GeminiConfig{
			APIKey:       os.Getenv("GEMINI_API_KEY"),
			Model:        getEnv("GEMINI_MODEL", chat.DefaultModelName),
			ImageModel:   getEnv("GEMINI_IMAGE_MODEL", chat.DefaultImageModelName),
			EditKeywords: router.ParseKeywords(os.Getenv("AURA_EDIT_KEYWORDS")),
		},
		Session: SessionConfig{
			TTL:         getEnvAsDuration("AURA_SESSION_TTL", session.DefaultTTL),
			TaskTimeout: getEnvAsDuration("AURA_TASK_TIMEOUT", studio.DefaultTaskTimeout),
		},
		HTTP: HTTPConfig{
			Port:               getEnvAsInt("PORT", 8080),
			RateLimit:          getEnvAsFloat("AURA_RATE_LIMIT", 5),
			RateBurst:          getEnvAsInt("AURA_RATE_BURST", 10),
			TrustedProxyHops:   max(getEnvAsInt("AURA_TRUSTED_PROXY_HOPS", 0), 0),
			OriginVerifySecret: os.Getenv("ORIGIN_VERIFY_SECRET"),
			AllowedOrigins:     splitList(os.Getenv("AURA_ALLOWED_ORIGINS")),
		},
		AWS: AWSConfig{
			MediaBucket:    os.Getenv("MEDIA_BUCKET_NAME"),
			SSMAPIKeyParam: getEnv("SSM_API_KEY_PARAM", DefaultSSMAPIKeyParam),
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-integer setting")
		return fallback
	}
	return n
}

func getEnvAsFloat(key string, fallback float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring invalid number setting")
		return fallback
	}
	return f
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring invalid duration setting")
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
