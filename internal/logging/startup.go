package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Startup is the one-line summary a binary logs once its studio is built:
// build identity, the Gemini models in use, where the key and media live,
// and the session and HTTP limits.
type Startup struct {
	Name       string
	CommitHash string
	BuildTime  string
	Init       time.Duration

	ChatModel  string
	ImageModel string

	// MediaBucket is empty when S3 uploads are off.
	MediaBucket string
	// APIKeyParam is set only when the key was read from SSM. Never the value.
	APIKeyParam string

	SessionTTL  time.Duration
	TaskTimeout time.Duration

	// Port is zero on Lambda.
	Port             int
	RateLimit        float64
	RateBurst        int
	TrustedProxyHops int
	AllowedOrigins   []string
	OriginVerify     bool
}

// EnvOrDefault returns the named environment variable, or defaultVal when it
// is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits the summary at info level.
func (s Startup) Log() {
	s.event(log.Info()).Msg("Startup complete")
}

func (s Startup) event(evt *zerolog.Event) *zerolog.Event {
	return evt.
		Object("process", processInfo(s)).
		Dict("models", zerolog.Dict().
			Str("chat", s.ChatModel).
			Str("image", s.ImageModel)).
		Object("storage", storageInfo(s)).
		Dict("session", zerolog.Dict().
			Dur("ttl", s.SessionTTL).
			Dur("taskTimeout", s.TaskTimeout)).
		Object("http", httpInfo(s)).
		Dur("initDuration", s.Init)
}

type processInfo Startup

// MarshalZerologObject adds build identity and, on Lambda, the function's
// runtime environment.
func (p processInfo) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", p.Name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv("AURA_LOG_LEVEL"))
	if p.CommitHash != "" {
		e.Str("commitHash", p.CommitHash)
	}
	if p.BuildTime != "" {
		e.Str("buildTime", p.BuildTime)
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		e.Str("functionName", fn).
			Str("version", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
			Str("region", os.Getenv("AWS_REGION")).
			Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE"))
	}
}

type storageInfo Startup

func (st storageInfo) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("s3Uploads", st.MediaBucket != "")
	if st.MediaBucket != "" {
		e.Str("mediaBucket", st.MediaBucket)
	}
	if st.APIKeyParam != "" {
		e.Str("apiKeyParam", st.APIKeyParam)
	}
}

type httpInfo Startup

func (h httpInfo) MarshalZerologObject(e *zerolog.Event) {
	if h.Port > 0 {
		e.Int("port", h.Port)
	}
	e.Bool("rateLimit", h.RateLimit > 0)
	if h.RateLimit > 0 {
		e.Float64("ratePerSecond", h.RateLimit).
			Int("rateBurst", h.RateBurst).
			Int("trustedProxyHops", h.TrustedProxyHops)
	}
	e.Bool("originVerify", h.OriginVerify).
		Strs("allowedOrigins", h.AllowedOrigins)
}
