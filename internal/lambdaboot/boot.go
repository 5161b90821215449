// Package lambdaboot provides the shared cold-start bootstrap for the
// service binaries: AWS config, the optional media bucket, the Gemini API key
// and the studio core.
package lambdaboot

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/aura-design/internal/auth"
	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/chat"
	"github.com/fpang/aura-design/internal/config"
	"github.com/fpang/aura-design/internal/logging"
	"github.com/fpang/aura-design/internal/router"
	"github.com/fpang/aura-design/internal/s3util"
	"github.com/fpang/aura-design/internal/session"
	"github.com/fpang/aura-design/internal/studio"
)

// AWSClients holds the core AWS SDK clients. Config is the zero value and
// SSM is nil when no AWS configuration could be loaded.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config. When required is false a failure is
// logged and an empty AWSClients is returned, so local runs work without AWS.
func InitAWS(ctx context.Context, required bool) AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		if required {
			log.Fatal().Err(err).Msg("Failed to load AWS config")
		}
		log.Warn().Err(err).Msg("AWS config unavailable, continuing without AWS")
		return AWSClients{}
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitMedia returns the photo bucket, or nil when no bucket is configured or
// AWS is unavailable.
func InitMedia(clients AWSClients, bucket string) *s3util.Media {
	if bucket == "" || clients.SSM == nil {
		log.Debug().Msg("Media bucket not configured, S3 uploads disabled")
		return nil
	}
	return s3util.NewMedia(s3.NewFromConfig(clients.Config), bucket)
}

// LoadGeminiKey resolves the API key from the environment or SSM. Fatals when
// neither source has one.
func LoadGeminiKey(ctx context.Context, clients AWSClients, paramName string) string {
	var params auth.ParameterGetter
	if clients.SSM != nil {
		params = clients.SSM
	}
	key, err := auth.GetAPIKey(ctx, params, paramName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get API key")
	}
	return key
}

// NewStudio builds the studio core and the genai client behind it. opts are
// applied after the configured task timeout.
func NewStudio(ctx context.Context, cfg *config.Config, apiKey string, opts ...studio.Option) (*studio.Studio, *genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, nil, err
	}

	pipeline := chat.NewPipeline(chat.NewImageClient(apiKey, chat.WithImageModel(cfg.Gemini.ImageModel)))
	consultant := chat.NewConsultant(client, cfg.Gemini.Model)
	rt := router.New(router.NewKeywordClassifier(cfg.Gemini.EditKeywords...), pipeline, consultant)

	opts = append([]studio.Option{studio.WithTaskTimeout(cfg.Session.TaskTimeout)}, opts...)
	st := studio.New(session.NewStore(cfg.Session.TTL), catalog.Default(), pipeline, rt, opts...)
	return st, client, nil
}

// StartupLog fills the start-up summary from cfg. Callers add build
// identity and the listen port before logging it.
func StartupLog(name string, initStart time.Time, cfg *config.Config) logging.Startup {
	sl := logging.Startup{
		Name:             name,
		Init:             time.Since(initStart),
		ChatModel:        cfg.Gemini.Model,
		ImageModel:       cfg.Gemini.ImageModel,
		MediaBucket:      cfg.AWS.MediaBucket,
		SessionTTL:       cfg.Session.TTL,
		TaskTimeout:      cfg.Session.TaskTimeout,
		RateLimit:        cfg.HTTP.RateLimit,
		RateBurst:        cfg.HTTP.RateBurst,
		TrustedProxyHops: cfg.HTTP.TrustedProxyHops,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		OriginVerify:     cfg.HTTP.OriginVerifySecret != "",
	}
	if cfg.Gemini.APIKey == "" {
		sl.APIKeyParam = cfg.AWS.SSMAPIKeyParam
	}
	return sl
}
