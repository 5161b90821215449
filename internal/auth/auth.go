// Package auth resolves and validates the Gemini API key.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ErrNoAPIKey is returned when no source yields a key.
var ErrNoAPIKey = errors.New("API key not found")

// ParameterGetter is the subset of *ssm.Client used to read the key.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// GetAPIKey retrieves the Gemini API key from available sources.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. SSM Parameter Store at paramName (skipped when params is nil)
func GetAPIKey(ctx context.Context, params ParameterGetter, paramName string) (string, error) {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	if params == nil || paramName == "" {
		return "", fmt.Errorf("%w: set GEMINI_API_KEY or configure SSM_API_KEY_PARAM", ErrNoAPIKey)
	}

	key, err := getFromSSM(ctx, params, paramName)
	if err != nil {
		log.Error().Err(err).Str("param", paramName).Msg("Failed to retrieve API key")
		return "", fmt.Errorf("%w: %v", ErrNoAPIKey, err)
	}
	return key, nil
}

// getFromSSM reads a SecureString parameter. Only the path is logged.
func getFromSSM(ctx context.Context, params ParameterGetter, paramName string) (string, error) {
	start := time.Now()
	result, err := params.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("SSM GetParameter: %w", err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil || strings.TrimSpace(*result.Parameter.Value) == "" {
		return "", fmt.Errorf("SSM parameter %s is empty", paramName)
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(start)).Msg("Gemini API key loaded from SSM")
	return strings.TrimSpace(*result.Parameter.Value), nil
}
