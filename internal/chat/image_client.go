package chat

// image_client.go talks to the Gemini image model over the REST API. The
// request carries one inline image plus a text directive and asks for
// TEXT+IMAGE output; the first inline image part of the reply is the result.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/imaging"
)

// geminiBaseURL is the Gemini REST API base URL.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrNoImage is returned when the model answered without an image part.
var ErrNoImage = errors.New("no image returned in response")

// ImageClient calls a Gemini image model via the REST API.
type ImageClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// ImageClientOption customizes an ImageClient.
type ImageClientOption func(*ImageClient)

// WithImageModel overrides the image model ID.
func WithImageModel(model string) ImageClientOption {
	return func(c *ImageClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(baseURL string) ImageClientOption {
	return func(c *ImageClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ImageClientOption {
	return func(c *ImageClient) {
		c.httpClient = hc
	}
}

// NewImageClient creates a client for the Gemini image model. The HTTP client
// has no timeout; callers bound each call through the context.
func NewImageClient(apiKey string, opts ...ImageClientOption) *ImageClient {
	c := &ImageClient{
		apiKey:     apiKey,
		model:      GetImageModelName(),
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the image model ID in use.
func (c *ImageClient) Model() string {
	return c.model
}

// --- REST API request/response types ---

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobData `json:"inlineData,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiBlobData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ImageResult holds the result of an image model call.
type ImageResult struct {
	Image imaging.Image
	// Text is any commentary the model returned alongside the image.
	Text string
}

// EditImage sends a photo with a directive and returns the first image the
// model produced. Exactly one attempt is made.
func (c *ImageClient) EditImage(ctx context.Context, img imaging.Image, directive string) (*ImageResult, error) {
	startTime := time.Now()
	log.Debug().
		Str("model", c.model).
		Int("image_bytes", len(img.Data)).
		Str("image_mime", img.MIMEType).
		Int("directive_length", len(directive)).
		Msg("Sending image to Gemini")

	req := geminiRequest{
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{
					InlineData: &geminiBlobData{
						MIMEType: img.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(img.Data),
					},
				},
				{Text: directive},
			},
		}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// The key travels in a header so transport errors, which quote the URL,
	// never carry it into logs.
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncateString(string(respBody), 500)).
			Msg("Gemini image API returned error")
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateString(string(respBody), 200))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if geminiResp.Error != nil {
		return nil, fmt.Errorf("API error: %s (code: %d)", geminiResp.Error.Message, geminiResp.Error.Code)
	}

	result := &ImageResult{}
	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && result.Image.IsZero() {
				decoded, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("failed to decode image data: %w", err)
				}
				result.Image = imaging.Image{Data: decoded, MIMEType: part.InlineData.MIMEType}
			}
			if part.Text != "" {
				result.Text += part.Text
			}
		}
	}

	if result.Image.IsZero() {
		return nil, fmt.Errorf("%w (text: %s)", ErrNoImage, truncateString(result.Text, 200))
	}

	log.Info().
		Str("model", c.model).
		Int("output_bytes", len(result.Image.Data)).
		Str("output_mime", result.Image.MIMEType).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini image call complete")

	return result, nil
}
