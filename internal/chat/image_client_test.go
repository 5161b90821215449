package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fpang/aura-design/internal/imaging"
)

func newTestImageServer(t *testing.T, status int, body string, capture *geminiRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/models/test-image-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("expected x-goog-api-key header, got %q", got)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query string, got %q", r.URL.RawQuery)
		}
		if capture != nil {
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, capture); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestImageClient(srv *httptest.Server) *ImageClient {
	return NewImageClient("test-key", WithBaseURL(srv.URL), WithImageModel("test-image-model"))
}

func TestImageClient_EditImage(t *testing.T) {
	out := base64.StdEncoding.EncodeToString([]byte("edited-bytes"))
	body := `{"candidates":[{"content":{"parts":[` +
		`{"text":"Here you go."},` +
		`{"inlineData":{"mimeType":"image/png","data":"` + out + `"}}]}}]}`

	var got geminiRequest
	srv := newTestImageServer(t, http.StatusOK, body, &got)

	res, err := newTestImageClient(srv).EditImage(context.Background(),
		imaging.Image{Data: []byte("room"), MIMEType: "image/jpeg"}, "make it cozy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Image.Data) != "edited-bytes" || res.Image.MIMEType != "image/png" {
		t.Errorf("unexpected image %q (%s)", res.Image.Data, res.Image.MIMEType)
	}
	if res.Text != "Here you go." {
		t.Errorf("expected text to be collected, got %q", res.Text)
	}

	if got.GenerationConfig == nil || strings.Join(got.GenerationConfig.ResponseModalities, ",") != "TEXT,IMAGE" {
		t.Errorf("expected TEXT,IMAGE modalities, got %+v", got.GenerationConfig)
	}
	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 2 {
		t.Fatalf("expected one content with two parts, got %+v", got.Contents)
	}
	inline := got.Contents[0].Parts[0].InlineData
	if inline == nil || inline.MIMEType != "image/jpeg" || inline.Data != base64.StdEncoding.EncodeToString([]byte("room")) {
		t.Errorf("unexpected inline data %+v", inline)
	}
	if got.Contents[0].Parts[1].Text != "make it cozy" {
		t.Errorf("unexpected directive %q", got.Contents[0].Parts[1].Text)
	}
}

func TestImageClient_FirstImageWins(t *testing.T) {
	first := base64.StdEncoding.EncodeToString([]byte("first"))
	second := base64.StdEncoding.EncodeToString([]byte("second"))
	body := `{"candidates":[{"content":{"parts":[` +
		`{"inlineData":{"mimeType":"image/png","data":"` + first + `"}},` +
		`{"inlineData":{"mimeType":"image/png","data":"` + second + `"}}]}}]}`
	srv := newTestImageServer(t, http.StatusOK, body, nil)

	res, err := newTestImageClient(srv).EditImage(context.Background(), imaging.Image{Data: []byte("x"), MIMEType: "image/png"}, "d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Image.Data) != "first" {
		t.Errorf("expected first image part, got %q", res.Image.Data)
	}
}

func TestImageClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		noImg  bool
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"code":500}}`, false},
		{"quota", http.StatusTooManyRequests, `slow down`, false},
		{"malformed json", http.StatusOK, `{not json`, false},
		{"api error body", http.StatusOK, `{"error":{"code":400,"message":"bad"}}`, false},
		{"text only", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"I cannot do that"}]}}]}`, true},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, true},
		{"bad base64", http.StatusOK, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"!!!"}}]}}]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestImageServer(t, tt.status, tt.body, nil)
			res, err := newTestImageClient(srv).EditImage(context.Background(), imaging.Image{Data: []byte("x"), MIMEType: "image/png"}, "d")
			if err == nil {
				t.Fatalf("expected error, got result %+v", res)
			}
			if tt.noImg && !errors.Is(err, ErrNoImage) {
				t.Errorf("expected ErrNoImage, got %v", err)
			}
		})
	}
}

func TestImageClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := newTestImageClient(srv)
	srv.Close()

	if _, err := client.EditImage(context.Background(), imaging.Image{Data: []byte("x"), MIMEType: "image/png"}, "d"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestImageClient_TransportErrorOmitsKey(t *testing.T) {
	client := NewImageClient("SECRET-KEY-123", WithBaseURL("http://127.0.0.1:1"))

	_, err := client.EditImage(context.Background(), imaging.Image{Data: []byte("x"), MIMEType: "image/png"}, "d")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Errorf("error text leaks the API key: %v", err)
	}
}

func TestNewImageClient_Defaults(t *testing.T) {
	t.Setenv("GEMINI_IMAGE_MODEL", "")
	c := NewImageClient("k")
	if c.Model() != DefaultImageModelName {
		t.Errorf("expected %s, got %s", DefaultImageModelName, c.Model())
	}
	if c.httpClient.Timeout != 0 {
		t.Errorf("expected no client timeout, got %s", c.httpClient.Timeout)
	}

	t.Setenv("GEMINI_IMAGE_MODEL", "custom-image")
	if got := NewImageClient("k").Model(); got != "custom-image" {
		t.Errorf("expected env override, got %s", got)
	}
}
