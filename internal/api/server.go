// Package api serves the design studio over HTTP. The same handler runs
// behind a local listener (aura-web) and behind API Gateway (aura-lambda).
package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"

	"github.com/fpang/aura-design/internal/s3util"
	"github.com/fpang/aura-design/internal/studio"
)

// Options tune the middleware chain.
type Options struct {
	// AllowedOrigins lists CORS origins. Empty allows localhost only.
	AllowedOrigins []string
	// OriginVerifySecret, when set, must arrive in x-origin-verify.
	OriginVerifySecret string
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int
	// TrustedProxyHops is how many proxies in front of the server append to
	// X-Forwarded-For. Zero keys rate limits on the connection address.
	TrustedProxyHops int
}

// Server holds the handler dependencies.
type Server struct {
	studio   *studio.Studio
	media    *s3util.Media
	validate *validator.Validate
	opts     Options
}

// New builds a server. media may be nil when no bucket is configured; S3
// uploads are then unavailable.
func New(st *studio.Studio, media *s3util.Media, opts Options) *Server {
	return &Server{
		studio:   st,
		media:    media,
		validate: validator.New(),
		opts:     opts,
	}
}

// Handler returns the routed API wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/styles", s.handleStyles)
	mux.HandleFunc("GET /api/upload-url", s.handleUploadURL)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleEndSession)
	mux.HandleFunc("POST /api/sessions/{id}/photo", s.handleUploadPhoto)
	mux.HandleFunc("DELETE /api/sessions/{id}/photo", s.handleChangePhoto)
	mux.HandleFunc("POST /api/sessions/{id}/style", s.handleSelectStyle)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("GET /api/sessions/{id}/images/{kind}", s.handleImage)
	mux.HandleFunc("POST /api/sessions/{id}/compare/pointer", s.handlePointer)
	mux.HandleFunc("GET /api/sessions/{id}/compare", s.handleCompare)

	var h http.Handler = mux
	h = withRateLimit(s.opts.RateLimit, s.opts.RateBurst, s.opts.TrustedProxyHops)(h)
	h = withOriginVerify(s.opts.OriginVerifySecret)(h)
	h = withMetrics(h)
	h = withCORS(s.opts.AllowedOrigins)(h)
	h = withLogging(h)
	h = withSecurityHeaders(h)
	return gzhttp.GzipHandler(h)
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
