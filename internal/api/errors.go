package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/compare"
	"github.com/fpang/aura-design/internal/imaging"
	"github.com/fpang/aura-design/internal/s3util"
	"github.com/fpang/aura-design/internal/session"
	"github.com/fpang/aura-design/internal/studio"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var badReq *badRequestError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest
	case errors.As(err, &maxErr),
		errors.Is(err, imaging.ErrTooLarge),
		errors.Is(err, s3util.ErrObjectTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, studio.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrNoOriginal),
		errors.Is(err, studio.ErrNothingToCompare):
		return http.StatusConflict
	case errors.Is(err, imaging.ErrUnsupportedType),
		errors.Is(err, imaging.ErrEmpty),
		errors.Is(err, imaging.ErrInvalidDataURI),
		errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, session.ErrEmptyImage),
		errors.Is(err, catalog.ErrUnknownStyle),
		errors.Is(err, compare.ErrUnknownEvent),
		errors.Is(err, compare.ErrBadSize),
		errors.Is(err, s3util.ErrInvalidKey),
		errors.Is(err, s3util.ErrUnsupportedContentType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the status for err. Server errors are logged and
// their details withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		httpError(w, status, "internal error")
		return
	}
	log.Debug().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Request rejected")
	httpError(w, status, err.Error())
}
