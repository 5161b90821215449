package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/compare"
	"github.com/fpang/aura-design/internal/imaging"
	"github.com/fpang/aura-design/internal/s3util"
	"github.com/fpang/aura-design/internal/session"
)

const (
	// maxPhotoJSONBody allows a base64 data URI of a full-size photo.
	maxPhotoJSONBody = imaging.MaxUploadSize*4/3 + 4096
	// s3FetchTimeout bounds reading an uploaded object back from S3.
	s3FetchTimeout = 30 * time.Second
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.studio.SessionCount(),
	})
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]catalog.Style{
		"styles": s.studio.Catalog().Styles(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.studio.CreateSession()
	log.Info().Str("sessionId", sess.ID()).Msg("Session created")
	respondJSON(w, http.StatusCreated, map[string]string{"sessionId": sess.ID()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.studio.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	inline := r.URL.Query().Get("inline") == "true"
	respondJSON(w, http.StatusOK, newSessionView(sess.Snapshot(), inline))
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.studio.EndSession(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// photoRequest is the JSON form of a photo upload: either an inline data
// URI or the key of an object already PUT through a presigned URL.
type photoRequest struct {
	DataURI string `json:"dataUri" validate:"required_without=Key"`
	Key     string `json:"key" validate:"required_without=DataURI"`
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.studio.Session(id); err != nil {
		writeError(w, r, err)
		return
	}

	img, info, err := s.readPhoto(w, r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.studio.Upload(id, img); err != nil {
		writeError(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"mimeType": img.MIMEType,
		"width":    info.Width,
		"height":   info.Height,
		"bytes":    info.Bytes,
	}
	if info.CameraModel != "" {
		resp["camera"] = strings.TrimSpace(info.CameraMake + " " + info.CameraModel)
	}
	respondJSON(w, http.StatusOK, resp)
}

// readPhoto accepts multipart (field "photo"), JSON ({dataUri} or {key}) or
// a raw image body.
func (s *Server) readPhoto(w http.ResponseWriter, r *http.Request, sessionID string) (imaging.Image, imaging.Info, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
		file, _, err := r.FormFile("photo")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return imaging.Image{}, imaging.Info{}, err
			}
			return imaging.Image{}, imaging.Info{}, errBadRequest("missing photo file")
		}
		defer file.Close()
		return imaging.Intake(file)

	case "application/json":
		var req photoRequest
		if err := s.decodeJSON(w, r, maxPhotoJSONBody, &req); err != nil {
			return imaging.Image{}, imaging.Info{}, err
		}
		if req.Key != "" {
			return s.fetchUploaded(r.Context(), sessionID, req.Key)
		}
		uri, err := imaging.ParseDataURI(req.DataURI)
		if err != nil {
			return imaging.Image{}, imaging.Info{}, err
		}
		return imaging.IntakeBytes(uri.Data)

	default:
		return imaging.Intake(http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1))
	}
}

// fetchUploaded reads a presigned upload back from S3. The key must belong
// to the session.
func (s *Server) fetchUploaded(ctx context.Context, sessionID, key string) (imaging.Image, imaging.Info, error) {
	if s.media == nil {
		return imaging.Image{}, imaging.Info{}, errBadRequest("S3 uploads are not configured")
	}
	if err := s3util.ValidateKey(key); err != nil {
		return imaging.Image{}, imaging.Info{}, err
	}
	if s3util.SessionOfKey(key) != sessionID {
		return imaging.Image{}, imaging.Info{}, fmt.Errorf("%w: key belongs to another session", s3util.ErrInvalidKey)
	}

	ctx, cancel := context.WithTimeout(ctx, s3FetchTimeout)
	defer cancel()
	data, err := s.media.Fetch(ctx, key, imaging.MaxUploadSize)
	if err != nil {
		return imaging.Image{}, imaging.Info{}, err
	}
	if err := s.media.TagObject(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to tag uploaded photo")
	}
	return imaging.IntakeBytes(data)
}

func (s *Server) handleChangePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.studio.ChangePhoto(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type styleRequest struct {
	StyleID string `json:"styleId" validate:"required"`
}

func (s *Server) handleSelectStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := s.decodeJSON(w, r, maxJSONBody, &req); err != nil {
		writeError(w, r, err)
		return
	}
	style, err := s.studio.SelectStyle(r.PathValue("id"), req.StyleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"styleId": style.ID,
		"status":  fmt.Sprintf(session.GeneratingStatus, style.DisplayName),
	})
}

type messageRequest struct {
	Text string `json:"text" validate:"required"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := s.decodeJSON(w, r, maxJSONBody, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.studio.SendMessage(r.PathValue("id"), req.Text); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.studio.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := sess.Snapshot()

	var img imaging.Image
	switch r.PathValue("kind") {
	case "original":
		img = snap.Original
	case "current":
		img = snap.Current
	default:
		httpError(w, http.StatusNotFound, "unknown image kind")
		return
	}
	if img.IsZero() {
		httpError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, "", snap.Updated, bytes.NewReader(img.Data))
}

type pointerRequest struct {
	Type string `json:"type" validate:"required"`
	// X is the pointer's client X coordinate; nil for events without one.
	X     *float64 `json:"x"`
	Left  *float64 `json:"left"`
	Width *float64 `json:"width" validate:"omitempty,gt=0"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := s.decodeJSON(w, r, maxJSONBody, &req); err != nil {
		writeError(w, r, err)
		return
	}
	typ, err := compare.ParseEventType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ev := compare.PointerEvent{Type: typ}
	if req.X != nil {
		ev.X, ev.HasX = *req.X, true
	}

	id := r.PathValue("id")
	sess, err := s.studio.Session(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A resize that only reports the width keeps the container's left edge.
	var geom *compare.Geometry
	if req.Width != nil {
		geom = &compare.Geometry{Left: sess.Geometry().Left, Width: *req.Width}
		if req.Left != nil {
			geom.Left = *req.Left
		}
	}
	if _, err := s.studio.Pointer(id, ev, geom); err != nil {
		writeError(w, r, err)
		return
	}
	snap := sess.Snapshot()
	respondJSON(w, http.StatusOK, compareView{
		Position: snap.Position,
		State:    snap.Drag.String(),
		Clip:     snap.Clip,
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	width, err := queryInt(r, "width")
	if err != nil {
		writeError(w, r, err)
		return
	}
	height, err := queryInt(r, "height")
	if err != nil {
		writeError(w, r, err)
		return
	}
	img, err := s.studio.Compare(r.PathValue("id"), width, height)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img.Data)
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	if s.media == nil {
		httpError(w, http.StatusNotImplemented, "S3 uploads are not configured")
		return
	}
	q := r.URL.Query()
	sessionID := q.Get("sessionId")
	if _, err := s.studio.Session(sessionID); err != nil {
		writeError(w, r, err)
		return
	}
	url, key, err := s.media.PresignUpload(r.Context(), sessionID, q.Get("filename"), q.Get("contentType"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"uploadUrl": url,
		"key":       key,
	})
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errBadRequest(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}
