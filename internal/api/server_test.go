package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/chat"
	"github.com/fpang/aura-design/internal/imaging"
	"github.com/fpang/aura-design/internal/imaging/imagingtest"
	"github.com/fpang/aura-design/internal/metrics"
	"github.com/fpang/aura-design/internal/router"
	"github.com/fpang/aura-design/internal/session"
	"github.com/fpang/aura-design/internal/studio"
)

func TestMain(m *testing.M) {
	metrics.Disable(true)
	os.Exit(m.Run())
}

type fakeGenerator struct{ img imaging.Image }

func (g fakeGenerator) GenerateFromStyle(context.Context, imaging.Image, string) (imaging.Image, bool) {
	return g.img, !g.img.IsZero()
}

type fakeEditor struct{ img imaging.Image }

func (e fakeEditor) ApplyEdit(context.Context, imaging.Image, string) (imaging.Image, bool) {
	return e.img, !e.img.IsZero()
}

type fakeConsultant struct{ reply chat.Reply }

func (c fakeConsultant) Reply(context.Context, string, []chat.Turn) (chat.Reply, error) {
	return c.reply, nil
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	redesign := imaging.Image{Data: imagingtest.PNG(t, 40, 30, color.RGBA{0, 0, 255, 255}), MIMEType: "image/png"}
	edited := imaging.Image{Data: imagingtest.PNG(t, 40, 30, color.RGBA{255, 0, 0, 255}), MIMEType: "image/png"}
	rt := router.New(nil, fakeEditor{img: edited}, fakeConsultant{reply: chat.Reply{
		Text:       "Oak works well.",
		References: []chat.Reference{{Title: "Oak guide", URI: "https://example.com/oak"}},
	}})
	st := studio.New(session.NewStore(time.Hour), catalog.Default(), fakeGenerator{img: redesign}, rt)
	return New(st, nil, opts)
}

func do(t *testing.T, h http.Handler, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, h http.Handler, method, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return do(t, h, method, path, body, "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d", rec.Code)
	}
	var resp map[string]string
	decode(t, rec, &resp)
	if resp["sessionId"] == "" {
		t.Fatal("empty session id")
	}
	return resp["sessionId"]
}

func uploadPNG(t *testing.T, h http.Handler, id string) {
	t.Helper()
	png := imagingtest.PNG(t, 40, 30, color.RGBA{0, 255, 0, 255})
	rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/photo", png, "image/png")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: status %d body %s", rec.Code, rec.Body.String())
	}
}

func getSession(t *testing.T, h http.Handler, id string) sessionView {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/api/sessions/"+id, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get session: status %d", rec.Code)
	}
	var v sessionView
	decode(t, rec, &v)
	return v
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	rec := do(t, h, http.MethodGet, "/api/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestStyles(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	rec := do(t, h, http.MethodGet, "/api/styles", nil, "")
	var resp struct {
		Styles []catalog.Style `json:"styles"`
	}
	decode(t, rec, &resp)
	if len(resp.Styles) != 6 {
		t.Fatalf("got %d styles, want 6", len(resp.Styles))
	}
	if resp.Styles[0].ID != "scandinavian" || resp.Styles[0].DisplayName != "Scandinavian" {
		t.Errorf("first style = %+v", resp.Styles[0])
	}
}

func TestSession_NotFound(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	rec := do(t, h, http.MethodGet, "/api/sessions/nope", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSession_EmptySnapshot(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	id := createSession(t, h)
	v := getSession(t, h, id)
	if v.SessionID != id {
		t.Errorf("sessionId = %q, want %q", v.SessionID, id)
	}
	if v.Original != nil || v.Current != nil {
		t.Error("new session should have no images")
	}
	if v.Compare.Position != 50 || v.Compare.State != "idle" {
		t.Errorf("compare = %+v, want position 50 idle", v.Compare)
	}
	if v.Transcript == nil {
		t.Error("transcript should encode as an empty list")
	}
}

func TestRedesignFlow(t *testing.T) {
	srv := newTestServer(t, Options{})
	h := srv.Handler()
	id := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/style", map[string]string{"styleId": "japandi"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("style before upload: status %d, want 409", rec.Code)
	}

	uploadPNG(t, h, id)
	v := getSession(t, h, id)
	if v.Original == nil || v.Current != nil {
		t.Fatal("upload should set only the original")
	}
	if v.Original.URL != "/api/sessions/"+id+"/images/original" {
		t.Errorf("original url = %q", v.Original.URL)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/style", map[string]string{"styleId": "japandi"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("style: status %d body %s", rec.Code, rec.Body.String())
	}
	var accepted map[string]string
	decode(t, rec, &accepted)
	if accepted["status"] != "Dreaming up your Japandi room..." {
		t.Errorf("status = %q", accepted["status"])
	}
	srv.studio.Wait()

	v = getSession(t, h, id)
	if v.ActiveStyle == nil || v.ActiveStyle.ID != "japandi" {
		t.Errorf("activeStyle = %+v", v.ActiveStyle)
	}
	if v.Busy.Generating || v.Status != "" {
		t.Error("still generating after Wait")
	}
	if v.Current == nil {
		t.Fatal("redesign should set the current image")
	}
	if v.Generation == 0 {
		t.Error("generation should advance on upload")
	}

	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/images/current", nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("current image: status %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/compare?width=80", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("compare: status %d body %s", rec.Code, rec.Body.String())
	}
	if _, _, err := imaging.IntakeBytes(rec.Body.Bytes()); err != nil {
		t.Errorf("compare output is not an image: %v", err)
	}
}

func TestSelectStyle_Validation(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	id := createSession(t, h)
	uploadPNG(t, h, id)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing style", `{}`, http.StatusBadRequest},
		{"unknown field", `{"styleId":"japandi","extra":1}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"unknown style", `{"styleId":"gothic"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/style", []byte(tt.body), "application/json")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestMessages_EditAndInformational(t *testing.T) {
	srv := newTestServer(t, Options{})
	h := srv.Handler()
	id := createSession(t, h)
	uploadPNG(t, h, id)
	if rec := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/style", map[string]string{"styleId": "bohemian"}); rec.Code != http.StatusAccepted {
		t.Fatalf("style: status %d", rec.Code)
	}
	srv.studio.Wait()

	rec := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/messages", map[string]string{"text": "Make the rug red"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("edit message: status %d", rec.Code)
	}
	srv.studio.Wait()

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/messages", map[string]string{"text": "Which wood suits this?"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("question: status %d", rec.Code)
	}
	srv.studio.Wait()

	v := getSession(t, h, id)
	var bodies []string
	for _, e := range v.Transcript {
		bodies = append(bodies, string(e.Speaker)+": "+e.Body)
	}
	want := []string{
		"user: Make the rug red",
		"assistant: " + router.AcknowledgeText,
		"assistant: " + router.EditSuccessText,
		"user: Which wood suits this?",
		"assistant: Oak works well.\n\n**Helpful Links:**\n\n• [Oak guide](https://example.com/oak)",
	}
	if len(bodies) != len(want) {
		t.Fatalf("transcript = %q, want %q", bodies, want)
	}
	for i := range want {
		if bodies[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, bodies[i], want[i])
		}
	}
	if !v.Transcript[2].ImpliesVisualChange {
		t.Error("applied edit should be flagged as a visual change")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/messages", map[string]string{"text": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank message: status %d, want 400", rec.Code)
	}
}

func TestUploadPhoto_Forms(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	png := imagingtest.PNG(t, 12, 10, color.RGBA{10, 20, 30, 255})

	t.Run("multipart", func(t *testing.T) {
		id := createSession(t, h)
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("photo", "room.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(png)
		mw.Close()

		rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/photo", buf.Bytes(), mw.FormDataContentType())
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
		}
		var resp map[string]interface{}
		decode(t, rec, &resp)
		if resp["width"] != float64(12) || resp["height"] != float64(10) {
			t.Errorf("dimensions = %v x %v", resp["width"], resp["height"])
		}
	})

	t.Run("data uri", func(t *testing.T) {
		id := createSession(t, h)
		uri := imaging.Image{Data: png, MIMEType: "image/png"}.DataURI()
		rec := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/photo", map[string]string{"dataUri": uri})
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("key without bucket", func(t *testing.T) {
		id := createSession(t, h)
		rec := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/photo", map[string]string{"key": id + "/room.png"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		id := createSession(t, h)
		rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/photo", []byte("hello, world"), "text/plain")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
	})

	t.Run("empty json", func(t *testing.T) {
		id := createSession(t, h)
		rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/photo", []byte(`{}`), "application/json")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
	})
}

func TestChangePhoto(t *testing.T) {
	srv := newTestServer(t, Options{})
	h := srv.Handler()
	id := createSession(t, h)
	uploadPNG(t, h, id)

	rec := do(t, h, http.MethodDelete, "/api/sessions/"+id+"/photo", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	v := getSession(t, h, id)
	if v.Original != nil || v.Current != nil {
		t.Error("change photo should clear images")
	}
	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/images/original", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("image after reset: status %d, want 404", rec.Code)
	}
}

func TestPointer(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	id := createSession(t, h)
	path := "/api/sessions/" + id + "/compare/pointer"

	steps := []struct {
		body      string
		wantPos   float64
		wantState string
	}{
		{`{"type":"mousemove","x":90,"left":10,"width":200}`, 50, "idle"},
		{`{"type":"mousedown","x":170}`, 50, "dragging"},
		{`{"type":"mousemove","x":160}`, 75, "dragging"},
		{`{"type":"touchmove","x":500}`, 100, "dragging"},
		{`{"type":"mouseup"}`, 100, "idle"},
		{`{"type":"mousemove","x":20}`, 100, "idle"},
	}
	for i, st := range steps {
		rec := do(t, h, http.MethodPost, path, []byte(st.body), "application/json")
		if rec.Code != http.StatusOK {
			t.Fatalf("step %d: status %d body %s", i, rec.Code, rec.Body.String())
		}
		var cv compareView
		decode(t, rec, &cv)
		if cv.Position != st.wantPos || cv.State != st.wantState {
			t.Errorf("step %d: got %v/%s, want %v/%s", i, cv.Position, cv.State, st.wantPos, st.wantState)
		}
		if cv.Clip.InnerWidthPx != 200 {
			t.Errorf("step %d: inner width = %v, want 200", i, cv.Clip.InnerWidthPx)
		}
	}

	rec := do(t, h, http.MethodPost, path, []byte(`{"type":"wheel"}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown event: status %d, want 400", rec.Code)
	}
}

func TestPointer_WidthOnlyKeepsLeft(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	id := createSession(t, h)
	path := "/api/sessions/" + id + "/compare/pointer"

	for _, body := range []string{
		`{"type":"mousemove","x":90,"left":10,"width":200}`,
		`{"type":"mousedown","x":110}`,
	} {
		if rec := do(t, h, http.MethodPost, path, []byte(body), "application/json"); rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", body, rec.Code)
		}
	}

	rec := do(t, h, http.MethodPost, path, []byte(`{"type":"mousemove","x":110,"width":400}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("resize: status %d body %s", rec.Code, rec.Body.String())
	}
	var cv compareView
	decode(t, rec, &cv)
	// (110-10)/400 with the left edge kept; 27.5 had it been reset to 0.
	if cv.Position != 25 {
		t.Errorf("position = %v, want 25", cv.Position)
	}
	if cv.Clip.InnerWidthPx != 400 {
		t.Errorf("inner width = %v, want 400", cv.Clip.InnerWidthPx)
	}
}

func TestCompare_Errors(t *testing.T) {
	srv := newTestServer(t, Options{})
	h := srv.Handler()
	id := createSession(t, h)

	rec := do(t, h, http.MethodGet, "/api/sessions/"+id+"/compare", nil, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("no images: status %d, want 409", rec.Code)
	}
	uploadPNG(t, h, id)
	if rec := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/style", map[string]string{"styleId": "industrial"}); rec.Code != http.StatusAccepted {
		t.Fatalf("style: status %d", rec.Code)
	}
	srv.studio.Wait()
	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/compare?width=abc", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad width: status %d, want 400", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/compare?width=99999", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized: status %d, want 400", rec.Code)
	}
}

func TestEndSession(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	id := createSession(t, h)

	if rec := do(t, h, http.MethodDelete, "/api/sessions/"+id, nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d, want 204", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/sessions/"+id, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/sessions/"+id, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", rec.Code)
	}
}

func TestUploadURL_NotConfigured(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	rec := do(t, h, http.MethodGet, "/api/upload-url?sessionId=x&filename=a.png&contentType=image/png", nil, "")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status %d, want 501", rec.Code)
	}
}
