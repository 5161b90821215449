package api

import (
	"time"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/compare"
	"github.com/fpang/aura-design/internal/session"
)

// imageView points at one of the session's images. DataURI is set only when
// the client asked for inline images.
type imageView struct {
	URL      string `json:"url"`
	MIMEType string `json:"mimeType"`
	Bytes    int    `json:"bytes"`
	DataURI  string `json:"dataUri,omitempty"`
}

type compareView struct {
	Position float64      `json:"position"`
	State    string       `json:"state"`
	Clip     compare.Clip `json:"clip"`
}

// sessionView is the JSON shape of a session snapshot.
type sessionView struct {
	SessionID   string          `json:"sessionId"`
	Generation  uint64          `json:"generation"`
	Original    *imageView      `json:"original,omitempty"`
	Current     *imageView      `json:"current,omitempty"`
	ActiveStyle *catalog.Style  `json:"activeStyle,omitempty"`
	Transcript  []session.Entry `json:"transcript"`
	Busy        session.Busy    `json:"busy"`
	Status      string          `json:"status,omitempty"`
	Compare     compareView     `json:"compare"`
	Updated     time.Time       `json:"updated"`
}

func newSessionView(snap session.Snapshot, inline bool) sessionView {
	base := "/api/sessions/" + snap.ID + "/images/"
	v := sessionView{
		SessionID:   snap.ID,
		Generation:  snap.Generation,
		ActiveStyle: snap.ActiveStyle,
		Transcript:  snap.Transcript,
		Busy:        snap.Busy,
		Status:      snap.Status,
		Compare: compareView{
			Position: snap.Position,
			State:    snap.Drag.String(),
			Clip:     snap.Clip,
		},
		Updated: snap.Updated,
	}
	if v.Transcript == nil {
		v.Transcript = []session.Entry{}
	}
	if snap.HasOriginal() {
		v.Original = &imageView{URL: base + "original", MIMEType: snap.Original.MIMEType, Bytes: len(snap.Original.Data)}
		if inline {
			v.Original.DataURI = snap.Original.DataURI()
		}
	}
	if snap.HasCurrent() {
		v.Current = &imageView{URL: base + "current", MIMEType: snap.Current.MIMEType, Bytes: len(snap.Current.Data)}
		if inline {
			v.Current.DataURI = snap.Current.DataURI()
		}
	}
	return v
}
