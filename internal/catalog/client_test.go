// ABOUTME: Tests for the catalog client
// ABOUTME: Serves canned backend responses from httptest servers
package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newBackend(t *testing.T, routes map[string]func(w http.ResponseWriter)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w)
	}))
	t.Cleanup(server.Close)
	return New(server.URL+"/", nil)
}

func jsonBody(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestTrack(t *testing.T) {
	c := newBackend(t, map[string]func(http.ResponseWriter){
		"/songs/get/id/7": jsonBody(`{"id":7,"title":"Ruby Night","type":"metal","color":"赤",
			"symbol":"Fe","chemical_name":"iron","style":"rock","lyrics":"赤い空",
			"image":"/static/7.png","url":"/static/7.mp3","user_id":3}`),
	})

	track, err := c.Track(context.Background(), 7)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if track.ID != 7 || track.Title != "Ruby Night" || track.Color != "赤" || track.UserID != 3 {
		t.Errorf("unexpected track %+v", track)
	}
	if track.ChemicalName != "iron" || track.Symbol != "Fe" {
		t.Errorf("unexpected chemical fields %+v", track)
	}
	if got := c.AudioURL(track); got != c.BaseURL()+"/static/7.mp3" {
		t.Errorf("unexpected audio URL %s", got)
	}
	if got := c.ImageURL(track); got != c.BaseURL()+"/static/7.png" {
		t.Errorf("unexpected image URL %s", got)
	}
}

func TestTrackNotFound(t *testing.T) {
	c := newBackend(t, nil)
	if _, err := c.Track(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTrackServerError(t *testing.T) {
	c := newBackend(t, map[string]func(http.ResponseWriter){
		"/songs/get/id/1": func(w http.ResponseWriter) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	_, err := c.Track(context.Background(), 1)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a server error, got %v", err)
	}
}

func TestNextTrackID(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID int
	}{
		{"bare number", `42`, 42},
		{"quoted number", `"42"`, 42},
		{"object", `{"id":42}`, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBackend(t, map[string]func(http.ResponseWriter){
				"/songs/get/random": jsonBody(tt.body),
			})
			id, ok, err := c.NextTrackID(context.Background())
			if err != nil || !ok || id != tt.wantID {
				t.Errorf("expected (%d, true, nil), got (%d, %v, %v)", tt.wantID, id, ok, err)
			}
		})
	}
}

func TestNextTrackIDNone(t *testing.T) {
	c := newBackend(t, nil)
	id, ok, err := c.NextTrackID(context.Background())
	if err != nil || ok || id != 0 {
		t.Errorf("expected no next track, got (%d, %v, %v)", id, ok, err)
	}
}

func TestNextTrackIDBadPayload(t *testing.T) {
	c := newBackend(t, map[string]func(http.ResponseWriter){
		"/songs/get/random": jsonBody(`{"title":"x"}`),
	})
	if _, _, err := c.NextTrackID(context.Background()); err == nil {
		t.Error("expected error for payload without id")
	}
}

func TestUser(t *testing.T) {
	c := newBackend(t, map[string]func(http.ResponseWriter){
		"/users/get/id/3": jsonBody(`{"id":3,"name":"kana","display_name":"Kana","email":"k@example.com","image":""}`),
	})
	u, err := c.User(context.Background(), 3)
	if err != nil || u.DisplayName != "Kana" {
		t.Errorf("unexpected user %+v (%v)", u, err)
	}
}

func TestImageURLAbsolute(t *testing.T) {
	c := New("http://api.local", nil)
	tr := &Track{Image: "https://cdn.example.com/a.png"}
	if got := c.ImageURL(tr); got != tr.Image {
		t.Errorf("expected absolute URL kept, got %s", got)
	}
	if got := c.ImageURL(&Track{}); got != "" {
		t.Errorf("expected empty image URL, got %s", got)
	}
}
