// ABOUTME: Read-only REST client for the song catalog
// ABOUTME: Fetches track records, the next track id and uploader names
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the backend has no such record
var ErrNotFound = errors.New("not found")

// Track is a song record
type Track struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	Color        string `json:"color"`
	Symbol       string `json:"symbol"`
	ChemicalName string `json:"chemical_name"`
	Style        string `json:"style"`
	Lyrics       string `json:"lyrics"`
	Image        string `json:"image"`
	URL          string `json:"url"`
	UserID       int    `json:"user_id"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// User is an uploader record
type User struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Image       string `json:"image"`
}

// Client talks to the catalog backend
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL. A nil httpClient uses one with a 10s
// timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Track fetches a track by id
func (c *Client) Track(ctx context.Context, id int) (*Track, error) {
	var t Track
	if err := c.getJSON(ctx, fmt.Sprintf("/songs/get/id/%d", id), &t); err != nil {
		return nil, fmt.Errorf("failed to fetch track %d: %w", id, err)
	}
	return &t, nil
}

// NextTrackID asks the backend for a track to advance to. ok is false when
// there is none.
func (c *Client) NextTrackID(ctx context.Context) (id int, ok bool, err error) {
	var raw json.RawMessage
	err = c.getJSON(ctx, "/songs/get/random", &raw)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch next track: %w", err)
	}

	id, err = parseID(raw)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse next track id: %w", err)
	}
	return id, true, nil
}

// parseID accepts a bare number, a quoted number or an object with an id
func parseID(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.Atoi(s)
	}
	var obj struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != nil {
		return *obj.ID, nil
	}
	return 0, fmt.Errorf("unexpected payload %s", string(raw))
}

// User fetches an uploader by id
func (c *Client) User(ctx context.Context, id int) (*User, error) {
	var u User
	if err := c.getJSON(ctx, fmt.Sprintf("/users/get/id/%d", id), &u); err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", id, err)
	}
	return &u, nil
}

// AudioURL joins the base URL and the track's stored audio path
func (c *Client) AudioURL(t *Track) string {
	return c.baseURL + t.URL
}

// ImageURL returns the jacket image URL; relative paths are joined to the
// base URL
func (c *Client) ImageURL(t *Track) string {
	if t.Image == "" {
		return ""
	}
	if u, err := url.Parse(t.Image); err == nil && u.IsAbs() {
		return t.Image
	}
	return c.baseURL + t.Image
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
