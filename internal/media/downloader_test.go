// ABOUTME: Tests for the media downloader
// ABOUTME: Covers caching, error statuses, extensions and cancellation
package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDownloaderCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	dl, err := NewDownloader(dir, nil)
	if err != nil {
		t.Fatalf("failed to create downloader: %v", err)
	}
	if _, err := os.Stat(dl.CacheDir()); err != nil {
		t.Errorf("cache directory was not created: %v", err)
	}
}

func TestDownloadSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake audio data"))
	}))
	defer server.Close()

	dl, err := NewDownloader(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create downloader: %v", err)
	}

	path, err := dl.Download(context.Background(), server.URL+"/static/song.mp3", Audio)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(content) != "fake audio data" {
		t.Errorf("unexpected content %q", string(content))
	}
	if !strings.HasSuffix(path, ".mp3") {
		t.Errorf("expected .mp3 suffix, got %s", path)
	}
	if dl.CurrentPath(Audio) != path {
		t.Errorf("expected CurrentPath %s, got %s", path, dl.CurrentPath(Audio))
	}
	if dl.CurrentPath(Image) != "" {
		t.Error("image path should be untouched")
	}
}

func TestDownloadCaching(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("img"))
	}))
	defer server.Close()

	dl, _ := NewDownloader(t.TempDir(), nil)
	url := server.URL + "/jacket"

	first, err := dl.Download(context.Background(), url, Image)
	if err != nil {
		t.Fatalf("first download failed: %v", err)
	}
	second, err := dl.Download(context.Background(), url, Image)
	if err != nil {
		t.Fatalf("second download failed: %v", err)
	}

	if first != second {
		t.Errorf("expected same path, got %s and %s", first, second)
	}
	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
	if !strings.HasSuffix(first, ".jpg") {
		t.Errorf("expected default image extension, got %s", first)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dl, _ := NewDownloader(t.TempDir(), nil)
	url := server.URL + "/missing.mp3"
	if _, err := dl.Download(context.Background(), url, Audio); err == nil {
		t.Fatal("expected error for 404")
	}
	if _, err := os.Stat(dl.CachePath(url, Audio)); !os.IsNotExist(err) {
		t.Error("failed download should not leave a cache file")
	}
}

func TestDownloadEmptyURL(t *testing.T) {
	dl, _ := NewDownloader(t.TempDir(), nil)
	path, err := dl.Download(context.Background(), "", Audio)
	if err != nil || path != "" {
		t.Errorf("expected empty result, got %q, %v", path, err)
	}
}

func TestDownloadCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dl, _ := NewDownloader(t.TempDir(), nil)
	if _, err := dl.Download(ctx, server.URL+"/a.mp3", Audio); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		url  string
		kind Kind
		want string
	}{
		{"http://x/a.MP3", Audio, ".mp3"},
		{"http://x/a.flac?v=2", Audio, ".flac"},
		{"http://x/a", Audio, ".mp3"},
		{"http://x/a.png", Image, ".png"},
		{"http://x/a", Image, ".jpg"},
	}
	for _, tt := range tests {
		if got := extension(tt.url, tt.kind); got != tt.want {
			t.Errorf("extension(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
