// ABOUTME: Media downloader for track audio and jacket images
// ABOUTME: Fetches remote files into a sha256-keyed cache directory
package media

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Kind selects the default extension for URLs without one
type Kind int

const (
	Audio Kind = iota
	Image
)

func (k Kind) defaultExt() string {
	if k == Image {
		return ".jpg"
	}
	return ".mp3"
}

func (k Kind) String() string {
	if k == Image {
		return "image"
	}
	return "audio"
}

// Downloader manages cached downloads
type Downloader struct {
	cacheDir string
	client   *http.Client

	mu      sync.Mutex
	current map[Kind]string
}

// DefaultCacheDir is used when no directory is configured
func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), "lyricium-media")
}

// NewDownloader creates a downloader rooted at cacheDir. An empty cacheDir
// uses DefaultCacheDir.
func NewDownloader(cacheDir string, client *http.Client) (*Downloader, error) {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if client == nil {
		client = &http.Client{}
	}

	return &Downloader{
		cacheDir: cacheDir,
		client:   client,
		current:  make(map[Kind]string),
	}, nil
}

// CacheDir returns the cache directory
func (d *Downloader) CacheDir() string {
	return d.cacheDir
}

// CachePath returns where url would be stored
func (d *Downloader) CachePath(url string, kind Kind) string {
	hash := sha256.Sum256([]byte(url))
	return filepath.Join(d.cacheDir, fmt.Sprintf("%x%s", hash[:8], extension(url, kind)))
}

// Download fetches url into the cache and returns the local path. An empty
// url returns an empty path.
func (d *Downloader) Download(ctx context.Context, url string, kind Kind) (string, error) {
	if url == "" {
		return "", nil
	}

	cachePath := d.CachePath(url, kind)
	if _, err := os.Stat(cachePath); err == nil {
		log.Printf("Media cache hit (%s): %s", kind, cachePath)
		d.setCurrent(kind, cachePath)
		return cachePath, nil
	}

	log.Printf("Downloading %s: %s", kind, url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build %s request: %w", kind, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s download failed: HTTP %d", kind, resp.StatusCode)
	}

	// Partial downloads never land at the cache path
	tmp, err := os.CreateTemp(d.cacheDir, "partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save %s: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save %s: %w", kind, err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store %s: %w", kind, err)
	}

	log.Printf("Saved %s: %s", kind, cachePath)
	d.setCurrent(kind, cachePath)
	return cachePath, nil
}

// CurrentPath returns the last path downloaded for kind
func (d *Downloader) CurrentPath(kind Kind) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current[kind]
}

func (d *Downloader) setCurrent(kind Kind, path string) {
	d.mu.Lock()
	d.current[kind] = path
	d.mu.Unlock()
}

// extension extracts the file extension from url
func extension(url string, kind Kind) string {
	url = strings.Split(url, "?")[0]
	ext := filepath.Ext(url)
	if ext == "" || strings.Contains(ext, "/") {
		return kind.defaultExt()
	}
	return strings.ToLower(ext)
}

// Cleanup removes the cache directory
func (d *Downloader) Cleanup() error {
	return os.RemoveAll(d.cacheDir)
}
