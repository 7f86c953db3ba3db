// Package artwork downloads cover images into a content-addressed cache and
// renders them as terminal cells.
package artwork

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/rs/zerolog/log"
)

const downloadTimeout = 20 * time.Second

// CacheDir returns the per-application image cache directory, creating it
// on demand.
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	dir := filepath.Join(base, "spotifyfetch", "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return dir, nil
}

// cacheName is the content address for a URL.
func cacheName(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:]) + ".jpg"
}

// Fetch returns a local path holding the image at url, downloading it into
// dir unless a cached copy already exists.
func Fetch(ctx context.Context, client *retry.Client, dir, url string) (string, error) {
	path := filepath.Join(dir, cacheName(url))
	if _, err := os.Stat(path); err == nil {
		log.Debug().Str("path", path).Msg("image cache hit")
		return path, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.DoWithContext(reqCtx, req)
	if err != nil {
		return "", fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	return path, nil
}
