// Package spotify is a minimal Web API client for the listening-statistics
// endpoints used by the CLI.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the production Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

const requestTimeout = 15 * time.Second

// Image is one rendition of an artwork asset.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SimpleArtist is the reduced artist object embedded in tracks.
type SimpleArtist struct {
	Name string `json:"name"`
}

// Album carries the track's cover art.
type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is one entry of the user's top tracks.
type Track struct {
	Name       string         `json:"name"`
	Artists    []SimpleArtist `json:"artists"`
	Album      Album          `json:"album"`
	Popularity int            `json:"popularity"`
}

// Artist is one entry of the user's top artists.
type Artist struct {
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Images     []Image  `json:"images"`
}

// DisplayName is "track - artist, artist".
func (t Track) DisplayName() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return fmt.Sprintf("%s - %s", t.Name, strings.Join(names, ", "))
}

// BestImage returns the rendition with the largest pixel area.
func BestImage(images []Image) (Image, bool) {
	best := -1
	var out Image
	for _, img := range images {
		if area := img.Width * img.Height; area > best {
			best = area
			out = img
		}
	}
	return out, best >= 0
}

// Client calls the statistics endpoints with a bearer token. These reads are
// idempotent, so unlike the token endpoint they go through the retrying
// HTTP client.
type Client struct {
	http    *retry.Client
	baseURL string
	token   string
}

// NewClient creates a Client. baseURL is normally DefaultBaseURL; tests
// point it at a mock server.
func NewClient(httpClient *retry.Client, baseURL, token string) *Client {
	return &Client{http: httpClient, baseURL: baseURL, token: token}
}

// TopTracks fetches the user's top tracks for a time range.
func (c *Client) TopTracks(ctx context.Context, timeRange string, limit int) ([]Track, error) {
	var out struct {
		Items []Track `json:"items"`
	}
	path := fmt.Sprintf("/me/top/tracks?time_range=%s&limit=%d", timeRange, limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// TopArtists fetches the user's top artists for a time range.
func (c *Client) TopArtists(ctx context.Context, timeRange string, limit int) ([]Artist, error) {
	var out struct {
		Items []Artist `json:"items"`
	}
	path := fmt.Sprintf("/me/top/artists?time_range=%s&limit=%d", timeRange, limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) get(ctx context.Context, path string, v interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	log.Debug().Str("path", path).Msg("spotify request ok")
	return nil
}
