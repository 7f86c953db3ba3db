package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	tea "charm.land/bubbletea/v2"
	"github.com/spotifyfetch/spotifyfetch/artwork"
	"github.com/spotifyfetch/spotifyfetch/auth"
	"github.com/spotifyfetch/spotifyfetch/config"
	"github.com/spotifyfetch/spotifyfetch/spotify"
	"github.com/spotifyfetch/spotifyfetch/tui"
)

// Provider endpoints and client identity. The client ID is public by design
// in a PKCE flow; there is no client secret anywhere in this program.
const (
	defaultClientID = "ebdbdb22841c48648acf563e594d928e"
	authorizeURL    = "https://accounts.spotify.com/authorize"
	tokenURL        = "https://accounts.spotify.com/api/token"
	// redirectURI must match the value registered with the provider exactly,
	// including the port, so the listen address is not configurable.
	redirectURI  = "http://localhost:8888/callback"
	listenAddr   = "127.0.0.1:8888"
	callbackPath = "/callback"
)

var authScopes = []string{"user-top-read"}

var (
	clientID          string
	tokenFile         string
	configFile        string
	flagClientID      *string
	flagTokenFile     *string
	flagConfigFile    *string
	configInitialized bool
	retryClient       *retry.Client
)

func init() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Define flags (but don't parse yet to avoid conflicts with test flags)
	flagClientID = flag.String(
		"client-id",
		"",
		"Spotify application client ID (default: built-in or SPOTIFY_CLIENT_ID env)",
	)
	flagTokenFile = flag.String(
		"token-file",
		"",
		"Token storage file (default: <user config dir>/spotifyfetch/tokens.json or SPOTIFYFETCH_TOKEN_FILE env)",
	)
	flagConfigFile = flag.String(
		"config-file",
		"",
		"Display config file (default: <user config dir>/spotifyfetch/config.yaml or SPOTIFYFETCH_CONFIG_FILE env)",
	)
}

// initConfig parses flags and initializes configuration
// Separated from init() to avoid conflicts with test flag parsing
func initConfig() {
	if configInitialized {
		return
	}
	configInitialized = true

	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if os.Getenv("SPOTIFYFETCH_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Priority: flag > env > default
	clientID = getConfig(*flagClientID, "SPOTIFY_CLIENT_ID", defaultClientID)
	tokenFile = getConfig(*flagTokenFile, "SPOTIFYFETCH_TOKEN_FILE", "")
	configFile = getConfig(*flagConfigFile, "SPOTIFYFETCH_CONFIG_FILE", "")

	if tokenFile == "" {
		path, err := auth.DefaultTokenPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot determine token file location: %v\n", err)
			os.Exit(1)
		}
		tokenFile = path
	}
	if configFile == "" {
		path, err := config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot determine config file location: %v\n", err)
			os.Exit(1)
		}
		configFile = path
	}

	// HTTP client with retry support for the idempotent API and image reads.
	// The token endpoint deliberately does not use this client: authorization
	// codes are single-use, so a blind retry would always fail.
	baseHTTPClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   false,
		},
	}

	var err error
	retryClient, err = retry.NewBackgroundClient(
		retry.WithHTTPClient(baseHTTPClient),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create retry client: %v", err))
	}
}

// getConfig returns value with priority: flag > env > default
func getConfig(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnv(envKey, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// isTTY reports whether stderr is a character device (interactive terminal).
// We check stderr because the TUI renders to stderr, allowing stdout to be piped.
func isTTY() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func main() {
	initConfig()

	if isTTY() {
		// Run TUI program on stderr so stdout pipes are not corrupted
		m := tui.NewModel()
		// WithInput(nil): disable stdin/keyboard input so BubbleTea skips terminal
		// capability queries (?2026/?2027). Ctrl+C is handled by signal.NotifyContext.
		p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			}
		}()

		d := tui.NewProgramDisplayer(p)
		d.Banner()
		runErr := run(d)
		p.Quit() // let BubbleTea drain terminal query responses before exiting
		wg.Wait()
		if runErr != nil {
			os.Exit(1)
		}
	} else {
		d := tui.NewPlainDisplayer(os.Stdout, os.Stderr)
		d.Banner()
		if err := run(d); err != nil {
			os.Exit(1)
		}
	}
}

func run(d tui.Displayer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(configFile)

	mgr := auth.NewManager(auth.Config{
		ClientID:     clientID,
		AuthURL:      authorizeURL,
		TokenURL:     tokenURL,
		RedirectURI:  redirectURI,
		ListenAddr:   listenAddr,
		CallbackPath: callbackPath,
		Scopes:       authScopes,
	}, auth.NewStore(tokenFile))

	token, err := mgr.Token(ctx, d)
	if err != nil {
		d.Fatal(err)
		return err
	}

	client := spotify.NewClient(retryClient, spotify.DefaultBaseURL, token)

	d.FetchingStats()
	trackCount, artistCount := cfg.ItemCounts()
	tracks, err := client.TopTracks(ctx, string(cfg.TimeRange), trackCount)
	if err != nil {
		d.Fatal(err)
		return err
	}
	artists, err := client.TopArtists(ctx, string(cfg.TimeRange), artistCount)
	if err != nil {
		d.Fatal(err)
		return err
	}

	if len(tracks) == 0 && len(artists) == 0 {
		d.NoListeningData(cfg.TimeRange.Description())
		return nil
	}

	header := fmt.Sprintf(
		"Your Spotify stats from the most recent %s:",
		cfg.TimeRange.Description(),
	)
	d.Stats(header, buildStatsView(ctx, cfg, tracks, artists))
	return nil
}

// buildStatsView lays out the cover image beside the top list. A failed
// image download or decode degrades to the text-only layout rather than
// failing the whole run.
func buildStatsView(
	ctx context.Context,
	cfg config.Config,
	tracks []spotify.Track,
	artists []spotify.Artist,
) string {
	lines := listLines(cfg, tracks, artists)

	img, caption, ok := coverSubject(cfg, tracks, artists)
	if ok {
		rendered, err := renderCover(ctx, img.URL, cfg.ImageWidth)
		if err != nil {
			log.Debug().Err(err).Str("url", img.URL).Msg("cover render failed, falling back to text")
		} else {
			return artwork.Compose(rendered, caption, lines, cfg.OffsetX, cfg.OffsetY, cfg.Gap)
		}
	}

	body := strings.Join(lines, "\n")
	if cfg.OffsetX > 0 {
		pad := strings.Repeat(" ", cfg.OffsetX)
		body = pad + strings.ReplaceAll(body, "\n", "\n"+pad)
	}
	if cfg.OffsetY > 0 {
		body = strings.Repeat("\n", cfg.OffsetY) + body
	}
	return body
}

// coverSubject picks the image and caption for the configured image view.
func coverSubject(
	cfg config.Config,
	tracks []spotify.Track,
	artists []spotify.Artist,
) (spotify.Image, string, bool) {
	if cfg.ImageView == config.ItemTrack && len(tracks) > 0 {
		img, ok := spotify.BestImage(tracks[0].Album.Images)
		return img, "🎶 Favorite track: " + tracks[0].DisplayName(), ok
	}
	if cfg.ImageView == config.ItemArtist && len(artists) > 0 {
		img, ok := spotify.BestImage(artists[0].Images)
		return img, "🎤 Favorite artist: " + artists[0].Name, ok
	}
	return spotify.Image{}, "", false
}

// listLines formats the numbered top list for the configured list view.
func listLines(cfg config.Config, tracks []spotify.Track, artists []spotify.Artist) []string {
	var lines []string
	if cfg.ListView == config.ItemTrack {
		lines = append(lines, fmt.Sprintf("🎶 Top %d Tracks:", len(tracks)))
		for i, t := range tracks {
			lines = append(lines, fmt.Sprintf("%2d. %s", i+1, t.DisplayName()))
		}
	} else {
		lines = append(lines, fmt.Sprintf("🎤 Top %d Artists:", len(artists)))
		for i, a := range artists {
			lines = append(lines, fmt.Sprintf("%2d. %s", i+1, a.Name))
		}
	}
	return lines
}

// renderCover downloads (or reuses) the cached cover and renders it as
// half-block cells.
func renderCover(ctx context.Context, url string, widthCols int) (string, error) {
	dir, err := artwork.CacheDir()
	if err != nil {
		return "", err
	}
	path, err := artwork.Fetch(ctx, retryClient, dir, url)
	if err != nil {
		return "", err
	}
	return artwork.Render(path, widthCols)
}
