// Package config loads the on-disk display configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// ItemType selects what a view shows.
type ItemType string

const (
	ItemTrack  ItemType = "track"
	ItemArtist ItemType = "artist"
)

// TimeRange is the statistics window understood by the provider.
type TimeRange string

const (
	RangeShort  TimeRange = "short_term"
	RangeMedium TimeRange = "medium_term"
	RangeLong   TimeRange = "long_term"
)

// Description is the human name used in headings.
func (t TimeRange) Description() string {
	switch t {
	case RangeShort:
		return "4 weeks"
	case RangeLong:
		return "year"
	default:
		return "6 months"
	}
}

// Config is the user's display configuration.
type Config struct {
	OffsetX    int       `yaml:"offset_x"`
	OffsetY    int       `yaml:"offset_y"`
	ImageView  ItemType  `yaml:"image_view"`
	ImageWidth int       `yaml:"image_width"`
	ListView   ItemType  `yaml:"list_view"`
	ListCount  int       `yaml:"list_count"`
	Gap        int       `yaml:"gap"`
	TimeRange  TimeRange `yaml:"time_range"`
}

// Default is the configuration used when no file exists or the file is bad.
func Default() Config {
	return Config{
		ImageView:  ItemTrack,
		ImageWidth: 30,
		ListView:   ItemArtist,
		ListCount:  10,
		Gap:        2,
		TimeRange:  RangeMedium,
	}
}

// DefaultPath returns the per-application config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "spotifyfetch", configFileName), nil
}

// Load reads the config at path. A missing file yields the defaults
// silently; an unreadable, unparseable or invalid file yields the defaults
// with a warning. Fields absent from the file keep their default values.
func Load(path string) Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("failed to read config, using defaults")
		}
		return Default()
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Warn().Err(err).Msg("failed to parse config, using defaults")
		return Default()
	}

	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Msg("invalid config, using defaults")
		return Default()
	}

	return cfg
}

// Validate checks field ranges and enumerations.
func (c Config) Validate() error {
	if c.ImageWidth < 5 || c.ImageWidth > 50 {
		return fmt.Errorf("image_width must be between 5 and 50, got %d", c.ImageWidth)
	}
	if c.ListCount < 1 || c.ListCount > 20 {
		return fmt.Errorf("list_count must be between 1 and 20, got %d", c.ListCount)
	}
	if c.OffsetX < 0 || c.OffsetY < 0 || c.Gap < 0 {
		return fmt.Errorf("offsets and gap must be non-negative")
	}

	switch c.ImageView {
	case ItemTrack, ItemArtist:
	default:
		return fmt.Errorf("image_view must be %q or %q, got %q", ItemTrack, ItemArtist, c.ImageView)
	}
	switch c.ListView {
	case ItemTrack, ItemArtist:
	default:
		return fmt.Errorf("list_view must be %q or %q, got %q", ItemTrack, ItemArtist, c.ListView)
	}
	switch c.TimeRange {
	case RangeShort, RangeMedium, RangeLong:
	default:
		return fmt.Errorf("time_range must be one of %q, %q, %q, got %q",
			RangeShort, RangeMedium, RangeLong, c.TimeRange)
	}

	return nil
}

// ItemCounts returns how many tracks and artists to request: the full list
// for whichever type is listed, and at least one of each so a cover image
// is always available.
func (c Config) ItemCounts() (tracks, artists int) {
	tracks, artists = 1, 1
	if c.ListView == ItemTrack {
		tracks = c.ListCount
	} else {
		artists = c.ListCount
	}
	return tracks, artists
}
