package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed default_feeds.toml
var bundledFeeds []byte

// SeedFeed is one candidate of the default feed list.
type SeedFeed struct {
	Title string `toml:"title"`
	Link  string `toml:"link"`
}

type seedFile struct {
	Feeds []SeedFeed `toml:"feed"`
}

// DefaultFeeds parses the bundled default feed list.
func DefaultFeeds() ([]SeedFeed, error) {
	return parseSeeds(bundledFeeds)
}

// LoadFeeds reads a feed list from path, or the bundled list when path is empty.
func LoadFeeds(path string) ([]SeedFeed, error) {
	if path == "" {
		return DefaultFeeds()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading feed list: %w", err)
	}
	return parseSeeds(data)
}

func parseSeeds(data []byte) ([]SeedFeed, error) {
	var f seedFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing feed list: %w", err)
	}
	for i, s := range f.Feeds {
		if s.Link == "" {
			return nil, fmt.Errorf("feed list entry %d has no link", i)
		}
	}
	return f.Feeds, nil
}
