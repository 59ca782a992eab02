package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"crowdpulse/internal/models"
)

// FileSource reads pre-scraped text items from a JSON file. This is the
// hand-off boundary for external scraping tools: X content and offline
// re-analysis arrive this way, since browser automation lives outside this
// system.
type FileSource struct {
	platform models.Platform
	path     string
}

func NewFileSource(platform models.Platform, path string) *FileSource {
	return &FileSource{platform: platform, path: path}
}

func (s *FileSource) Platform() models.Platform { return s.platform }

// Fetch loads the items file and keeps the entries tagged for this source's
// platform whose bodies pass the length filter. The url argument overrides
// empty per-item source URLs.
func (s *FileSource) Fetch(_ context.Context, rawURL string) ([]models.TextItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("[FileSource] failed to read items file: %w", err)
	}

	var all []models.TextItem
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("[FileSource] failed to decode items file %s: %w", s.path, err)
	}

	var items []models.TextItem
	for _, item := range all {
		if item.Source.Platform != s.platform {
			continue
		}
		if len(item.Body) <= MIN_COMMENT_LEN {
			continue
		}
		if item.Source.URL == "" {
			item.Source.URL = rawURL
		}
		if item.Source.ItemID == "" {
			item.Source.ItemID = ContentID(item.Source.Platform, item.Author, item.Body)
		}
		items = append(items, item)
	}

	slog.Info("[FileSource] Items loaded",
		slog.String("path", s.path),
		slog.String("platform", string(s.platform)),
		slog.Int("count", len(items)))
	return items, nil
}
