package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"crowdpulse/internal/clients"
	"crowdpulse/internal/models"
)

// Comments at or below this length carry no classifiable signal and are
// dropped at ingestion.
const MIN_COMMENT_LEN = 10

// Source supplies ordered text items for one content URL.
type Source interface {
	Platform() models.Platform
	Fetch(ctx context.Context, rawURL string) ([]models.TextItem, error)
}

// RedditSource resolves a thread URL to its flattened comment tree through
// the Reddit API.
type RedditSource struct {
	client *clients.RedditClient
}

func NewRedditSource() *RedditSource {
	return &RedditSource{client: clients.GetRedditClient()}
}

func (s *RedditSource) Platform() models.Platform { return models.PlatformReddit }

// Fetch pulls the thread's comment listing and flattens it depth-first, so
// replies stay adjacent to their parents in the evidence log.
func (s *RedditSource) Fetch(ctx context.Context, rawURL string) ([]models.TextItem, error) {
	permalink, err := threadPermalink(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := s.client.FetchThreadComments(ctx, permalink)
	if err != nil {
		return nil, fmt.Errorf("[RedditSource] comment fetch failed: %w", err)
	}

	items, err := ParseThreadComments(data)
	if err != nil {
		return nil, err
	}

	slog.Info("[RedditSource] Thread comments collected",
		slog.String("permalink", permalink),
		slog.Int("count", len(items)))
	return items, nil
}

// TrendingThreads expands a subreddit into the permalinks of its top n hot
// threads, used by the daily reporter for source discovery.
func (s *RedditSource) TrendingThreads(ctx context.Context, subreddit string, n int) ([]string, error) {
	data, err := s.client.FetchSubredditListing(ctx, subreddit, "hot", n)
	if err != nil {
		return nil, fmt.Errorf("[RedditSource] listing fetch failed: %w", err)
	}

	var listing models.RedditListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("[RedditSource] failed to decode listing: %w", err)
	}

	var permalinks []string
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" || child.Data.Permalink == "" {
			continue
		}
		permalinks = append(permalinks, "https://www.reddit.com"+child.Data.Permalink)
		if len(permalinks) == n {
			break
		}
	}
	return permalinks, nil
}

// ParseThreadComments decodes the two-element array the comments endpoint
// returns (post listing, comment listing) and flattens the comment tree.
func ParseThreadComments(data []byte) ([]models.TextItem, error) {
	var listings []models.RedditListing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("[RedditSource] failed to decode thread response: %w", err)
	}
	if len(listings) < 2 {
		return nil, fmt.Errorf("[RedditSource] thread response has %d listings, want 2", len(listings))
	}

	var items []models.TextItem
	for _, child := range listings[1].Data.Children {
		items = appendCommentTree(items, child)
	}
	return items, nil
}

func appendCommentTree(items []models.TextItem, thing models.RedditThing) []models.TextItem {
	if thing.Kind != "t1" {
		// A "more" stub closes the visible tree; deeper pagination is not
		// worth a second round of API calls per thread.
		return items
	}

	data := thing.Data
	if len(data.Body) > MIN_COMMENT_LEN && data.Body != "[deleted]" && data.Body != "[removed]" {
		items = append(items, models.TextItem{
			Source: models.SourceRef{
				URL:      "https://www.reddit.com" + data.Permalink,
				Platform: models.PlatformReddit,
				ItemID:   data.ID,
			},
			Author:      data.Author,
			Body:        data.Body,
			CollectedAt: time.Unix(int64(data.CreatedUTC), 0).UTC(),
		})
	}

	if replies, ok := data.ReplyListing(); ok {
		for _, child := range replies.Data.Children {
			items = appendCommentTree(items, child)
		}
	}
	return items
}

// threadPermalink reduces a full thread URL to the API path the comments
// endpoint expects.
func threadPermalink(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return "", fmt.Errorf("[RedditSource] unusable thread url %q", rawURL)
	}
	platform, err := DetectPlatform(rawURL)
	if err != nil {
		return "", err
	}
	if platform != models.PlatformReddit {
		return "", &UnsupportedPlatformError{URL: rawURL}
	}
	return parsed.EscapedPath(), nil
}
