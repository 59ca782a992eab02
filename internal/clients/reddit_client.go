package clients

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
)

var (
	redditClientInstance *RedditClient
	redditClientOnce     sync.Once
	redditRateLimitMutex sync.Mutex
)

type RedditClient struct {
	Config *clientcredentials.Config
	Client *http.Client
	mu     *sync.Mutex
}

func GetRedditClient() *RedditClient {
	redditClientOnce.Do(func() {
		oauthConf := &clientcredentials.Config{
			ClientID:     os.Getenv("REDDIT_CLIENT_ID"),
			ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
			TokenURL:     REDDIT_AUTH_URL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}

		redditClientInstance = &RedditClient{
			Config: oauthConf,
			Client: oauthConf.Client(context.Background()),
			mu:     &sync.Mutex{},
		}
	})

	return redditClientInstance
}

func (rc *RedditClient) RefreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.Client = rc.Config.Client(context.Background())
}

// FetchThreadComments fetches the comment listing for one thread permalink
// (e.g. /r/golang/comments/abc123/title/). The response is the raw
// two-element listing array the comments endpoint returns.
func (rc *RedditClient) FetchThreadComments(ctx context.Context, permalink string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s.json", REDDIT_API_URL, permalink)
	parsedUrl, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}
	queryParams := parsedUrl.Query()
	queryParams.Add("sort", "top")
	queryParams.Add("limit", "500")
	parsedUrl.RawQuery = queryParams.Encode()

	return rc.get(ctx, parsedUrl.String())
}

// FetchSubredditListing fetches one page of a subreddit listing (hot/top/new)
// used for trending thread discovery.
func (rc *RedditClient) FetchSubredditListing(ctx context.Context, subreddit, sort string, limit int) ([]byte, error) {
	parsedUrl, err := url.Parse(fmt.Sprintf("%s/r/%s/%s", REDDIT_API_URL, subreddit, sort))
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}
	queryParams := parsedUrl.Query()
	queryParams.Add("limit", strconv.Itoa(limit))
	parsedUrl.RawQuery = queryParams.Encode()

	return rc.get(ctx, parsedUrl.String())
}

func (rc *RedditClient) get(ctx context.Context, requestURL string) ([]byte, error) {
	return rc.getWithRefresh(ctx, requestURL, true)
}

func (rc *RedditClient) getWithRefresh(ctx context.Context, requestURL string, allowRefresh bool) ([]byte, error) {
	// Reddit allows a narrow request budget; pace every call.
	redditRateLimitMutex.Lock()
	time.Sleep(INITIAL_BACKOFF)
	redditRateLimitMutex.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := rc.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// One refresh per request: a credential that stays invalid after a
		// fresh token is a hard failure, not a retry loop.
		if !allowRefresh {
			return nil, fmt.Errorf("[RedditClient] Still unauthorized after token refresh for %s", requestURL)
		}
		slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
		rc.RefreshClient()
		return rc.getWithRefresh(ctx, requestURL, false)
	case http.StatusTooManyRequests:
		slog.Warn("[RedditClient] 429 Too Many Requests - Retrying with backoff")
		return rc.retryWithBackoff(ctx, requestURL)
	case http.StatusOK:
		bytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return bytes, nil
	}
	return nil, fmt.Errorf("[RedditClient] Unexpected status %d for %s", resp.StatusCode, requestURL)
}

func (rc *RedditClient) retryWithBackoff(ctx context.Context, requestURL string) ([]byte, error) {
	backoff := INITIAL_BACKOFF
	for i := 1; i < MAX_RETRIES; i++ {
		slog.Warn("[RedditClient] Retrying request",
			slog.Int("attempt", i), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}

		data, err := rc.get(ctx, requestURL)
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("[RedditClient] Max retries reached request failed")
}
