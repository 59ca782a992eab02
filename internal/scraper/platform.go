package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"crowdpulse/internal/models"
)

// UnsupportedPlatformError is returned for URLs that belong to neither Reddit
// nor X.
type UnsupportedPlatformError struct {
	URL string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform for url %q", e.URL)
}

// DetectPlatform maps a content URL to the platform it belongs to.
// Subdomains count: old.reddit.com and mobile.twitter.com resolve like their
// parents.
func DetectPlatform(rawURL string) (models.Platform, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", &UnsupportedPlatformError{URL: rawURL}
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "reddit.com" || strings.HasSuffix(host, ".reddit.com"):
		return models.PlatformReddit, nil
	case host == "twitter.com" || strings.HasSuffix(host, ".twitter.com"),
		host == "x.com" || strings.HasSuffix(host, ".x.com"):
		return models.PlatformX, nil
	default:
		return "", &UnsupportedPlatformError{URL: rawURL}
	}
}
