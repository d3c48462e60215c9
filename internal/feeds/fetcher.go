package feeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	// DefaultTimeout bounds a single feed validation.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent identifies the client as a desktop browser; some
	// hosts refuse requests from unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/78.0.3904.108 Safari/537.36"
)

// ErrFeedUnavailable is returned when a URL cannot be fetched or parsed as a feed.
var ErrFeedUnavailable = errors.New("feed unavailable")

// Validated is the canonical title and link of a successfully parsed feed.
type Validated struct {
	Title string
	Link  string
}

// Source validates a feed URL.
type Source interface {
	Fetch(ctx context.Context, url string) (Validated, error)
}

type Fetcher struct {
	parser    *gofeed.Parser
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// NewFetcher creates a feed fetcher. Zero values select the defaults.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &Fetcher{
		parser:    parser,
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Fetch downloads and parses url, returning its trimmed title and link.
// Every failure wraps ErrFeedUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Validated, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Validated{}, fmt.Errorf("%w: create request for %s: %v", ErrFeedUnavailable, url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Validated{}, fmt.Errorf("%w: fetch %s: %v", ErrFeedUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Validated{}, fmt.Errorf("%w: %s returned status %d", ErrFeedUnavailable, url, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return Validated{}, fmt.Errorf("%w: parse %s: %v", ErrFeedUnavailable, url, err)
	}

	return normalize(url, parsed)
}

func normalize(url string, feed *gofeed.Feed) (Validated, error) {
	v := Validated{
		Title: strings.TrimSpace(feed.Title),
		Link:  strings.TrimSpace(feed.Link),
	}
	if v.Link == "" {
		v.Link = strings.TrimSpace(feed.FeedLink)
	}
	if v.Title == "" || v.Link == "" {
		return Validated{}, fmt.Errorf("%w: %s has no title or link", ErrFeedUnavailable, url)
	}
	return v, nil
}
