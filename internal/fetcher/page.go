package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Retailer pages rarely exceed a few MB of markup; cap reads so a
// misbehaving endpoint cannot exhaust memory.
const maxBodyBytes = 4 << 20

// PageOptions parameterise the HTTP page fetcher.
type PageOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// Page fetches retailer product pages over HTTP.
type Page struct {
	opts   PageOptions
	client *http.Client
	logger zerolog.Logger
}

// NewPage constructs a page fetcher.
func NewPage(opts PageOptions, logger zerolog.Logger) *Page {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Page{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "page_fetcher").Logger(),
	}
}

// Fetch retrieves the page body. Non-2xx statuses are errors; callers treat
// any error as "no signal" for the target.
func (p *Page) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create page request: %w", err)
	}

	if ua := strings.TrimSpace(p.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}
	return body, nil
}

var _ Fetcher = (*Page)(nil)
