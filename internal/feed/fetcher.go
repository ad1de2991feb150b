package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unreadwatch/internal/domain"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultCacheTTL     = 30 * time.Second

	maxFeedBodyBytes = 2 << 20
	userAgent        = "unreadwatch/1.0 (+unread mail monitor)"
)

type Options struct {
	Timeout  time.Duration
	CacheTTL time.Duration
	Username string
	Password string
}

type Fetcher struct {
	client   *http.Client
	parser   *Parser
	cache    *sampleCache
	timeout  time.Duration
	username string
	password string
	now      func() time.Time
	log      *slog.Logger
}

func NewFetcher(opts Options, log *slog.Logger) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	return &Fetcher{
		client:   &http.Client{},
		parser:   NewParser(),
		cache:    newSampleCache(cacheTTL, sampleCacheMaxEntries),
		timeout:  timeout,
		username: strings.TrimSpace(opts.Username),
		password: opts.Password,
		now:      time.Now,
		log:      log,
	}
}

// FeedURL expands a feed URL template for the given account slot.
func FeedURL(template string, slot int) string {
	return strings.ReplaceAll(template, "{slot}", strconv.Itoa(slot))
}

// FetchUnread returns the unread summary of one account. A result younger
// than the cache TTL is served without a request.
func (f *Fetcher) FetchUnread(
	ctx context.Context,
	feedURL string,
) (domain.UnreadSample, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return domain.UnreadSample{}, &TransportError{Err: errors.New("feed URL is empty")}
	}

	if sample, ok := f.cache.get(feedURL, f.now()); ok {
		f.log.DebugContext(ctx, "Feed cache hit",
			"feedURL", feedURL,
			"accountKey", sample.AccountKey,
			"count", sample.Count)

		return sample, nil
	}

	body, err := f.download(ctx, feedURL)
	if err != nil {
		return domain.UnreadSample{}, err
	}

	result, err := f.parser.parse(feedURL, body)
	if err != nil {
		return domain.UnreadSample{}, err
	}

	if result.countMissing {
		f.log.WarnContext(ctx, "Unread count is missing so zero is assumed",
			"feedURL", feedURL,
			"accountKey", result.sample.AccountKey)
	}

	f.cache.set(feedURL, result.sample, f.now())

	return result.sample, nil
}

// InvalidateCache drops every cached sample.
func (f *Fetcher) InvalidateCache() {
	f.cache.clear()
}

func (f *Fetcher) download(ctx context.Context, feedURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &TransportError{URL: feedURL, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/atom+xml, application/xml;q=0.9, */*;q=0.5")

	if f.username != "" {
		req.SetBasicAuth(f.username, f.password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: feedURL, Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"feedURL", feedURL,
				"operation", "download")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &TransportError{
			URL:        feedURL,
			StatusCode: resp.StatusCode,
			Err:        errUnexpectedStatus,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: feedURL, Err: fmt.Errorf("read body: %w", err)}
	}

	return body, nil
}
