package feed_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unreadwatch/internal/feed"
)

const inboxFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed version="0.3" xmlns="http://purl.org/atom/ns#">
<title>Gmail - Inbox for %s</title>
<fullcount>%d</fullcount>
<modified>2025-01-01T10:00:00Z</modified>
</feed>`

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newInboxServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}

func TestFetchUnreadReturnsSample(t *testing.T) {
	srv := newInboxServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, inboxFeed, "me@example.com", 4)
	})

	fetcher := feed.NewFetcher(feed.Options{}, discardLogger())

	sample, err := fetcher.FetchUnread(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sample.Count != 4 || sample.AccountKey != "me@example.com" || sample.FeedURL != srv.URL {
		t.Fatalf("unexpected sample: %+v", sample)
	}
}

func TestFetchUnreadServesCacheWithinTTL(t *testing.T) {
	var requests atomic.Int32

	srv := newInboxServer(t, func(w http.ResponseWriter, _ *http.Request) {
		n := requests.Add(1)
		fmt.Fprintf(w, inboxFeed, "me@example.com", n)
	})

	fetcher := feed.NewFetcher(feed.Options{CacheTTL: time.Minute}, discardLogger())
	ctx := context.Background()

	first, err := fetcher.FetchUnread(ctx, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := fetcher.FetchUnread(ctx, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := requests.Load(); got != 1 {
		t.Fatalf("expected one request, got %d", got)
	}

	if first.Count != second.Count {
		t.Fatalf("expected cached count %d, got %d", first.Count, second.Count)
	}

	fetcher.InvalidateCache()

	third, err := fetcher.FetchUnread(ctx, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if third.Count != 2 {
		t.Fatalf("expected a fresh request after invalidation, got count %d", third.Count)
	}
}

func TestFetchUnreadConcurrentAccounts(t *testing.T) {
	srv := newInboxServer(t, func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/u"))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		fmt.Fprintf(w, inboxFeed, fmt.Sprintf("user%d@example.com", n), n)
	})

	fetcher := feed.NewFetcher(feed.Options{}, discardLogger())
	ctx := context.Background()

	const accounts = 8

	errs := make([]error, accounts)
	counts := make([]int, accounts)
	keys := make([]string, accounts)

	var wg sync.WaitGroup
	for i := range accounts {
		wg.Go(func() {
			sample, err := fetcher.FetchUnread(ctx, fmt.Sprintf("%s/u%d", srv.URL, i))
			errs[i], counts[i], keys[i] = err, sample.Count, sample.AccountKey
		})
	}
	wg.Wait()

	for i := range accounts {
		if errs[i] != nil {
			t.Fatalf("account %d: unexpected error: %v", i, errs[i])
		}

		if counts[i] != i || keys[i] != fmt.Sprintf("user%d@example.com", i) {
			t.Fatalf("account %d: unexpected sample key=%s count=%d", i, keys[i], counts[i])
		}
	}
}

func TestFetchUnreadTimeoutIsTransportError(t *testing.T) {
	srv := newInboxServer(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	fetcher := feed.NewFetcher(feed.Options{Timeout: 50 * time.Millisecond}, discardLogger())

	start := time.Now()
	_, err := fetcher.FetchUnread(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected timeout error")
	}

	if !feed.IsTransportError(err) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain, got %v", err)
	}

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout was not enforced, took %s", elapsed)
	}
}

func TestFetchUnreadNonSuccessStatus(t *testing.T) {
	srv := newInboxServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	fetcher := feed.NewFetcher(feed.Options{}, discardLogger())

	_, err := fetcher.FetchUnread(context.Background(), srv.URL)

	var transportErr *feed.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}

	if transportErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", transportErr.StatusCode)
	}

	if feed.IsDiscoveryHalt(err) {
		t.Fatalf("server errors must not halt discovery")
	}
}

func TestFetchUnreadGarbageIsParseError(t *testing.T) {
	srv := newInboxServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>Sign in</body></html>"))
	})

	fetcher := feed.NewFetcher(feed.Options{}, discardLogger())

	_, err := fetcher.FetchUnread(context.Background(), srv.URL)
	if !feed.IsParseError(err) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestFetchUnreadSendsBasicAuth(t *testing.T) {
	srv := newInboxServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "me@example.com" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, inboxFeed, "me@example.com", 1)
	})

	fetcher := feed.NewFetcher(feed.Options{Username: "me@example.com", Password: "secret"}, discardLogger())

	if _, err := fetcher.FetchUnread(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFeedURLExpandsSlot(t *testing.T) {
	got := feed.FeedURL("https://mail.example.com/mail/u/{slot}/feed/atom", 3)
	want := "https://mail.example.com/mail/u/3/feed/atom"
	if got != want {
		t.Fatalf("unexpected URL: got %q want %q", got, want)
	}
}

func slotHandler(statusBySlot map[string]int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/mail/u/"), "/feed/atom")

		status, ok := statusBySlot[slot]
		if !ok {
			status = http.StatusNotFound
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		fmt.Fprintf(w, inboxFeed, "user"+slot+"@example.com", 1)
	}
}

func TestDiscoverAccountsHaltsAtFirstMissingSlot(t *testing.T) {
	srv := newInboxServer(t, slotHandler(map[string]int{
		"0": http.StatusOK,
		"1": http.StatusOK,
		"2": http.StatusNotFound,
		"3": http.StatusOK,
	}))

	fetcher := feed.NewFetcher(feed.Options{}, discardLogger())
	discoverer := feed.NewDiscoverer(fetcher, srv.URL+"/mail/u/{slot}/feed/atom", discardLogger())

	accounts, err := discoverer.DiscoverAccounts(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("expected exactly 2 accounts, got %v", accounts)
	}

	if accounts[0] != srv.URL+"/mail/u/0/feed/atom" || accounts[1] != srv.URL+"/mail/u/1/feed/atom" {
		t.Fatalf("unexpected accounts order: %v", accounts)
	}
}

func TestDiscoverAccountsHaltsOnUnauthorized(t *testing.T) {
	srv := newInboxServer(t, slotHandler(map[string]int{
		"0": http.StatusOK,
		"1": http.StatusUnauthorized,
	}))

	fetcher := feed.NewFetcher(feed.Options{}, discardLogger())
	discoverer := feed.NewDiscoverer(fetcher, srv.URL+"/mail/u/{slot}/feed/atom", discardLogger())

	accounts, err := discoverer.DiscoverAccounts(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %v", accounts)
	}
}

func TestDiscoverAccountsAbortsOnOtherErrorsWithPartialResult(t *testing.T) {
	srv := newInboxServer(t, slotHandler(map[string]int{
		"0": http.StatusOK,
		"1": http.StatusBadGateway,
		"2": http.StatusOK,
	}))

	fetcher := feed.NewFetcher(feed.Options{}, discardLogger())
	discoverer := feed.NewDiscoverer(fetcher, srv.URL+"/mail/u/{slot}/feed/atom", discardLogger())

	accounts, err := discoverer.DiscoverAccounts(context.Background(), 5)
	if err == nil {
		t.Fatalf("expected error")
	}

	if len(accounts) != 1 {
		t.Fatalf("expected the accounts found before the failure, got %v", accounts)
	}
}

func TestDiscoverAccountsRespectsMaxSlots(t *testing.T) {
	srv := newInboxServer(t, slotHandler(map[string]int{
		"0": http.StatusOK,
		"1": http.StatusOK,
		"2": http.StatusOK,
	}))

	fetcher := feed.NewFetcher(feed.Options{}, discardLogger())
	discoverer := feed.NewDiscoverer(fetcher, srv.URL+"/mail/u/{slot}/feed/atom", discardLogger())

	accounts, err := discoverer.DiscoverAccounts(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %v", accounts)
	}
}
