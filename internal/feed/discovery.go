package feed

import (
	"context"
	"fmt"
	"log/slog"
	"unreadwatch/internal/domain"
)

type UnreadFetcher interface {
	FetchUnread(ctx context.Context, feedURL string) (domain.UnreadSample, error)
}

// Discoverer probes account slots 0..maxSlots-1 in order. Slots are
// contiguous, so the first unauthenticated or missing slot ends the list.
type Discoverer struct {
	fetcher     UnreadFetcher
	urlTemplate string
	log         *slog.Logger
}

func NewDiscoverer(fetcher UnreadFetcher, urlTemplate string, log *slog.Logger) *Discoverer {
	return &Discoverer{
		fetcher:     fetcher,
		urlTemplate: urlTemplate,
		log:         log,
	}
}

// DiscoverAccounts returns the feed URLs of all answering slots. Any error
// other than a halt stops probing and is returned together with the
// accounts accepted so far.
func (d *Discoverer) DiscoverAccounts(
	ctx context.Context,
	maxSlots int,
) ([]string, error) {
	var accounts []string

	for slot := range max(maxSlots, 1) {
		feedURL := FeedURL(d.urlTemplate, slot)

		sample, err := d.fetcher.FetchUnread(ctx, feedURL)
		if err != nil {
			if IsDiscoveryHalt(err) {
				d.log.DebugContext(ctx, "Discovery halted",
					"slot", slot,
					"feedURL", feedURL,
					"accountsFound", len(accounts))

				return accounts, nil
			}

			return accounts, fmt.Errorf("probe slot %d: %w", slot, err)
		}

		d.log.DebugContext(ctx, "Account slot is found",
			"slot", slot,
			"feedURL", feedURL,
			"accountKey", sample.AccountKey)

		accounts = append(accounts, feedURL)
	}

	return accounts, nil
}
