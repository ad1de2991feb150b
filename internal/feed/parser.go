package feed

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unreadwatch/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const (
	countSelector     = "fullcount"
	latestMessagesMax = 3
)

var accountAddressRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Parser is safe for concurrent use. A gofeed.Parser is not, so one is
// built per document.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

type parseResult struct {
	sample domain.UnreadSample
	// countMissing is set when the count element was absent or malformed and
	// zero was assumed.
	countMissing bool
}

func (p *Parser) parse(feedURL string, body []byte) (parseResult, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return parseResult{}, &ParseError{URL: feedURL, Err: errors.New("empty document")}
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return parseResult{}, &ParseError{URL: feedURL, Err: fmt.Errorf("parse feed: %w", err)}
	}

	count, ok := extractCount(body)

	return parseResult{
		sample: domain.UnreadSample{
			AccountKey: accountKey(parsed, feedURL),
			FeedURL:    feedURL,
			Count:      count,
			Latest:     latestMessages(parsed),
		},
		countMissing: !ok,
	}, nil
}

func extractCount(body []byte) (int, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, false
	}

	sel := doc.Find(countSelector).First()
	if sel.Length() == 0 {
		return 0, false
	}

	count, err := strconv.Atoi(strings.TrimSpace(sel.Text()))
	if err != nil || count < 0 {
		return 0, false
	}

	return count, true
}

func accountKey(parsed *gofeed.Feed, feedURL string) string {
	if parsed != nil {
		for _, candidate := range []string{parsed.Title, parsed.Description} {
			if address := accountAddressRe.FindString(candidate); address != "" {
				return strings.ToLower(address)
			}
		}

		for _, author := range parsed.Authors {
			if author == nil {
				continue
			}

			if address := accountAddressRe.FindString(author.Email); address != "" {
				return strings.ToLower(address)
			}
		}
	}

	return feedURL
}

func latestMessages(parsed *gofeed.Feed) []domain.Message {
	if parsed == nil {
		return nil
	}

	var messages []domain.Message

	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		subject := strings.TrimSpace(item.Title)
		if subject == "" {
			continue
		}

		var author string
		if item.Author != nil {
			author = strings.TrimSpace(item.Author.Name)
			if author == "" {
				author = strings.TrimSpace(item.Author.Email)
			}
		}

		messages = append(messages, domain.Message{Subject: subject, Author: author})
		if len(messages) == latestMessagesMax {
			break
		}
	}

	return messages
}
