package feed

import (
	"errors"
	"fmt"
	"testing"
)

const gmailInboxFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed version="0.3" xmlns="http://purl.org/atom/ns#">
<title>Gmail - Inbox for Jane.Doe@example.com</title>
<tagline>New messages in your Gmail Inbox</tagline>
<fullcount>%s</fullcount>
<link rel="alternate" href="https://mail.google.com/mail" type="text/html" />
<modified>2025-01-01T10:00:00Z</modified>
<entry>
<title>Quarterly report</title>
<summary>Please find attached</summary>
<link rel="alternate" href="https://mail.google.com/mail?account_id=jane.doe@example.com" type="text/html" />
<modified>2025-01-01T09:00:00Z</modified>
<issued>2025-01-01T09:00:00Z</issued>
<id>tag:gmail.google.com,2004:1</id>
<author>
<name>Bob</name>
<email>bob@example.com</email>
</author>
</entry>
<entry>
<title>Lunch?</title>
<summary>Are you free</summary>
<modified>2025-01-01T08:00:00Z</modified>
<issued>2025-01-01T08:00:00Z</issued>
<id>tag:gmail.google.com,2004:2</id>
<author>
<name>Alice</name>
<email>alice@example.com</email>
</author>
</entry>
</feed>`

func gmailFeedWithCount(count string) []byte {
	return []byte(fmt.Sprintf(gmailInboxFeed, count))
}

func TestParserExtractsCountAndAccountKey(t *testing.T) {
	result, err := NewParser().parse("https://mail.example.com/u/0/feed", gmailFeedWithCount("7"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.sample.Count != 7 {
		t.Fatalf("unexpected count: %d", result.sample.Count)
	}

	if result.sample.AccountKey != "jane.doe@example.com" {
		t.Fatalf("unexpected account key: %q", result.sample.AccountKey)
	}

	if result.countMissing {
		t.Fatalf("expected count to be present")
	}

	if len(result.sample.Latest) != 2 || result.sample.Latest[0].Subject != "Quarterly report" {
		t.Fatalf("unexpected latest messages: %+v", result.sample.Latest)
	}

	if result.sample.Latest[0].Author != "Bob" {
		t.Fatalf("unexpected author: %q", result.sample.Latest[0].Author)
	}
}

func TestParserTreatsMalformedCountAsZero(t *testing.T) {
	for _, raw := range []string{"", "many", "-4"} {
		result, err := NewParser().parse("https://mail.example.com/u/0/feed", gmailFeedWithCount(raw))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}

		if result.sample.Count != 0 || !result.countMissing {
			t.Fatalf("expected zero count for %q, got %+v", raw, result)
		}
	}
}

func TestParserMissingCountElementIsZero(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Inbox</title>
<id>urn:inbox</id>
<updated>2025-01-01T10:00:00Z</updated>
</feed>`)

	result, err := NewParser().parse("https://mail.example.com/u/1/feed", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.sample.Count != 0 {
		t.Fatalf("unexpected count: %d", result.sample.Count)
	}

	if result.sample.AccountKey != "https://mail.example.com/u/1/feed" {
		t.Fatalf("expected feed URL as fallback key, got %q", result.sample.AccountKey)
	}
}

func TestParserRejectsUnrecognizedDocument(t *testing.T) {
	for _, body := range []string{"", "   ", "this is not a feed", "<html><body>Sign in</body></html>"} {
		_, err := NewParser().parse("https://mail.example.com/u/0/feed", []byte(body))
		if err == nil {
			t.Fatalf("expected error for %q", body)
		}

		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError for %q, got %T", body, err)
		}
	}
}
