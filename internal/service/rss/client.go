package rss

import (
	"context"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"

	"github.com/mmcdole/gofeed"
)

// Client implements a NewsSource over RSS/Atom feeds.
type Client struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// New creates a feed client.
func New(timeout time.Duration) *Client {
	p := gofeed.NewParser()
	p.UserAgent = "macropulse/1.0"
	return &Client{parser: p, timeout: timeout}
}

var _ drepo.NewsSource = (*Client)(nil)

// Fetch downloads and parses one feed. Entries without a parseable publish
// time are skipped; a transport or parse failure fails the whole feed.
func (c *Client) Fetch(ctx context.Context, name, url string) ([]*models.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", name, err)
	}

	items := make([]*models.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		ts := it.PublishedParsed
		if ts == nil {
			ts = it.UpdatedParsed
		}
		if ts == nil {
			continue
		}
		items = append(items, &models.NewsItem{
			Title:     it.Title,
			Link:      it.Link,
			Published: ts.UTC(),
			Source:    name,
		})
	}

	return items, nil
}
