package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"trumpwatch/internal/market"
)

const defaultPostFeedURL = "https://trumpstruth.org/feed"

// Posts reads the newest post from an RSS/Atom mirror of the account.
// BaseURL is the full feed URL.
type Posts struct {
	client client
	parser *gofeed.Parser
}

// NewPosts constructs a post feed fetcher.
func NewPosts(opts Options, logger zerolog.Logger) *Posts {
	return &Posts{
		client: newClient("post_feed", defaultPostFeedURL, opts, logger),
		parser: gofeed.NewParser(),
	}
}

// FetchLatestPost implements PostFetcher.
func (p *Posts) FetchLatestPost(ctx context.Context) (market.Post, error) {
	payload, err := p.client.get(ctx, "", nil, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return market.Post{}, err
	}

	feed, err := p.parser.Parse(bytes.NewReader(payload))
	if err != nil {
		return market.Post{}, fmt.Errorf("parse feed: %w", err)
	}

	item := newestItem(feed.Items)
	if item == nil {
		return market.Post{}, fmt.Errorf("post feed: %w", market.ErrNoData)
	}

	content := cleanHTML(item.Content)
	if content == "" {
		content = cleanHTML(item.Description)
	}
	if content == "" {
		content = strings.TrimSpace(item.Title)
	}
	if content == "" {
		return market.Post{}, fmt.Errorf("post has no text: %w", market.ErrNoData)
	}

	id := item.GUID
	if id == "" {
		id = item.Link
	}

	post := market.Post{
		ID:      id,
		Content: content,
		URL:     item.Link,
	}
	if ts := itemTime(item); ts != nil {
		post.PublishedAt = ts.UTC()
	}
	return post, nil
}

func newestItem(items []*gofeed.Item) *gofeed.Item {
	var newest *gofeed.Item
	var newestAt time.Time
	for _, item := range items {
		if item == nil {
			continue
		}
		ts := itemTime(item)
		if newest == nil {
			newest = item
			if ts != nil {
				newestAt = *ts
			}
			continue
		}
		if ts != nil && ts.After(newestAt) {
			newest, newestAt = item, *ts
		}
	}
	return newest
}

func itemTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

// cleanHTML strips markup and collapses whitespace.
func cleanHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p").AppendHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}

var _ PostFetcher = (*Posts)(nil)
