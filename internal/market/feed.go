package market

import "time"

// Quote is one attributed quotation.
type Quote struct {
	Text       string    `json:"text"`
	AppearedAt time.Time `json:"appeared_at"`
	SourceURL  string    `json:"source_url,omitempty"`
}

// QuoteFeed is the rotating set of quotes shown by the carousel views.
type QuoteFeed struct {
	Quotes []Quote `json:"quotes"`
	Status Status  `json:"status"`
	Reason string  `json:"reason,omitempty"`
}

// Fallback reports whether any quote in the feed was substituted.
func (f QuoteFeed) Fallback() bool { return f.Status == StatusFallback }

// Post is the newest social-media post, reduced to plain text.
type Post struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// PostFeed wraps the latest post with its fetch outcome.
type PostFeed struct {
	Post   Post   `json:"post"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Fallback reports a substituted post.
func (f PostFeed) Fallback() bool { return f.Status == StatusFallback }
