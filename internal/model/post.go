package model

import "time"

// Post represents a single social post collected for a tracked account.
// Records are read-only inputs; ingestion happens outside this service.
type Post struct {
	ID             string    `json:"id"`
	Author         string    `json:"author"`
	Username       string    `json:"username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	LikeCount      int       `json:"like_count"`
	RetweetCount   int       `json:"retweet_count"`
	IsReply        bool      `json:"is_reply"`
	IsRetweet      bool      `json:"is_retweet"`
	IsQuoted       bool      `json:"is_quoted"`
	OriginalAuthor string    `json:"original_author,omitempty"`
	OriginalText   string    `json:"original_text,omitempty"`
	OriginalID     string    `json:"original_id,omitempty"`
	URL            string    `json:"url,omitempty"`
}

// Engagement is the combined like+retweet count used for ranking.
func (p Post) Engagement() int {
	return p.LikeCount + p.RetweetCount
}

// PostType classifies posts for the type filter of the window loader.
type PostType string

const (
	PostTypeTweet   PostType = "tweet"
	PostTypeRetweet PostType = "retweet"
	PostTypeReply   PostType = "reply"
	PostTypeQuote   PostType = "quote"
)

// Matches reports whether the post belongs to the given type.
// Retweet takes precedence over reply and quote when flags are set
// inconsistently upstream.
func (p Post) Matches(t PostType) bool {
	switch t {
	case PostTypeRetweet:
		return p.IsRetweet
	case PostTypeReply:
		return p.IsReply && !p.IsRetweet
	case PostTypeQuote:
		return p.IsQuoted && !p.IsRetweet
	case PostTypeTweet:
		return !p.IsRetweet && !p.IsReply && !p.IsQuoted
	}
	return true
}
