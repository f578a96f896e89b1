package sentiment

import (
	"strings"
	"time"
)

// ReleaseSignalTerms mark keywords that signal an upcoming product release.
// A keyword containing any of these (case-insensitive) carries the highest
// sentiment weight and feeds the release-mention term of the risk index.
var ReleaseSignalTerms = []string{"new release", "leak", "5070"}

// IsReleaseSignal checks if a keyword signals an upcoming release
func IsReleaseSignal(keyword string) bool {
	lower := strings.ToLower(keyword)
	for _, term := range ReleaseSignalTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Mention is one keyword occurrence in a community post.
// One instance exists per (keyword, post) pair; counting dedups further
// by (keyword, calendar day, post URL).
type Mention struct {
	Keyword        string    `ch:"keyword" json:"keyword"`
	PostTitle      string    `ch:"post_title" json:"post_title"`
	PostURL        string    `ch:"post_url" json:"post_url"`
	Subreddit      string    `ch:"subreddit" json:"subreddit"`
	SentimentScore float64   `ch:"sentiment_score" json:"sentiment_score"`
	PostedAt       time.Time `ch:"posted_at" json:"posted_at"`
	CollectedAt    time.Time `ch:"collected_at" json:"collected_at"`
}

// KeywordCount is an aggregated mention total for one keyword
type KeywordCount struct {
	Keyword  string `ch:"keyword" json:"keyword"`
	Mentions uint64 `ch:"mentions" json:"mentions"`
}
