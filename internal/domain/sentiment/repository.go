package sentiment

import (
	"context"
	"time"
)

// Repository defines the interface for mention data access (ClickHouse)
type Repository interface {
	Insert(ctx context.Context, mentions []Mention) error

	// ReleaseSignalCounts aggregates deduplicated mention totals per
	// release-signal keyword since the given time. A mention is counted
	// once per (keyword, calendar day, post URL).
	ReleaseSignalCounts(ctx context.Context, since time.Time) ([]KeywordCount, error)

	// TrendingKeywords returns deduplicated mention totals for every
	// keyword since the given time, highest first
	TrendingKeywords(ctx context.Context, since time.Time, limit int) ([]KeywordCount, error)

	CountSince(ctx context.Context, since time.Time) (uint64, error)
}

// SeenStore tracks which posts have already been processed so repeated
// collection runs do not store duplicate mentions
type SeenStore interface {
	// MarkSeen records the post URL and reports whether this was the
	// first sighting
	MarkSeen(ctx context.Context, postURL string) (bool, error)

	IsSeen(ctx context.Context, postURL string) (bool, error)
}
