package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"argus/internal/domain/sentiment"
	"argus/pkg/errors"
)

// Compile-time check
var _ sentiment.Repository = (*MentionRepository)(nil)

// MentionRepository implements sentiment.Repository using ClickHouse
type MentionRepository struct {
	conn driver.Conn
}

// NewMentionRepository creates a new mention repository
func NewMentionRepository(conn driver.Conn) *MentionRepository {
	return &MentionRepository{conn: conn}
}

// Insert appends mentions in batch
func (r *MentionRepository) Insert(ctx context.Context, mentions []sentiment.Mention) error {
	if len(mentions) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO reddit_mentions (
			keyword, post_title, post_url, subreddit,
			sentiment_score, posted_at, collected_at
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, m := range mentions {
		err := batch.Append(
			m.Keyword, m.PostTitle, m.PostURL, m.Subreddit,
			m.SentimentScore, m.PostedAt, m.CollectedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append mention")
		}
	}

	return batch.Send()
}

// ReleaseSignalCounts aggregates deduplicated mention totals per
// release-signal keyword since the given time. uniqExact over the
// (calendar day, post URL) tuple counts each post once per keyword per day.
func (r *MentionRepository) ReleaseSignalCounts(ctx context.Context, since time.Time) ([]sentiment.KeywordCount, error) {
	var counts []sentiment.KeywordCount

	args := []interface{}{since}

	var signalClauses []string
	for _, term := range sentiment.ReleaseSignalTerms {
		signalClauses = append(signalClauses,
			fmt.Sprintf("positionCaseInsensitive(keyword, $%d) > 0", len(args)+1))
		args = append(args, term)
	}

	query := fmt.Sprintf(`
		SELECT keyword, uniqExact(toDate(posted_at), post_url) AS mentions
		FROM reddit_mentions
		WHERE posted_at >= $1 AND (%s)
		GROUP BY keyword
		ORDER BY mentions DESC, keyword ASC`,
		strings.Join(signalClauses, " OR "))

	err := r.conn.Select(ctx, &counts, query, args...)
	return counts, err
}

// TrendingKeywords retrieves deduplicated mention totals for every keyword
// since the given time, highest first
func (r *MentionRepository) TrendingKeywords(ctx context.Context, since time.Time, limit int) ([]sentiment.KeywordCount, error) {
	var counts []sentiment.KeywordCount

	query := `
		SELECT keyword, uniqExact(toDate(posted_at), post_url) AS mentions
		FROM reddit_mentions
		WHERE posted_at >= $1
		GROUP BY keyword
		ORDER BY mentions DESC, keyword ASC
		LIMIT $2`

	err := r.conn.Select(ctx, &counts, query, since, limit)
	return counts, err
}

// CountSince returns the number of mentions collected at or after since
func (r *MentionRepository) CountSince(ctx context.Context, since time.Time) (uint64, error) {
	var count uint64

	query := `SELECT count() FROM reddit_mentions WHERE collected_at >= $1`
	if err := r.conn.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count mentions")
	}

	return count, nil
}
