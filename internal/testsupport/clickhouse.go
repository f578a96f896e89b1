package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"argus/internal/adapters/clickhouse"
	"argus/internal/adapters/config"
	"argus/internal/domain/pricing"
	"argus/internal/domain/sentiment"
)

// ClickHouseTestHelper manages cleanup for ClickHouse integration tests.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewClickHouseTestHelper creates a ClickHouse client for tests.
func NewClickHouseTestHelper(t *testing.T, cfg config.ClickHouseConfig) *ClickHouseTestHelper {
	t.Helper()

	client, err := clickhouse.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	helper := &ClickHouseTestHelper{client: client}
	t.Cleanup(func() { _ = client.Close() })
	return helper
}

// NewTestClickHouse creates a helper with config loaded from the environment
func NewTestClickHouse(t *testing.T) *ClickHouseTestHelper {
	t.Helper()

	dbConfigs := LoadDatabaseConfigsFromEnv(t)
	return NewClickHouseTestHelper(t, dbConfigs.ClickHouse)
}

// CreateTempTable creates a temporary table and registers cleanup.
func (h *ClickHouseTestHelper) CreateTempTable(t *testing.T, schema string) string {
	t.Helper()

	table := fmt.Sprintf("tmp_test_%d", time.Now().UnixNano())
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree() ORDER BY tuple()", table, schema)

	if err := h.client.Exec(context.Background(), query); err != nil {
		t.Fatalf("failed to create clickhouse table: %v", err)
	}

	t.Cleanup(func() {
		_ = h.client.Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	})

	return table
}

// CleanupTable drops the provided table immediately.
func (h *ClickHouseTestHelper) CleanupTable(ctx context.Context, table string) error {
	return h.client.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
}

// RegisterTableCleanup schedules cleanup of specific table data after the
// test completes. Useful for shared tables that shouldn't be dropped.
func (h *ClickHouseTestHelper) RegisterTableCleanup(t *testing.T, table, condition string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, condition)
		_ = h.client.Exec(ctx, query)
	})
}

// CreateBatch inserts test data into a ClickHouse table.
// Usage: testsupport.CreateBatch(t, helper, testsupport.InsertObservations, observations)
func CreateBatch[T any](t *testing.T, helper *ClickHouseTestHelper, insertQuery string, items []T) {
	t.Helper()

	if len(items) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch, err := helper.client.Conn().PrepareBatch(ctx, insertQuery)
	if err != nil {
		t.Fatalf("failed to prepare batch: %v", err)
	}

	for _, item := range items {
		if err := batch.AppendStruct(&item); err != nil {
			t.Fatalf("failed to append item to batch: %v", err)
		}
	}

	if err := batch.Send(); err != nil {
		t.Fatalf("failed to send batch: %v", err)
	}
}

// Predefined insert queries for common tables
const (
	InsertObservations = `
		INSERT INTO price_observations (
			sku_id, price, source, url, recorded_at
		)
	`

	InsertMentions = `
		INSERT INTO reddit_mentions (
			keyword, post_title, post_url, subreddit, sentiment_score, posted_at, collected_at
		)
	`
)

// Client exposes the raw ClickHouse client for queries.
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}

// ========================================
// Fixture Builders for ClickHouse Tests
// ========================================

// ObservationFixture provides a builder for test price observations
type ObservationFixture struct {
	obs pricing.Observation
}

// NewObservationFixture creates a default observation with realistic values
func NewObservationFixture() *ObservationFixture {
	now := time.Now().Truncate(time.Second)
	return &ObservationFixture{
		obs: pricing.Observation{
			SKUID:      1,
			Price:      850000,
			Source:     "다나와",
			URL:        "http://prod.danawa.com/product/1",
			RecordedAt: now,
		},
	}
}

// WithSKU sets the SKU id
func (f *ObservationFixture) WithSKU(skuID int64) *ObservationFixture {
	f.obs.SKUID = skuID
	return f
}

// WithPrice sets the observed price
func (f *ObservationFixture) WithPrice(price float64) *ObservationFixture {
	f.obs.Price = price
	return f
}

// WithRecordedAt sets the observation timestamp
func (f *ObservationFixture) WithRecordedAt(t time.Time) *ObservationFixture {
	f.obs.RecordedAt = t
	return f
}

// WithSource sets the listing source
func (f *ObservationFixture) WithSource(source string) *ObservationFixture {
	f.obs.Source = source
	return f
}

// Build returns the observation
func (f *ObservationFixture) Build() pricing.Observation {
	return f.obs
}

// BuildMany builds count observations spaced one hour apart, oldest first
func (f *ObservationFixture) BuildMany(count int) []pricing.Observation {
	observations := make([]pricing.Observation, count)
	for i := 0; i < count; i++ {
		obs := f.obs
		obs.RecordedAt = f.obs.RecordedAt.Add(time.Duration(i) * time.Hour)
		observations[i] = obs
	}
	return observations
}

// MentionFixture provides a builder for test reddit mentions
type MentionFixture struct {
	mention sentiment.Mention
}

// NewMentionFixture creates a default mention
func NewMentionFixture() *MentionFixture {
	now := time.Now().Truncate(time.Second)
	return &MentionFixture{
		mention: sentiment.Mention{
			Keyword:     "New Release",
			PostTitle:   "RTX 5070 new release rumors heating up",
			PostURL:     fmt.Sprintf("https://www.reddit.com/r/nvidia/comments/%s/", UniqueName("post")),
			Subreddit:   "nvidia",
			PostedAt:    now,
			CollectedAt: now,
		},
	}
}

// WithKeyword sets the matched keyword
func (f *MentionFixture) WithKeyword(keyword string) *MentionFixture {
	f.mention.Keyword = keyword
	return f
}

// WithPostURL sets the post URL
func (f *MentionFixture) WithPostURL(url string) *MentionFixture {
	f.mention.PostURL = url
	return f
}

// WithSubreddit sets the subreddit
func (f *MentionFixture) WithSubreddit(subreddit string) *MentionFixture {
	f.mention.Subreddit = subreddit
	return f
}

// WithPostedAt sets the post timestamp
func (f *MentionFixture) WithPostedAt(t time.Time) *MentionFixture {
	f.mention.PostedAt = t
	return f
}

// WithScore sets the sentiment score
func (f *MentionFixture) WithScore(score float64) *MentionFixture {
	f.mention.SentimentScore = score
	return f
}

// Build returns the mention
func (f *MentionFixture) Build() sentiment.Mention {
	return f.mention
}

// BuildMany builds count mentions with distinct post URLs
func (f *MentionFixture) BuildMany(count int) []sentiment.Mention {
	mentions := make([]sentiment.Mention, count)
	for i := 0; i < count; i++ {
		m := f.mention
		m.PostURL = fmt.Sprintf("%s%d/", f.mention.PostURL, i)
		mentions[i] = m
	}
	return mentions
}
