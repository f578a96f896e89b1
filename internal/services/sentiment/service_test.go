package sentiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "argus/internal/domain/sentiment"
)

func mention(keyword, url string, postedAt time.Time) domain.Mention {
	return domain.Mention{
		Keyword:   keyword,
		PostTitle: "title for " + url,
		PostURL:   url,
		Subreddit: "nvidia",
		PostedAt:  postedAt,
	}
}

func TestService_DailyFrequency_Dedup(t *testing.T) {
	svc := NewService(DefaultConfig())
	day1 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	t.Run("same keyword same post counts once", func(t *testing.T) {
		freq := svc.DailyFrequency([]domain.Mention{
			mention("New Release", "https://r.example/p1", day1),
			mention("New Release", "https://r.example/p1", day1.Add(2*time.Hour)),
		})
		assert.Equal(t, 1, freq["New Release"]["2026-08-20"])
	})

	t.Run("different keywords same post count independently", func(t *testing.T) {
		freq := svc.DailyFrequency([]domain.Mention{
			mention("New Release", "https://r.example/p1", day1),
			mention("Leak", "https://r.example/p1", day1),
		})
		assert.Equal(t, 1, freq["New Release"]["2026-08-20"])
		assert.Equal(t, 1, freq["Leak"]["2026-08-20"])
	})

	t.Run("same post on different days counts per day", func(t *testing.T) {
		freq := svc.DailyFrequency([]domain.Mention{
			mention("Leak", "https://r.example/p1", day1),
			mention("Leak", "https://r.example/p1", day1.AddDate(0, 0, 1)),
		})
		assert.Equal(t, 1, freq["Leak"]["2026-08-20"])
		assert.Equal(t, 1, freq["Leak"]["2026-08-21"])
	})

	t.Run("different posts same day accumulate", func(t *testing.T) {
		freq := svc.DailyFrequency([]domain.Mention{
			mention("Issues", "https://r.example/p1", day1),
			mention("Issues", "https://r.example/p2", day1),
			mention("Issues", "https://r.example/p3", day1),
		})
		assert.Equal(t, 3, freq["Issues"]["2026-08-20"])
	})

	t.Run("dedup day boundary is UTC", func(t *testing.T) {
		kst := time.FixedZone("KST", 9*60*60)
		// 23:30 and next-day 08:00 KST fall on the same UTC date
		freq := svc.DailyFrequency([]domain.Mention{
			mention("Leak", "https://r.example/p1", time.Date(2026, 8, 20, 23, 30, 0, 0, kst)),
			mention("Leak", "https://r.example/p1", time.Date(2026, 8, 21, 8, 0, 0, 0, kst)),
		})
		assert.Equal(t, map[string]int{"2026-08-20": 1}, freq["Leak"])
	})

	t.Run("input order never changes the result", func(t *testing.T) {
		mentions := []domain.Mention{
			mention("New Release", "https://r.example/p1", day1),
			mention("New Release", "https://r.example/p1", day1),
			mention("Leak", "https://r.example/p2", day1),
			mention("Price Drop", "https://r.example/p3", day1.AddDate(0, 0, 1)),
		}
		reversed := make([]domain.Mention, 0, len(mentions))
		for i := len(mentions) - 1; i >= 0; i-- {
			reversed = append(reversed, mentions[i])
		}
		assert.Equal(t, svc.DailyFrequency(mentions), svc.DailyFrequency(reversed))
	})
}

func TestService_Score(t *testing.T) {
	svc := NewService(DefaultConfig())

	t.Run("weighted sum", func(t *testing.T) {
		got := svc.Score(map[string]int{
			"New Release": 5,
			"Price Drop":  3,
			"Issues":      2,
		})
		assert.Equal(t, 23.0, got)
	})

	t.Run("unknown keyword falls back to default weight", func(t *testing.T) {
		got := svc.Score(map[string]int{"Restock": 4})
		assert.Equal(t, 4.0, got)
	})

	t.Run("empty counts score zero", func(t *testing.T) {
		assert.Zero(t, svc.Score(nil))
	})
}

func TestService_DailyScores(t *testing.T) {
	svc := NewService(DefaultConfig())
	day1 := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	scores := svc.DailyScores([]domain.Mention{
		mention("New Release", "https://r.example/p1", day1),
		mention("New Release", "https://r.example/p1", day1), // dup, not double-counted
		mention("Price Drop", "https://r.example/p2", day1),
		mention("Issues", "https://r.example/p3", day2),
	})

	require.Len(t, scores, 2)
	assert.Equal(t, 5.0, scores["2026-08-20"]) // 1*3.0 + 1*2.0
	assert.Equal(t, 1.0, scores["2026-08-21"])
}

func TestService_Enrich(t *testing.T) {
	svc := NewService(DefaultConfig())
	day1 := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	input := []domain.Mention{
		mention("New Release", "https://r.example/p1", day1),
		mention("New Release", "https://r.example/p1", day1),
		mention("Price Drop", "https://r.example/p2", day1),
	}

	enriched := svc.Enrich(input)
	require.Len(t, enriched, 3)

	// every mention of the day carries the day's aggregate, including
	// the duplicate that was not itself counted
	for _, m := range enriched {
		assert.Equal(t, 5.0, m.SentimentScore)
	}

	// input is left untouched
	for _, m := range input {
		assert.Zero(t, m.SentimentScore)
	}
}
