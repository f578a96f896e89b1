package sentiment

import (
	"time"

	"argus/internal/domain/sentiment"
)

const dateLayout = "2006-01-02"

// Config holds the per-keyword sentiment weights. Injected at
// construction so tests can substitute alternate weight tables.
type Config struct {
	Weights       map[string]float64
	DefaultWeight float64
}

// DefaultConfig returns the production weight table. Release-signal
// keywords weigh 3.0, the price-drop keyword 2.0, everything else 1.0.
func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			"New Release":       3.0,
			"Leak":              3.0,
			"5070 release date": 3.0,
			"Price Drop":        2.0,
			"Issues":            1.0,
			"Used Market":       1.0,
		},
		DefaultWeight: 1.0,
	}
}

// Service turns raw keyword mentions into deduplicated daily scores.
// Pure: every method is a function of its inputs, with no state between
// calls and no dependence on input ordering.
type Service struct {
	cfg Config
}

// NewService creates a new sentiment scorer
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// dedupKey is the uniqueness boundary for counting a mention once
type dedupKey struct {
	keyword string
	day     string
	url     string
}

// day buckets a timestamp into its UTC calendar date
func day(ts time.Time) string {
	return ts.UTC().Format(dateLayout)
}

// DailyFrequency counts mentions per keyword per UTC calendar day.
// A (keyword, day, post URL) triple is counted at most once however
// many times it appears; two different keywords from the same post
// count independently.
func (s *Service) DailyFrequency(mentions []sentiment.Mention) map[string]map[string]int {
	seen := make(map[dedupKey]struct{}, len(mentions))
	freq := make(map[string]map[string]int)

	for _, m := range mentions {
		key := dedupKey{keyword: m.Keyword, day: day(m.PostedAt), url: m.PostURL}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if freq[m.Keyword] == nil {
			freq[m.Keyword] = make(map[string]int)
		}
		freq[m.Keyword][key.day]++
	}
	return freq
}

// Score collapses keyword counts into one weighted score
func (s *Service) Score(counts map[string]int) float64 {
	total := 0.0
	for keyword, count := range counts {
		weight, ok := s.cfg.Weights[keyword]
		if !ok {
			weight = s.cfg.DefaultWeight
		}
		total += float64(count) * weight
	}
	return total
}

// DailyScores returns the weighted score of each UTC calendar day
func (s *Service) DailyScores(mentions []sentiment.Mention) map[string]float64 {
	seen := make(map[dedupKey]struct{}, len(mentions))
	perDay := make(map[string]map[string]int)

	for _, m := range mentions {
		key := dedupKey{keyword: m.Keyword, day: day(m.PostedAt), url: m.PostURL}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if perDay[key.day] == nil {
			perDay[key.day] = make(map[string]int)
		}
		perDay[key.day][m.Keyword]++
	}

	scores := make(map[string]float64, len(perDay))
	for d, counts := range perDay {
		scores[d] = s.Score(counts)
	}
	return scores
}

// Enrich returns a copy of the mentions with each one's SentimentScore
// set to its day's aggregate score. The day is the unit of sentiment:
// mentions are never scored individually.
func (s *Service) Enrich(mentions []sentiment.Mention) []sentiment.Mention {
	scores := s.DailyScores(mentions)

	enriched := make([]sentiment.Mention, len(mentions))
	copy(enriched, mentions)
	for i := range enriched {
		enriched[i].SentimentScore = scores[day(enriched[i].PostedAt)]
	}
	return enriched
}
