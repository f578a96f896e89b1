package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"argus/internal/adapters/config"
	"argus/internal/domain/sentiment"
	"argus/internal/metrics"
	"argus/pkg/errors"
	"argus/pkg/logger"
	"argus/pkg/retry"
)

// subredditDelay spaces out subreddit fetches within one collection run
const subredditDelay = 2 * time.Second

// Client collects keyword mentions from subreddit listings
type Client struct {
	cfg        config.RedditConfig
	httpClient *http.Client
	retrier    *retry.Policy
	delay      time.Duration
	log        *logger.Logger
}

// NewClient creates a Reddit collector client
func NewClient(cfg config.RedditConfig, log *logger.Logger) *Client {
	log = log.With("component", "reddit_collector")

	retrier := retry.NewPolicy(retry.Config{
		MaxAttempts: cfg.MaxRetries,
		Backoff:     cfg.RetryBackoff,
	}, log)

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retrier: retrier,
		delay:   subredditDelay,
		log:     log,
	}
}

// Collect gathers mentions from every configured subreddit. A subreddit
// failing after retries does not abort the others.
func (c *Client) Collect(ctx context.Context) ([]sentiment.Mention, error) {
	var all []sentiment.Mention

	for i, subreddit := range c.cfg.Subreddits {
		mentions, err := c.CollectSubreddit(ctx, subreddit)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			c.log.Errorw("Subreddit collection failed, continuing with remaining subreddits",
				"subreddit", subreddit,
				"error", err,
			)
			continue
		}
		all = append(all, mentions...)

		if c.delay > 0 && i < len(c.cfg.Subreddits)-1 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(c.delay):
			}
		}
	}

	c.log.Infow("Reddit collection completed",
		"subreddits", len(c.cfg.Subreddits),
		"mentions", len(all),
	)

	return all, nil
}

// CollectSubreddit gathers keyword mentions from one subreddit's new-post
// listing
func (c *Client) CollectSubreddit(ctx context.Context, subreddit string) ([]sentiment.Mention, error) {
	posts, err := c.fetchListing(ctx, subreddit)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch listing for r/%s", subreddit)
	}

	now := time.Now()
	var mentions []sentiment.Mention
	for _, p := range posts {
		mentions = append(mentions, c.mentionsFromPost(p, subreddit, now)...)
	}

	c.log.Debugw("Subreddit collected",
		"subreddit", subreddit,
		"posts", len(posts),
		"mentions", len(mentions),
	)

	return mentions, nil
}

// mentionsFromPost emits one mention per configured keyword found in the
// post's title or body, case-insensitive
func (c *Client) mentionsFromPost(p post, subreddit string, now time.Time) []sentiment.Mention {
	fullText := strings.ToLower(p.Title + " " + p.Selftext)

	postedAt := now
	if p.CreatedUTC > 0 {
		postedAt = time.Unix(int64(p.CreatedUTC), 0).UTC()
	}

	if p.Subreddit != "" {
		subreddit = p.Subreddit
	}

	var mentions []sentiment.Mention
	for _, keyword := range c.cfg.Keywords {
		if !strings.Contains(fullText, strings.ToLower(keyword)) {
			continue
		}
		mentions = append(mentions, sentiment.Mention{
			Keyword:     keyword,
			PostTitle:   p.Title,
			PostURL:     c.postURL(p),
			Subreddit:   subreddit,
			PostedAt:    postedAt,
			CollectedAt: now,
		})
	}
	return mentions
}

func (c *Client) postURL(p post) string {
	if p.Permalink != "" {
		if strings.HasPrefix(p.Permalink, "http") {
			return p.Permalink
		}
		return c.cfg.BaseURL + p.Permalink
	}
	return p.URL
}

// post is the subset of listing fields the collector reads
type post struct {
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	CreatedUTC float64 `json:"created_utc"`
	Subreddit  string  `json:"subreddit"`
}

type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Client) fetchListing(ctx context.Context, subreddit string) ([]post, error) {
	params := url.Values{
		"limit":    []string{strconv.Itoa(c.cfg.PostLimit)},
		"raw_json": []string{"1"},
	}
	reqURL := fmt.Sprintf("%s/r/%s/new.json?%s", c.cfg.BaseURL, subreddit, params.Encode())

	var body []byte
	start := time.Now()
	err := c.retrier.Do(ctx, "reddit fetch", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return retry.RateLimited(
				errors.Wrapf(errors.ErrRateLimited, "reddit http %d", resp.StatusCode),
				parseRetryAfter(resp.Header.Get("Retry-After")),
			)
		case resp.StatusCode >= 500:
			return errors.Wrapf(errors.ErrSourceUnavailable, "reddit http %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return retry.Permanent(fmt.Errorf("reddit http %d", resp.StatusCode))
		}

		body = respBody
		return nil
	})
	metrics.RecordFetch("reddit", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var envelope listingEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(err, "decode listing response")
	}

	posts := make([]post, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
