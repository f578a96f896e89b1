package danawa

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"argus/internal/adapters/config"
	"argus/internal/domain/catalog"
	"argus/internal/metrics"
	"argus/pkg/errors"
	"argus/pkg/logger"
	"argus/pkg/retry"
)

// Source identifies listings collected from Danawa
const Source = "다나와"

// Client crawls Danawa search-result pages for GPU listings
type Client struct {
	cfg        config.CrawlerConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	retrier    *retry.Policy
	log        *logger.Logger
}

// NewClient creates a Danawa crawler client
func NewClient(cfg config.CrawlerConfig, log *logger.Logger) *Client {
	log = log.With("component", "danawa_crawler")

	burst := 1
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)

	retrier := retry.NewPolicy(retry.Config{
		MaxAttempts: cfg.MaxRetries,
		Backoff:     cfg.RetryBackoff,
	}, log)

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		retrier: retrier,
		log:     log,
	}
}

// Crawl fetches listings for every configured query across the configured
// page range. A query failing mid-crawl does not abort the others.
func (c *Client) Crawl(ctx context.Context) ([]catalog.RawListing, error) {
	var all []catalog.RawListing

	for _, query := range c.cfg.Queries {
		listings, err := c.CrawlQuery(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			c.log.Errorw("Query crawl failed, continuing with remaining queries",
				"query", query,
				"error", err,
			)
			continue
		}
		all = append(all, listings...)
	}

	return all, nil
}

// CrawlQuery fetches all configured pages for a single search query
func (c *Client) CrawlQuery(ctx context.Context, query string) ([]catalog.RawListing, error) {
	var listings []catalog.RawListing

	for page := 1; page <= c.cfg.Pages; page++ {
		pageListings, err := c.fetchPage(ctx, query, page)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch page %d for query %q", page, query)
		}

		c.log.Debugw("Page crawled",
			"query", query,
			"page", page,
			"listings", len(pageListings),
		)

		// Danawa returns an empty result list past the last page
		if len(pageListings) == 0 {
			break
		}

		listings = append(listings, pageListings...)
	}

	c.log.Infow("Query crawl completed",
		"query", query,
		"listings", len(listings),
	)

	return listings, nil
}

func (c *Client) fetchPage(ctx context.Context, query string, page int) ([]catalog.RawListing, error) {
	body, err := c.fetch(ctx, c.searchURL(query, page))
	if err != nil {
		return nil, err
	}

	items, skipped, err := parseListings(body)
	if err != nil {
		return nil, errors.Wrap(err, "parse listing page")
	}
	if skipped > 0 {
		c.log.Warnw("Skipped listings with unparseable prices",
			"query", query,
			"page", page,
			"skipped", skipped,
		)
	}

	now := time.Now()
	listings := make([]catalog.RawListing, 0, len(items))
	for _, item := range items {
		listings = append(listings, catalog.RawListing{
			Name:        item.name,
			Price:       item.price,
			Source:      Source,
			URL:         item.url,
			CollectedAt: now,
		})
	}

	return listings, nil
}

func (c *Client) searchURL(query string, page int) string {
	params := url.Values{
		"query": []string{query},
		"page":  []string{strconv.Itoa(page)},
	}
	return c.cfg.BaseURL + "?" + params.Encode()
}

// fetch retrieves a URL with rate limiting and retry. 429 responses honor
// Retry-After, other 4xx responses are not retried.
func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte

	start := time.Now()
	err := c.retrier.Do(ctx, "danawa fetch", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8")

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
				errors.Wrapf(errors.ErrRateLimited, "danawa http %d", resp.StatusCode),
				parseRetryAfter(resp.Header.Get("Retry-After")),
			)
		case resp.StatusCode >= 500:
			return errors.Wrapf(errors.ErrSourceUnavailable, "danawa http %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return retry.Permanent(fmt.Errorf("danawa http %d", resp.StatusCode))
		}

		body = respBody
		return nil
	})
	metrics.RecordFetch("danawa", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return body, nil
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
