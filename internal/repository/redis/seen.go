package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"argus/internal/domain/sentiment"
	"argus/pkg/errors"
)

// DefaultSeenTTL keeps seen markers around long enough to cover the posting
// window the collectors re-fetch
const DefaultSeenTTL = 7 * 24 * time.Hour

// Compile-time check
var _ sentiment.SeenStore = (*SeenStore)(nil)

// SeenStore implements sentiment.SeenStore using Redis
type SeenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeenStore creates a new seen store. A non-positive ttl falls back to
// DefaultSeenTTL.
func NewSeenStore(client *redis.Client, ttl time.Duration) *SeenStore {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	return &SeenStore{
		client: client,
		ttl:    ttl,
	}
}

// MarkSeen records the post URL and reports whether this was the first
// sighting. The marker expires after the configured TTL.
func (s *SeenStore) MarkSeen(ctx context.Context, postURL string) (bool, error) {
	key := s.getKey(postURL)

	first, err := s.client.SetNX(ctx, key, 1, s.ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to mark post seen: url=%s", postURL)
	}

	return first, nil
}

// IsSeen checks whether the post URL was already recorded
func (s *SeenStore) IsSeen(ctx context.Context, postURL string) (bool, error) {
	key := s.getKey(postURL)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to check post seen: url=%s", postURL)
	}

	return exists > 0, nil
}

func (s *SeenStore) getKey(postURL string) string {
	sum := sha1.Sum([]byte(postURL))
	return fmt.Sprintf("reddit:seen:%s", hex.EncodeToString(sum[:]))
}
