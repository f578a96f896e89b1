package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/testsupport"
)

func TestSeenStore_MarkSeen(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testsupport.NewTestRedis(t)

	store := NewSeenStore(client, time.Hour)
	ctx := context.Background()

	url := testsupport.UniquePostURL("nvidia")

	first, err := store.MarkSeen(ctx, url)
	require.NoError(t, err)
	assert.True(t, first)

	// Second sighting of the same URL
	first, err = store.MarkSeen(ctx, url)
	require.NoError(t, err)
	assert.False(t, first)

	// A different URL is independent
	first, err = store.MarkSeen(ctx, url+"x")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestSeenStore_IsSeen(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testsupport.NewTestRedis(t)

	store := NewSeenStore(client, time.Hour)
	ctx := context.Background()

	url := testsupport.UniquePostURL("hardware")

	seen, err := store.IsSeen(ctx, url)
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = store.MarkSeen(ctx, url)
	require.NoError(t, err)

	seen, err = store.IsSeen(ctx, url)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSeenStore_MarkerExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testsupport.NewTestRedis(t)

	store := NewSeenStore(client, 50*time.Millisecond)
	ctx := context.Background()

	url := "https://www.reddit.com/r/nvidia/comments/ttl1/expiring/"

	_, err := store.MarkSeen(ctx, url)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	seen, err := store.IsSeen(ctx, url)
	require.NoError(t, err)
	assert.False(t, seen)
}
