package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// Global counter for generating unique sequential IDs in tests
	testSequence uint64

	// Base timestamp to make names shorter
	baseTimestamp = time.Now().UnixNano()
)

func init() {
	// Initialize with current timestamp to ensure uniqueness across test runs
	testSequence = uint64(baseTimestamp % 1000000)
}

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return atomic.AddUint64(&testSequence, 1)
}

// UniqueName generates a unique name with given prefix
// Example: UniqueName("BRAND") -> "BRAND_123456"
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, NextSequence())
}

// UniquePostURL generates a unique reddit-style post URL for mention and
// seen-store tests
// Example: UniquePostURL("nvidia") -> "https://reddit.com/r/nvidia/comments/t123456"
func UniquePostURL(subreddit string) string {
	return fmt.Sprintf("https://reddit.com/r/%s/comments/t%d", subreddit, NextSequence())
}

// UniqueString generates a unique string identifier
// Useful when you need guaranteed uniqueness (uses UUID)
func UniqueString() string {
	return uuid.New().String()
}
