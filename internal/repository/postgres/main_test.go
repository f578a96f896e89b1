package postgres

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// TestMain loads the repo-level .env so integration tests run against
// the same stores the binary uses. Missing file is fine, the tests
// skip themselves when the environment is absent.
func TestMain(m *testing.M) {
	_ = godotenv.Load("../../../.env")
	os.Exit(m.Run())
}
