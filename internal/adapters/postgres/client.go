package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // database/sql driver registration

	"argus/internal/adapters/config"
	"argus/pkg/errors"
)

const (
	connectTimeout  = 10 * time.Second
	connMaxLifetime = time.Hour
	connMaxIdleTime = 30 * time.Minute
)

// Client owns the PostgreSQL connection pool
type Client struct {
	db *sqlx.DB
}

// NewClient opens the pool, applies the pool limits from config and
// verifies the server answers within connectTimeout
func NewClient(cfg config.PostgresConfig) (*Client, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}

	return &Client{db: db}, nil
}

// DB returns the pool for repositories and the health endpoints
func (c *Client) DB() *sqlx.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}
