package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"argus/internal/adapters/config"
	"argus/pkg/errors"
)

const dialTimeout = 10 * time.Second

// Client owns the native-protocol ClickHouse connection
type Client struct {
	conn driver.Conn
}

// NewClient dials ClickHouse with LZ4 compression and verifies the
// server answers within dialTimeout
func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     dialTimeout,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open clickhouse")
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to ping clickhouse")
	}

	return &Client{conn: conn}, nil
}

// Conn returns the driver connection for repositories and batch inserts
func (c *Client) Conn() driver.Conn {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Exec runs a statement that returns no rows
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) error {
	return c.conn.Exec(ctx, query, args...)
}

// Query scans result rows into dest
func (c *Client) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return c.conn.Select(ctx, dest, query, args...)
}
