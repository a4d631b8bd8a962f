// Package postgres wraps the pgx connection pool used by the row stores.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client wraps a pgx pool with health checking capabilities.
type Client struct {
	*pgxpool.Pool
}

// New creates a new Postgres pool from the provided URL.
// Returns nil if the URL is empty (Postgres not configured).
func New(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return &Client{Pool: pool}, nil
}

// Health checks if the Postgres connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}

// Close releases the pool.
func (c *Client) Close() {
	c.Pool.Close()
}
