package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"edu-subscription-platform/internal/config"
)

// Client wraps the raw go-redis client so infra consumers share one
// connection and the rest of the tree never imports the driver directly.
type Client struct {
	cli *redis.Client
}

func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{cli: c}, nil
}

func (c *Client) Close() error { return c.cli.Close() }
