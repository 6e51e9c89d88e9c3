package queue

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/config"
)

// Client enqueues background tasks. Enqueueing is at-least-once: asynq
// retries the handler on failure per the task's MaxRetry.
type Client struct {
	inner *asynq.Client
	log   *zerolog.Logger
}

func NewClient(cfg *config.RedisConfig, logger *zerolog.Logger) *Client {
	qlog := logger.With().Str("component", "Queue").Logger()
	return &Client{
		inner: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		log: &qlog,
	}
}

func (c *Client) Enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := c.inner.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	c.log.Debug().Str("task", task.Type()).Str("task_id", info.ID).Msg("enqueued")
	return nil
}

func (c *Client) Close() error { return c.inner.Close() }
