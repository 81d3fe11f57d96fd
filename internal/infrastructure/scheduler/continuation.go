package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	appsync "github.com/relist/backend/internal/application/sync"
)

// continuationMaxRetry bounds queue-level redelivery of a page task. The
// page sync is idempotent, so redelivery is safe.
const continuationMaxRetry = 3

// AsynqContinuation schedules listing-import page tasks on the queue. It
// implements the application layer's Continuation port.
type AsynqContinuation struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewAsynqContinuation creates an AsynqContinuation.
func NewAsynqContinuation(redisOpts asynq.RedisClientOpt, logger *zap.Logger) *AsynqContinuation {
	return &AsynqContinuation{
		client: asynq.NewClient(redisOpts),
		logger: logger,
	}
}

// EmitPageRequest enqueues the next page task, delayed by the inter-page
// spacing. The uniqueness window collapses duplicate continuations for the
// same cursor.
func (c *AsynqContinuation) EmitPageRequest(ctx context.Context, cursor appsync.PageCursor, delay time.Duration) error {
	task, err := NewListingsPageTask(cursor)
	if err != nil {
		return fmt.Errorf("scheduler: encoding page cursor: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueSync),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(continuationMaxRetry),
		asynq.Unique(delay+time.Minute),
	)
	if err != nil {
		return fmt.Errorf("scheduler: enqueueing page %d for seller %s: %w", cursor.Page, cursor.SellerID, err)
	}

	c.logger.Debug("page continuation enqueued",
		zap.String("task_id", info.ID),
		zap.String("seller_id", cursor.SellerID.String()),
		zap.Int("page", cursor.Page))
	return nil
}

// Close releases the queue client.
func (c *AsynqContinuation) Close() error {
	return c.client.Close()
}

// Ensure AsynqContinuation implements the continuation port
var _ appsync.Continuation = (*AsynqContinuation)(nil)
