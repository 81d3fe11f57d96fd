package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	appsync "github.com/relist/backend/internal/application/sync"
	applogger "github.com/relist/backend/internal/infrastructure/logger"
	"github.com/relist/backend/internal/infrastructure/telemetry"
)

// pageGuardTTL is how long a processed page cursor stays marked. Redelivery
// inside the window is dropped; after it the upsert path is idempotent
// anyway.
const pageGuardTTL = 30 * time.Minute

// PageSyncer is the slice of the listing sync service the worker drives.
type PageSyncer interface {
	SyncPage(ctx context.Context, cursor appsync.PageCursor) (*appsync.PageResult, error)
}

// IdempotencyGuard deduplicates redelivered page tasks.
type IdempotencyGuard interface {
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
}

// Worker runs the queue consumer for listing-import continuations.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// WorkerConfig collects the dependencies the worker needs.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Syncer      PageSyncer
	Guard       IdempotencyGuard
	Logger      *zap.Logger
}

// NewWorker constructs a Worker with the page handler registered.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Syncer == nil {
		return nil, errors.New("scheduler: page syncer is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	server := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueSync: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeListingsPage, newListingsPageHandler(cfg.Syncer, cfg.Guard, cfg.Logger))

	return &Worker{server: server, mux: mux, logger: cfg.Logger}, nil
}

// Run processes tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// newListingsPageHandler decodes the cursor, guards against redelivery and
// invokes the page sync.
func newListingsPageHandler(syncer PageSyncer, guard IdempotencyGuard, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var cursor appsync.PageCursor
		if err := json.Unmarshal(task.Payload(), &cursor); err != nil {
			logger.Error("undecodable page cursor, dropping task", zap.Error(err))
			return fmt.Errorf("scheduler: decoding page cursor: %v: %w", err, asynq.SkipRetry)
		}

		// Downstream log entries carry the seller automatically.
		ctx, log := applogger.WithSellerID(ctx, logger, cursor.SellerID.String())

		key := fmt.Sprintf("%s:%s:%d", TaskTypeListingsPage, cursor.SellerID, cursor.Page)
		if guard != nil {
			done, err := guard.IsProcessed(ctx, key)
			if err != nil {
				return fmt.Errorf("scheduler: idempotency check: %w", err)
			}
			if done {
				log.Info("duplicate page task dropped", zap.Int("page", cursor.Page))
				return nil
			}
		}

		var result *appsync.PageResult
		var err error
		telemetry.WithProfilingLabels(ctx, map[string]string{
			telemetry.ProfilingLabelOperation: "listings_page_sync",
			telemetry.ProfilingLabelSellerID:  cursor.SellerID.String(),
		}, func(ctx context.Context) {
			result, err = syncer.SyncPage(ctx, cursor)
		})
		if err != nil {
			if errors.Is(err, appsync.ErrPageCeiling) {
				log.Warn("page task beyond ceiling, dropping", zap.Int("page", cursor.Page))
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			// Leave the page unmarked so asynq's redelivery re-runs it.
			return err
		}

		if guard != nil {
			// Marked only after success. Concurrent duplicates can slip
			// past the IsProcessed check, but the upsert path is idempotent.
			if _, err := guard.MarkProcessed(ctx, key, pageGuardTTL); err != nil {
				log.Warn("failed to mark page processed",
					zap.Int("page", cursor.Page),
					zap.Error(err))
			}
		}

		log.Info("listing page synced",
			zap.Int("page", result.Page),
			zap.String("state", string(result.State)),
			zap.Int("imported", result.Imported),
			zap.Bool("has_more", result.HasMore))
		return nil
	}
}
