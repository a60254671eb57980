package workers

import (
	"errors"
	"time"

	"game-achievement-system/cache"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const fixedRetryDelay = 60 * time.Second

// retryDelay implements the two retry regimes: exponential backoff for lock
// contention (2^n seconds), fixed delay for everything else.
func retryDelay(n int, err error, t *asynq.Task) time.Duration {
	if errors.Is(err, cache.ErrLockBusy) {
		return time.Duration(1<<uint(n)) * time.Second
	}
	return fixedRetryDelay
}

// NewServer builds the asynq worker server and its dispatch mux.
func NewServer(redisOpt asynq.RedisClientOpt, db *gorm.DB, userCache *cache.UserCache, lock *cache.UserLock, tasks *Client) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:    10,
		RetryDelayFunc: retryDelay,
	})

	processor := NewEventProcessor(db, userCache, lock, tasks)
	notifier := NewNotifier(db)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeProcessEvent, processor.HandleProcessEvent)
	mux.HandleFunc(TypeNotify, notifier.HandleNotify)

	return srv, mux
}
